package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	wlerrors "github.com/worklane/worklane/errors"
)

func TestError_BizError(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/err", func(c fiber.Ctx) error {
		return Error(c, wlerrors.ErrNotFound)
	})

	req := httptest.NewRequest("GET", "/err", nil)
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", resp.StatusCode, fiber.StatusNotFound)
	}

	var got Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Code != int(wlerrors.ErrCodeNotFound) {
		t.Fatalf("unexpected code: got=%d want=%d", got.Code, int(wlerrors.ErrCodeNotFound))
	}
}

func TestError_FieldErrors(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/err", func(c fiber.Ctx) error {
		return Error(c, wlerrors.Validation(wlerrors.NewFieldErrors().Add("name", "is required")))
	})

	req := httptest.NewRequest("GET", "/err", nil)
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: got=%d", resp.StatusCode)
	}

	var got Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Fields["name"]) != 1 {
		t.Fatalf("field detail missing: %+v", got.Fields)
	}
}

func TestOkWithData(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/ok", func(c fiber.Ctx) error {
		return OkWithData(c, map[string]string{"slug": "acme"})
	})

	req := httptest.NewRequest("GET", "/ok", nil)
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
