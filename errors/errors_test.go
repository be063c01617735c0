package errors

import (
	"fmt"
	"testing"
)

func TestBizErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(ErrCodeNotFound, "workspace missing", fmt.Errorf("row absent"))

	if !Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if Is(err, ErrPermissionDenied) {
		t.Fatalf("unexpected match against a different code")
	}
}

func TestCodeUnwrapsNestedErrors(t *testing.T) {
	inner := New(ErrCodeConflict, "slug taken")
	outer := fmt.Errorf("create workspace: %w", inner)

	if Code(outer) != ErrCodeConflict {
		t.Fatalf("expected conflict code, got %d", Code(outer))
	}
	if !IsConflict(outer) {
		t.Fatalf("IsConflict should see through wrapping")
	}
}

func TestValidationCarriesFieldDetail(t *testing.T) {
	fields := NewFieldErrors().
		Add("account_id", "does not match the active account").
		Add("account_id", "must agree with workspace account")
	err := Validation(fields)

	if !Is(err, ErrInvalidArgument) {
		t.Fatalf("validation errors should classify as invalid argument")
	}

	got, ok := AsFieldErrors(err)
	if !ok {
		t.Fatalf("field detail lost through wrapping")
	}
	if len(got.Fields["account_id"]) != 2 {
		t.Fatalf("expected 2 messages for account_id, got %d", len(got.Fields["account_id"]))
	}
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"nil", nil, 200},
		{"not found", ErrNotFound, 404},
		{"denied", ErrPermissionDenied, 403},
		{"unauthenticated", ErrUnauthenticated, 401},
		{"validation", Validation(NewFieldErrors().Add("slug", "required")), 422},
		{"conflict", ErrConflict, 409},
		{"plain error", fmt.Errorf("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := ToHTTPResponse(tt.err)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestToHTTPResponseIncludesFields(t *testing.T) {
	_, body := ToHTTPResponse(Validation(NewFieldErrors().Add("name", "required")))
	if len(body.Fields["name"]) != 1 {
		t.Fatalf("expected field detail in response body")
	}
}
