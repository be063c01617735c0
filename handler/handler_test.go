package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/middleware"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"
	"github.com/worklane/worklane/slug"
	"github.com/worklane/worklane/tenancy"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testAuthSecret = "handler-test-secret"

type testApp struct {
	app    *fiber.App
	db     *gorm.DB
	signer *middleware.AuthHeaderSigner
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Account{},
		&model.Workspace{},
		&model.Team{},
		&model.AccountMembership{},
		&model.WorkspaceMembership{},
		&model.TeamMembership{},
		&model.AuditEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.NewNop()
	az := authz.NewAuthorizer(db, logg)
	recorder := audit.NewRecorder(db, logg)
	slugs := slug.NewAssigner()
	v := validator.New()

	verifier := middleware.NewAuthHeaderVerifier(&middleware.AuthHeaderVerifierConfig{
		Enabled: true,
		Secret:  testAuthSecret,
	}, logg)
	scope := middleware.NewScopeResolver(db, az, logg)
	adminAuth := middleware.NewAdminKeyAuth(&middleware.AdminKeyConfig{
		Enabled: true,
		Keys:    map[string]string{"test": "admin-secret"},
	}, logg)

	register := NewRouter(
		verifier,
		scope,
		adminAuth,
		NewAccountHandler(tenancy.NewAccountService(db, slugs, az, recorder, logg), v),
		NewWorkspaceHandler(tenancy.NewWorkspaceService(db, slugs, az, recorder, logg), v),
		NewTeamHandler(tenancy.NewTeamService(db, slugs, az, recorder, logg), v),
		NewMembershipHandler(tenancy.NewMembershipService(db, az, recorder, logg), v),
		NewSwitchHandler(tenancy.NewSwitcher(db, az, recorder, logg), v),
		NewAuditHandler(recorder),
	)

	app := fiber.New()
	register(app)

	signer := middleware.NewAuthHeaderSigner(&middleware.AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  testAuthSecret,
		Issuer:  "gateway",
	})

	return &testApp{app: app, db: db, signer: signer}
}

func (ta *testApp) seedUser(t *testing.T, id int64, email string) {
	t.Helper()
	user := &model.User{BaseModel: repository.BaseModel{ID: id}, Email: email, Name: email}
	if err := ta.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// request 以给定租户声明发起请求, 网关头部现签
func (ta *testApp) request(t *testing.T, method, path string, claims *middleware.UserClaims, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		headers, err := ta.signer.BuildHeaders(claims)
		if err != nil {
			t.Fatalf("sign headers: %v", err)
		}
		middleware.WriteAuthHeaders(req.Header, headers)
	}
	resp, err := ta.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Data
}

func TestCreateAccountAndReadCurrent(t *testing.T) {
	ta := newTestApp(t)
	ta.seedUser(t, 101, "owner@example.com")

	resp := ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: 101}, map[string]any{
		"name":     "Acme Corp",
		"owner_id": int64(101),
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create account: expected 201, got %d", resp.StatusCode)
	}
	data := decodeData(t, resp)
	if data["slug"] != "acme-corp" {
		t.Fatalf("unexpected slug: %v", data["slug"])
	}

	var account model.Account
	if err := ta.db.Where("slug = ?", "acme-corp").First(&account).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}

	resp = ta.request(t, "GET", "/v1/accounts/current",
		&middleware.UserClaims{UserID: 101, AccountID: account.ID}, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("current account: expected 200, got %d", resp.StatusCode)
	}
	data = decodeData(t, resp)
	if data["name"] != "Acme Corp" {
		t.Fatalf("unexpected account: %v", data)
	}
}

func TestMissingAuthHeadersRejected(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.request(t, "GET", "/v1/workspaces", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestValidationFailureReturnsFields(t *testing.T) {
	ta := newTestApp(t)
	ta.seedUser(t, 101, "owner@example.com")

	resp := ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: 101}, map[string]any{})
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var body struct {
		Fields map[string][]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields["name"]) == 0 || len(body.Fields["owner_id"]) == 0 {
		t.Fatalf("expected field errors for name and owner_id, got %v", body.Fields)
	}
}

func TestWorkspaceFlowAcrossTenants(t *testing.T) {
	ta := newTestApp(t)
	ta.seedUser(t, 101, "a@example.com")
	ta.seedUser(t, 202, "b@example.com")

	resp := ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: 101}, map[string]any{
		"name": "Tenant A", "owner_id": int64(101),
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create tenant a: %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: 202}, map[string]any{
		"name": "Tenant B", "owner_id": int64(202),
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create tenant b: %d", resp.StatusCode)
	}
	resp.Body.Close()

	var accountA, accountB model.Account
	if err := ta.db.Where("name = ?", "Tenant A").First(&accountA).Error; err != nil {
		t.Fatalf("load tenant a: %v", err)
	}
	if err := ta.db.Where("name = ?", "Tenant B").First(&accountB).Error; err != nil {
		t.Fatalf("load tenant b: %v", err)
	}

	claimsA := &middleware.UserClaims{UserID: 101, AccountID: accountA.ID}
	resp = ta.request(t, "POST", "/v1/workspaces", claimsA, map[string]any{"name": "Core"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create workspace: %d", resp.StatusCode)
	}
	data := decodeData(t, resp)
	workspaceID, _ := data["id"].(string)
	if workspaceID == "" {
		t.Fatalf("workspace id missing: %v", data)
	}

	// 其他租户的成员看不到这个工作区, 404 与不存在不可区分
	claimsB := &middleware.UserClaims{UserID: 202, AccountID: accountB.ID}
	resp = ta.request(t, "GET", "/v1/workspaces/"+workspaceID, claimsB, nil)
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("cross-tenant read: expected 404, got %d", resp.StatusCode)
	}
}

func TestAuditEventsAreTenantScoped(t *testing.T) {
	ta := newTestApp(t)
	ta.seedUser(t, 101, "a@example.com")
	ta.seedUser(t, 202, "b@example.com")

	for _, tc := range []struct {
		userID int64
		name   string
	}{{101, "Tenant A"}, {202, "Tenant B"}} {
		resp := ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: tc.userID}, map[string]any{
			"name": tc.name, "owner_id": tc.userID,
		})
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("create %s: %d", tc.name, resp.StatusCode)
		}
		resp.Body.Close()
	}

	var accountA model.Account
	if err := ta.db.Where("name = ?", "Tenant A").First(&accountA).Error; err != nil {
		t.Fatalf("load tenant a: %v", err)
	}

	resp := ta.request(t, "GET", "/v1/audit-events",
		&middleware.UserClaims{UserID: 101, AccountID: accountA.ID}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list audit events: %d", resp.StatusCode)
	}
	var body struct {
		Data struct {
			List  []map[string]any `json:"list"`
			Total int64            `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 1 || len(body.Data.List) != 1 {
		t.Fatalf("expected exactly own tenant's event, got total=%d", body.Data.Total)
	}
	if body.Data.List[0]["action"] != "account.created" {
		t.Fatalf("unexpected action: %v", body.Data.List[0]["action"])
	}
}

func TestSwitchAccountEndpoint(t *testing.T) {
	ta := newTestApp(t)
	ta.seedUser(t, 101, "a@example.com")

	resp := ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: 101}, map[string]any{
		"name": "Tenant A", "owner_id": int64(101),
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create account: %d", resp.StatusCode)
	}
	resp.Body.Close()

	var account model.Account
	if err := ta.db.Where("name = ?", "Tenant A").First(&account).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}

	resp = ta.request(t, "POST", "/v1/switch/account", &middleware.UserClaims{UserID: 101}, map[string]any{
		"account_id": strconv.FormatInt(account.ID, 10),
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("switch account: %d", resp.StatusCode)
	}
	data := decodeData(t, resp)
	if data["account_id"] == "" {
		t.Fatalf("switch response missing account id: %v", data)
	}

	// 不是成员的目标账户: 404, 与不存在无差别
	resp = ta.request(t, "POST", "/v1/switch/account", &middleware.UserClaims{UserID: 101}, map[string]any{
		"account_id": "999999",
	})
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("foreign switch: expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminListAccountsRequiresKey(t *testing.T) {
	ta := newTestApp(t)
	ta.seedUser(t, 101, "a@example.com")

	resp := ta.request(t, "POST", "/v1/accounts", &middleware.UserClaims{UserID: 101}, map[string]any{
		"name": "Tenant A", "owner_id": int64(101),
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create account: %d", resp.StatusCode)
	}
	resp.Body.Close()

	req := httptest.NewRequest("GET", "/admin/accounts", nil)
	resp, err := ta.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no key: expected 401, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/admin/accounts", nil)
	req.Header.Set("X-Admin-Key", "admin-secret")
	resp, err = ta.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("with key: expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 1 {
		t.Fatalf("expected one account, got %d", body.Data.Total)
	}
}
