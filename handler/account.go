package handler

import (
	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/response"
	"github.com/worklane/worklane/tenancy"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Account Handler - 账户 HTTP 接口
 * ======================================================================== */

// AccountHandler 账户接口
type AccountHandler struct {
	svc      *tenancy.AccountService
	validate *validator.Validator
}

// NewAccountHandler 创建账户接口
func NewAccountHandler(svc *tenancy.AccountService, v *validator.Validator) *AccountHandler {
	return &AccountHandler{svc: svc, validate: v}
}

// Register 注册路由
func (h *AccountHandler) Register(r fiber.Router) {
	r.Post("/accounts", h.create)
	r.Get("/accounts/current", h.current)
	r.Patch("/accounts/current/status", h.updateStatus)
	r.Patch("/accounts/current/settings", h.updateSettings)
}

// RegisterAdmin 注册管理面路由, 调用方需已挂载 Admin Key 认证
func (h *AccountHandler) RegisterAdmin(r fiber.Router) {
	r.Get("/accounts", h.list)
}

func (h *AccountHandler) create(c fiber.Ctx) error {
	var req tenancy.CreateAccountInput
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	account, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, account)
}

func (h *AccountHandler) current(c fiber.Ctx) error {
	account, err := h.svc.Current(c.Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, account)
}

type updateAccountStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active trialing suspended canceled" error_msg:"required:status is required|oneof:unknown status"`
}

func (h *AccountHandler) updateStatus(c fiber.Ctx) error {
	var req updateAccountStatusRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	account, err := h.svc.UpdateStatus(c.Context(), model.AccountStatus(req.Status))
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, account)
}

type updateAccountSettingsRequest struct {
	Settings database.JSONB `json:"settings" validate:"required" error_msg:"required:settings is required"`
}

func (h *AccountHandler) updateSettings(c fiber.Ctx) error {
	var req updateAccountSettingsRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	account, err := h.svc.UpdateSettings(c.Context(), req.Settings)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, account)
}

func (h *AccountHandler) list(c fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := h.svc.List(c.Context(), page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Page(c, result)
}
