package handler

import (
	"github.com/worklane/worklane/response"
	"github.com/worklane/worklane/tenancy"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Switch Handler - 租户切换 HTTP 接口
 * ========================================================================
 * 切换成功返回新的租户上下文, 由网关写回后续请求的头部声明
 * ======================================================================== */

// SwitchHandler 租户切换接口
type SwitchHandler struct {
	svc      *tenancy.Switcher
	validate *validator.Validator
}

// NewSwitchHandler 创建租户切换接口
func NewSwitchHandler(svc *tenancy.Switcher, v *validator.Validator) *SwitchHandler {
	return &SwitchHandler{svc: svc, validate: v}
}

// Register 注册路由
func (h *SwitchHandler) Register(r fiber.Router) {
	r.Post("/switch/account", h.switchAccount)
	r.Post("/switch/workspace", h.switchWorkspace)
}

// switchResponse 新的租户上下文
type switchResponse struct {
	AccountID   int64  `json:"account_id,string"`
	WorkspaceID *int64 `json:"workspace_id,string,omitempty"`
}

type switchAccountRequest struct {
	AccountID int64 `json:"account_id,string" validate:"required" error_msg:"required:account_id is required"`
}

func (h *SwitchHandler) switchAccount(c fiber.Ctx) error {
	var req switchAccountRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	scope, err := h.svc.SwitchAccount(c.Context(), req.AccountID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, switchResponse{
		AccountID:   scope.AccountID,
		WorkspaceID: scope.WorkspaceID,
	})
}

type switchWorkspaceRequest struct {
	WorkspaceID int64 `json:"workspace_id,string" validate:"required" error_msg:"required:workspace_id is required"`
}

func (h *SwitchHandler) switchWorkspace(c fiber.Ctx) error {
	var req switchWorkspaceRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	scope, err := h.svc.SwitchWorkspace(c.Context(), req.WorkspaceID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, switchResponse{
		AccountID:   scope.AccountID,
		WorkspaceID: scope.WorkspaceID,
	})
}
