package handler

import (
	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/response"
	"github.com/worklane/worklane/tenancy"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Membership Handler - 成员关系 HTTP 接口
 * ========================================================================
 * 三个层级 (account / workspace / team) 共用一组路由,
 * level + tenant_id 定位目标租户
 * ======================================================================== */

// MembershipHandler 成员关系接口
type MembershipHandler struct {
	svc      *tenancy.MembershipService
	validate *validator.Validator
}

// NewMembershipHandler 创建成员关系接口
func NewMembershipHandler(svc *tenancy.MembershipService, v *validator.Validator) *MembershipHandler {
	return &MembershipHandler{svc: svc, validate: v}
}

// Register 注册路由
func (h *MembershipHandler) Register(r fiber.Router) {
	r.Post("/memberships/invite", h.invite)
	r.Post("/memberships/accept", h.accept)
	r.Post("/memberships/role", h.changeRole)
	r.Post("/memberships/deactivate", h.deactivate)
}

type inviteRequest struct {
	Level    string `json:"level" validate:"required,oneof=account workspace team" error_msg:"required:level is required|oneof:unknown level"`
	TenantID int64  `json:"tenant_id,string" validate:"required" error_msg:"required:tenant_id is required"`
	UserID   int64  `json:"user_id,string" validate:"required" error_msg:"required:user_id is required"`
	Role     string `json:"role" validate:"required,oneof=viewer member admin owner" error_msg:"required:role is required|oneof:unknown role"`
}

func (h *MembershipHandler) invite(c fiber.Ctx) error {
	var req inviteRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	tenant := authz.Tenant{Level: authz.Level(req.Level), ID: req.TenantID}
	if err := h.svc.Invite(c.Context(), tenant, req.UserID, authz.Role(req.Role)); err != nil {
		return response.Error(c, err)
	}
	return response.Ok(c)
}

type acceptRequest struct {
	Level    string `json:"level" validate:"required,oneof=account workspace team" error_msg:"required:level is required|oneof:unknown level"`
	TenantID int64  `json:"tenant_id,string" validate:"required" error_msg:"required:tenant_id is required"`
}

func (h *MembershipHandler) accept(c fiber.Ctx) error {
	var req acceptRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	tenant := authz.Tenant{Level: authz.Level(req.Level), ID: req.TenantID}
	if err := h.svc.Accept(c.Context(), tenant); err != nil {
		return response.Error(c, err)
	}
	return response.Ok(c)
}

type changeRoleRequest struct {
	Level    string `json:"level" validate:"required,oneof=account workspace team" error_msg:"required:level is required|oneof:unknown level"`
	TenantID int64  `json:"tenant_id,string" validate:"required" error_msg:"required:tenant_id is required"`
	UserID   int64  `json:"user_id,string" validate:"required" error_msg:"required:user_id is required"`
	Role     string `json:"role" validate:"required,oneof=viewer member admin owner" error_msg:"required:role is required|oneof:unknown role"`
}

func (h *MembershipHandler) changeRole(c fiber.Ctx) error {
	var req changeRoleRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	tenant := authz.Tenant{Level: authz.Level(req.Level), ID: req.TenantID}
	if err := h.svc.ChangeRole(c.Context(), tenant, req.UserID, authz.Role(req.Role)); err != nil {
		return response.Error(c, err)
	}
	return response.Ok(c)
}

type deactivateRequest struct {
	Level    string `json:"level" validate:"required,oneof=account workspace team" error_msg:"required:level is required|oneof:unknown level"`
	TenantID int64  `json:"tenant_id,string" validate:"required" error_msg:"required:tenant_id is required"`
	UserID   int64  `json:"user_id,string" validate:"required" error_msg:"required:user_id is required"`
}

func (h *MembershipHandler) deactivate(c fiber.Ctx) error {
	var req deactivateRequest
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	tenant := authz.Tenant{Level: authz.Level(req.Level), ID: req.TenantID}
	if err := h.svc.Deactivate(c.Context(), tenant, req.UserID); err != nil {
		return response.Error(c, err)
	}
	return response.Ok(c)
}
