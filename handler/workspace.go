package handler

import (
	"github.com/worklane/worklane/response"
	"github.com/worklane/worklane/tenancy"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Workspace Handler - 工作区 HTTP 接口
 * ======================================================================== */

// WorkspaceHandler 工作区接口
type WorkspaceHandler struct {
	svc      *tenancy.WorkspaceService
	validate *validator.Validator
}

// NewWorkspaceHandler 创建工作区接口
func NewWorkspaceHandler(svc *tenancy.WorkspaceService, v *validator.Validator) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc, validate: v}
}

// Register 注册路由
func (h *WorkspaceHandler) Register(r fiber.Router) {
	r.Get("/workspaces", h.list)
	r.Post("/workspaces", h.create)
	r.Get("/workspaces/:id", h.get)
	r.Patch("/workspaces/:id", h.update)
}

func (h *WorkspaceHandler) list(c fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := h.svc.List(c.Context(), page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Page(c, result)
}

func (h *WorkspaceHandler) create(c fiber.Ctx) error {
	var req tenancy.CreateWorkspaceInput
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	workspace, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, workspace)
}

func (h *WorkspaceHandler) get(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	workspace, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, workspace)
}

func (h *WorkspaceHandler) update(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	var req tenancy.UpdateWorkspaceInput
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	workspace, err := h.svc.Update(c.Context(), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, workspace)
}
