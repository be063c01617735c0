package handler

import (
	"github.com/worklane/worklane/response"
	"github.com/worklane/worklane/tenancy"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Team Handler - 团队 HTTP 接口
 * ======================================================================== */

// TeamHandler 团队接口
type TeamHandler struct {
	svc      *tenancy.TeamService
	validate *validator.Validator
}

// NewTeamHandler 创建团队接口
func NewTeamHandler(svc *tenancy.TeamService, v *validator.Validator) *TeamHandler {
	return &TeamHandler{svc: svc, validate: v}
}

// Register 注册路由
func (h *TeamHandler) Register(r fiber.Router) {
	r.Get("/teams", h.list)
	r.Post("/teams", h.create)
	r.Get("/teams/:id", h.get)
	r.Post("/teams/:id/archive", h.archive)
}

func (h *TeamHandler) list(c fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := h.svc.List(c.Context(), page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Page(c, result)
}

func (h *TeamHandler) create(c fiber.Ctx) error {
	var req tenancy.CreateTeamInput
	if err := bindBody(c, h.validate, &req); err != nil {
		return response.Error(c, err)
	}
	team, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, team)
}

func (h *TeamHandler) get(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	team, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OkWithData(c, team)
}

func (h *TeamHandler) archive(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.svc.Archive(c.Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Ok(c)
}
