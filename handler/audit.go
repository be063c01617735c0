package handler

import (
	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/response"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Audit Handler - 审计事件 HTTP 接口 (只读)
 * ======================================================================== */

// AuditHandler 审计事件接口
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler 创建审计事件接口
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// Register 注册路由
func (h *AuditHandler) Register(r fiber.Router) {
	r.Get("/audit-events", h.list)
}

func (h *AuditHandler) list(c fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := h.recorder.List(c.Context(), page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Page(c, result)
}
