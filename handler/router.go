package handler

import (
	"strings"

	"github.com/worklane/worklane/metrics"
	"github.com/worklane/worklane/middleware"
	transporthttp "github.com/worklane/worklane/transport/http"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Router - 路由装配
 * ========================================================================
 * 中间件链: recover(服务器层) → request id → HTTP 指标 → 限流
 *           → 网关头部验证 → 租户上下文解析 → 业务路由
 * 管理面 /admin 走 Admin Key 认证, 授予系统范围;
 * 前缀独立于 /v1, 避免网关头部验证对管理请求生效
 * ======================================================================== */

// NewRouter 返回路由注册函数
func NewRouter(
	verifier *middleware.AuthHeaderVerifier,
	scope *middleware.ScopeResolver,
	adminAuth *middleware.AdminKeyAuth,
	accounts *AccountHandler,
	workspaces *WorkspaceHandler,
	teams *TeamHandler,
	memberships *MembershipHandler,
	switches *SwitchHandler,
	audits *AuditHandler,
) transporthttp.RouteRegistrar {
	return func(app *fiber.App) {
		app.Use(middleware.RequestID())
		app.Use(metrics.HTTPMetricsMiddleware(&metrics.HTTPMiddlewareConfig{
			Skipper: func(c fiber.Ctx) bool {
				// 探针和指标端点不计入业务指标
				path := c.Path()
				return path == "/healthz" || path == "/readyz" || strings.HasPrefix(path, "/metrics")
			},
		}))
		app.Use(middleware.RateLimitMiddleware())

		// 管理面: Admin Key 认证, 系统范围, 不走网关头部
		admin := app.Group("/admin", adminAuth.Authenticate())
		accounts.RegisterAdmin(admin)

		v1 := app.Group("/v1", verifier.Authenticate(), scope.Resolve())
		accounts.Register(v1)
		workspaces.Register(v1)
		teams.Register(v1)
		memberships.Register(v1)
		switches.Register(v1)
		audits.Register(v1)
	}
}
