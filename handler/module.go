package handler

import (
	"github.com/worklane/worklane/middleware"
	transporthttp "github.com/worklane/worklane/transport/http"
	"github.com/worklane/worklane/validator"

	"go.uber.org/fx"
)

/* ========================================================================
 * Handler Module
 * ========================================================================
 * 职责: 装配 HTTP 接口层 (校验器, 各 handler, 中间件, 路由)
 * ======================================================================== */

// Module 接口层模块
var Module = fx.Module("handler",
	fx.Provide(
		validator.New,
		middleware.NewErrorHandler,
		middleware.NewAuthHeaderVerifier,
		middleware.NewScopeResolver,
		middleware.NewAdminKeyAuth,
		NewAccountHandler,
		NewWorkspaceHandler,
		NewTeamHandler,
		NewMembershipHandler,
		NewSwitchHandler,
		NewAuditHandler,
		transporthttp.AsRoute(NewRouter),
	),
)
