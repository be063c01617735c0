package tenancy

import (
	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/slug"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

/* ========================================================================
 * Tenancy Module
 * ========================================================================
 * 职责: 装配租户域服务（slug 分配、鉴权、审计、各领域服务）
 * ======================================================================== */

type assignerParams struct {
	fx.In
	Locker slug.Locker `optional:"true"`
}

type recorderParams struct {
	fx.In
	DB     *gorm.DB
	Logger *logger.Logger
	Stream audit.Stream `optional:"true"`
}

// Module 租户域模块
var Module = fx.Module("tenancy",
	fx.Provide(
		func(p assignerParams) *slug.Assigner {
			if p.Locker != nil {
				return slug.NewAssigner(slug.WithLocker(p.Locker))
			}
			return slug.NewAssigner()
		},
		authz.NewAuthorizer,
		func(p recorderParams) *audit.Recorder {
			if p.Stream != nil {
				return audit.NewRecorder(p.DB, p.Logger, audit.WithStream(p.Stream))
			}
			return audit.NewRecorder(p.DB, p.Logger)
		},
		NewAccountService,
		NewWorkspaceService,
		NewTeamService,
		NewMembershipService,
		NewSwitcher,
	),
)
