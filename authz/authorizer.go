package authz

import (
	"context"

	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/metrics"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * Authorizer - 成员鉴权
 * ========================================================================
 * 职责: 回答"用户 X 对租户 T 是否至少具有角色 R"
 * 设计: 三个层级（账户/工作区/团队）各自独立查成员表，互不继承；
 *       成员表查询走系统作用域——切换场景下目标租户还不是
 *       当前活动租户，常规作用域查不到目标成员关系
 * ======================================================================== */

// Level 租户层级
type Level string

const (
	LevelAccount   Level = "account"
	LevelWorkspace Level = "workspace"
	LevelTeam      Level = "team"
)

// Tenant 鉴权目标：层级 + 该层级实体的 ID
type Tenant struct {
	Level Level
	ID    int64
}

// AccountTenant 账户层级目标
func AccountTenant(id int64) Tenant { return Tenant{Level: LevelAccount, ID: id} }

// WorkspaceTenant 工作区层级目标
func WorkspaceTenant(id int64) Tenant { return Tenant{Level: LevelWorkspace, ID: id} }

// TeamTenant 团队层级目标
func TeamTenant(id int64) Tenant { return Tenant{Level: LevelTeam, ID: id} }

// Authorizer 成员鉴权器
type Authorizer struct {
	accountMembers   repository.Repository[model.AccountMembership]
	workspaceMembers repository.Repository[model.WorkspaceMembership]
	teamMembers      repository.Repository[model.TeamMembership]
	log              *logger.Logger
}

// NewAuthorizer 创建鉴权器
func NewAuthorizer(db *gorm.DB, log *logger.Logger) *Authorizer {
	return &Authorizer{
		accountMembers:   repository.NewRepository[model.AccountMembership](db),
		workspaceMembers: repository.NewRepository[model.WorkspaceMembership](db),
		teamMembers:      repository.NewRepository[model.TeamMembership](db),
		log:              log.Named("authz"),
	}
}

// Authorized 用户对目标租户是否至少具有 required 角色
// 找不到成员关系、成员非 active、角色不足都返回 false；
// 只有基础设施故障才返回非空 error
func (a *Authorizer) Authorized(ctx context.Context, userID int64, tenant Tenant, required Role) (bool, error) {
	if userID == 0 || tenant.ID == 0 || !required.Valid() {
		return false, nil
	}

	role, status, err := a.membership(ctx, userID, tenant)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if status != model.MembershipStatusActive {
		return false, nil
	}
	return role.AtLeast(required), nil
}

// Require Authorized 的断言形式：不满足时返回 PermissionDenied
// 拒绝会计入指标；错误信息不包含目标租户是否存在的任何线索
func (a *Authorizer) Require(ctx context.Context, userID int64, tenant Tenant, required Role) error {
	ok, err := a.Authorized(ctx, userID, tenant, required)
	if err != nil {
		return err
	}
	if !ok {
		metrics.AuthzDenialTotal.WithLabelValues(string(tenant.Level), string(required)).Inc()
		a.log.Debug("authorization denied",
			zap.Int64("user_id", userID),
			zap.String("level", string(tenant.Level)),
			zap.String("required", string(required)),
		)
		return errors.ErrPermissionDenied
	}
	return nil
}

// membership 查目标租户上的成员关系（系统作用域）
func (a *Authorizer) membership(ctx context.Context, userID int64, tenant Tenant) (Role, model.MembershipStatus, error) {
	sysCtx := repository.WithSystemScope(ctx)

	switch tenant.Level {
	case LevelAccount:
		m, err := a.accountMembers.FindOne(sysCtx, "account_id = ? AND user_id = ?", tenant.ID, userID)
		if err != nil {
			return "", "", err
		}
		return Role(m.Role), m.Status, nil
	case LevelWorkspace:
		m, err := a.workspaceMembers.FindOne(sysCtx, "workspace_id = ? AND user_id = ?", tenant.ID, userID)
		if err != nil {
			return "", "", err
		}
		return Role(m.Role), m.Status, nil
	case LevelTeam:
		m, err := a.teamMembers.FindOne(sysCtx, "team_id = ? AND user_id = ?", tenant.ID, userID)
		if err != nil {
			return "", "", err
		}
		return Role(m.Role), m.Status, nil
	default:
		return "", "", errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "unknown tenant level %q", tenant.Level)
	}
}
