package tenancy

import (
	"context"

	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/metrics"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * Switcher - 租户切换
 * ========================================================================
 * 职责: 切换活动账户/工作区
 * 设计: 切换本身是受鉴权的敏感操作——目标上没有 active 成员关系
 *       一律 NotFound，拒绝不泄露目标是否存在；成功切换更新用户的
 *       默认工作区并记录恰好一条携带新旧租户 ID 的审计事件
 * ======================================================================== */

// Switcher 租户切换器
type Switcher struct {
	users      repository.Repository[model.User]
	workspaces repository.Repository[model.Workspace]
	accounts   repository.Repository[model.Account]
	authz      *authz.Authorizer
	audit      *audit.Recorder
	log        *logger.Logger
}

// NewSwitcher 创建切换器
func NewSwitcher(db *gorm.DB, az *authz.Authorizer, recorder *audit.Recorder, log *logger.Logger) *Switcher {
	return &Switcher{
		users:      repository.NewRepository[model.User](db),
		workspaces: repository.NewRepository[model.Workspace](db),
		accounts:   repository.NewRepository[model.Account](db),
		authz:      az,
		audit:      recorder,
		log:        log.Named("tenancy.switch"),
	}
}

// SwitchAccount 切换活动账户
// 返回切换后的新作用域；默认工作区被清空，由后续 SwitchWorkspace 设置
func (s *Switcher) SwitchAccount(ctx context.Context, accountID int64) (repository.Scope, error) {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || scope.UserID == 0 {
		return repository.Scope{}, errors.ErrUnauthenticated
	}

	authorized, err := s.authz.Authorized(ctx, scope.UserID, authz.AccountTenant(accountID), authz.RoleViewer)
	if err != nil {
		return repository.Scope{}, err
	}
	if !authorized {
		metrics.TenantSwitchTotal.WithLabelValues("account", "denied").Inc()
		// 无成员关系与目标不存在不可区分
		return repository.Scope{}, errors.ErrNotFound
	}

	if err := s.users.UpdateByID(ctx, scope.UserID, map[string]any{"current_workspace_id": nil}); err != nil {
		return repository.Scope{}, err
	}

	newScope := repository.Scope{AccountID: accountID, UserID: scope.UserID}

	s.audit.Record(ctx, audit.Entry{
		Action:      "account.switched",
		SubjectKind: audit.SubjectAccount,
		SubjectID:   accountID,
		AccountID:   accountID,
		Metadata: database.JSONB{
			"from_account_id": scope.AccountID,
			"to_account_id":   accountID,
		},
	})
	metrics.TenantSwitchTotal.WithLabelValues("account", "ok").Inc()

	s.log.Info("account switched",
		zap.Int64("user_id", scope.UserID),
		zap.Int64("from", scope.AccountID),
		zap.Int64("to", accountID),
	)
	return newScope, nil
}

// SwitchWorkspace 切换活动工作区
// 目标工作区必须属于某个用户可见的账户且用户在其上有 active 成员关系
func (s *Switcher) SwitchWorkspace(ctx context.Context, workspaceID int64) (repository.Scope, error) {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || scope.UserID == 0 {
		return repository.Scope{}, errors.ErrUnauthenticated
	}

	authorized, err := s.authz.Authorized(ctx, scope.UserID, authz.WorkspaceTenant(workspaceID), authz.RoleViewer)
	if err != nil {
		return repository.Scope{}, err
	}
	if !authorized {
		metrics.TenantSwitchTotal.WithLabelValues("workspace", "denied").Inc()
		return repository.Scope{}, errors.ErrNotFound
	}

	// 成员关系已确认，按系统作用域取工作区归属
	workspace, err := s.workspaces.FindByID(repository.WithSystemScope(ctx), workspaceID)
	if err != nil {
		return repository.Scope{}, err
	}

	var previous *int64
	if user, err := s.users.FindByID(ctx, scope.UserID); err == nil {
		previous = user.CurrentWorkspaceID
	}

	if err := s.users.UpdateByID(ctx, scope.UserID, map[string]any{"current_workspace_id": workspaceID}); err != nil {
		return repository.Scope{}, err
	}

	newScope := repository.Scope{
		AccountID:   workspace.AccountID,
		WorkspaceID: &workspace.ID,
		UserID:      scope.UserID,
	}

	meta := database.JSONB{"to_workspace_id": workspaceID}
	if previous != nil {
		meta["from_workspace_id"] = *previous
	}
	s.audit.Record(ctx, audit.Entry{
		Action:      "workspace.switched",
		SubjectKind: audit.SubjectWorkspace,
		SubjectID:   workspaceID,
		AccountID:   workspace.AccountID,
		WorkspaceID: &workspace.ID,
		Metadata:    meta,
	})
	metrics.TenantSwitchTotal.WithLabelValues("workspace", "ok").Inc()

	s.log.Info("workspace switched",
		zap.Int64("user_id", scope.UserID),
		zap.Int64("workspace_id", workspaceID),
	)
	return newScope, nil
}
