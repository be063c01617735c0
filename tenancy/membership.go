package tenancy

import (
	"context"
	"time"

	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"gorm.io/gorm"
)

/* ========================================================================
 * MembershipService - 成员关系管理
 * ========================================================================
 * 职责: 三个层级上的邀请、接受、角色变更、停用
 * 设计: 每个变更都要求操作者在目标层级具备 admin（涉及 owner 时要求
 *       owner）；成员表的读写经系统作用域——被邀请者此刻往往还
 *       不在目标租户里
 * ======================================================================== */

// MembershipService 成员服务
type MembershipService struct {
	accountMembers   repository.Repository[model.AccountMembership]
	workspaceMembers repository.Repository[model.WorkspaceMembership]
	teamMembers      repository.Repository[model.TeamMembership]
	workspaces       repository.Repository[model.Workspace]
	teams            repository.Repository[model.Team]
	users            repository.Repository[model.User]
	authz            *authz.Authorizer
	audit            *audit.Recorder
	log              *logger.Logger
}

// NewMembershipService 创建成员服务
func NewMembershipService(db *gorm.DB, az *authz.Authorizer, recorder *audit.Recorder, log *logger.Logger) *MembershipService {
	return &MembershipService{
		accountMembers:   repository.NewRepository[model.AccountMembership](db),
		workspaceMembers: repository.NewRepository[model.WorkspaceMembership](db),
		teamMembers:      repository.NewRepository[model.TeamMembership](db),
		workspaces:       repository.NewRepository[model.Workspace](db),
		teams:            repository.NewRepository[model.Team](db),
		users:            repository.NewRepository[model.User](db),
		authz:            az,
		audit:            recorder,
		log:              log.Named("tenancy.membership"),
	}
}

// Invite 邀请用户加入目标租户，状态为 invited
func (s *MembershipService) Invite(ctx context.Context, tenant authz.Tenant, userID int64, role authz.Role) error {
	if !role.Valid() {
		return errors.Validation(errors.NewFieldErrors().Add("role", "unknown role"))
	}

	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || scope.UserID == 0 {
		return errors.ErrUnauthenticated
	}

	required := authz.RoleAdmin
	if role == authz.RoleOwner {
		// 授出 owner 需要 owner
		required = authz.RoleOwner
	}
	if err := s.authz.Require(ctx, scope.UserID, tenant, required); err != nil {
		return err
	}

	sysCtx := repository.WithSystemScope(ctx)
	if _, err := s.users.FindByID(sysCtx, userID); err != nil {
		if errors.IsNotFound(err) {
			return errors.Validation(errors.NewFieldErrors().Add("user_id", "unknown user"))
		}
		return err
	}

	accountID, err := s.tenantAccount(sysCtx, tenant)
	if err != nil {
		return err
	}

	memberCtx := repository.WithScope(ctx, repository.Scope{AccountID: accountID, UserID: scope.UserID})
	if err := s.createMembership(memberCtx, tenant, accountID, userID, role, scope.UserID); err != nil {
		if errors.IsConflict(err) {
			return errors.Wrap(errors.ErrCodeAlreadyExists, "user is already a member", err)
		}
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "membership.invited",
		SubjectKind: audit.SubjectMembership,
		SubjectID:   userID,
		AccountID:   accountID,
		Metadata: database.JSONB{
			"level":     string(tenant.Level),
			"tenant_id": tenant.ID,
			"role":      string(role),
		},
	})
	return nil
}

// Accept 接受邀请；只有被邀请者本人可以接受
func (s *MembershipService) Accept(ctx context.Context, tenant authz.Tenant) error {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || scope.UserID == 0 {
		return errors.ErrUnauthenticated
	}

	return s.transition(ctx, tenant, scope.UserID, func(status model.MembershipStatus) (map[string]any, error) {
		if status != model.MembershipStatusInvited {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "membership is not pending", nil)
		}
		return map[string]any{
			"status":      string(model.MembershipStatusActive),
			"accepted_at": time.Now(),
		}, nil
	}, "membership.accepted")
}

// ChangeRole 变更成员角色
func (s *MembershipService) ChangeRole(ctx context.Context, tenant authz.Tenant, userID int64, role authz.Role) error {
	if !role.Valid() {
		return errors.Validation(errors.NewFieldErrors().Add("role", "unknown role"))
	}

	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || scope.UserID == 0 {
		return errors.ErrUnauthenticated
	}

	required := authz.RoleAdmin
	if role == authz.RoleOwner {
		required = authz.RoleOwner
	}
	if err := s.authz.Require(ctx, scope.UserID, tenant, required); err != nil {
		return err
	}

	return s.transition(ctx, tenant, userID, func(current model.MembershipStatus) (map[string]any, error) {
		return map[string]any{"role": string(role)}, nil
	}, "membership.role_changed")
}

// Deactivate 停用成员
func (s *MembershipService) Deactivate(ctx context.Context, tenant authz.Tenant, userID int64) error {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || scope.UserID == 0 {
		return errors.ErrUnauthenticated
	}

	// 本人退出不需要 admin
	if userID != scope.UserID {
		if err := s.authz.Require(ctx, scope.UserID, tenant, authz.RoleAdmin); err != nil {
			return err
		}
	}

	return s.transition(ctx, tenant, userID, func(current model.MembershipStatus) (map[string]any, error) {
		if current == model.MembershipStatusDeactivated {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "membership is already deactivated", nil)
		}
		return map[string]any{"status": string(model.MembershipStatusDeactivated)}, nil
	}, "membership.deactivated")
}

/* ========================================================================
 * 内部辅助
 * ======================================================================== */

// tenantAccount 解析目标租户所属的账户
func (s *MembershipService) tenantAccount(sysCtx context.Context, tenant authz.Tenant) (int64, error) {
	switch tenant.Level {
	case authz.LevelAccount:
		return tenant.ID, nil
	case authz.LevelWorkspace:
		ws, err := s.workspaces.FindByID(sysCtx, tenant.ID)
		if err != nil {
			return 0, err
		}
		return ws.AccountID, nil
	case authz.LevelTeam:
		team, err := s.teams.FindByID(sysCtx, tenant.ID)
		if err != nil {
			return 0, err
		}
		return team.AccountID, nil
	default:
		return 0, errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "unknown tenant level %q", tenant.Level)
	}
}

func (s *MembershipService) createMembership(ctx context.Context, tenant authz.Tenant, accountID, userID int64, role authz.Role, invitedBy int64) error {
	switch tenant.Level {
	case authz.LevelAccount:
		return s.accountMembers.Create(ctx, &model.AccountMembership{
			AccountID: accountID,
			UserID:    userID,
			Role:      string(role),
			Status:    model.MembershipStatusInvited,
			InvitedBy: invitedBy,
		})
	case authz.LevelWorkspace:
		return s.workspaceMembers.Create(ctx, &model.WorkspaceMembership{
			AccountID:   accountID,
			WorkspaceID: tenant.ID,
			UserID:      userID,
			Role:        string(role),
			Status:      model.MembershipStatusInvited,
			InvitedBy:   invitedBy,
		})
	case authz.LevelTeam:
		return s.teamMembers.Create(ctx, &model.TeamMembership{
			AccountID: accountID,
			TeamID:    tenant.ID,
			UserID:    userID,
			Role:      string(role),
			Status:    model.MembershipStatusInvited,
			InvitedBy: invitedBy,
		})
	default:
		return errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "unknown tenant level %q", tenant.Level)
	}
}

// transition 定位成员行，按当前状态计算更新并落库
func (s *MembershipService) transition(ctx context.Context, tenant authz.Tenant, userID int64, apply func(model.MembershipStatus) (map[string]any, error), action string) error {
	sysCtx := repository.WithSystemScope(ctx)

	var (
		id        int64
		accountID int64
		status    model.MembershipStatus
	)
	switch tenant.Level {
	case authz.LevelAccount:
		m, err := s.accountMembers.FindOne(sysCtx, "account_id = ? AND user_id = ?", tenant.ID, userID)
		if err != nil {
			return err
		}
		id, accountID, status = m.ID, m.AccountID, m.Status
	case authz.LevelWorkspace:
		m, err := s.workspaceMembers.FindOne(sysCtx, "workspace_id = ? AND user_id = ?", tenant.ID, userID)
		if err != nil {
			return err
		}
		id, accountID, status = m.ID, m.AccountID, m.Status
	case authz.LevelTeam:
		m, err := s.teamMembers.FindOne(sysCtx, "team_id = ? AND user_id = ?", tenant.ID, userID)
		if err != nil {
			return err
		}
		id, accountID, status = m.ID, m.AccountID, m.Status
	default:
		return errors.Wrapf(errors.ErrCodeInvalidArgument, nil, "unknown tenant level %q", tenant.Level)
	}

	updates, err := apply(status)
	if err != nil {
		return err
	}

	switch tenant.Level {
	case authz.LevelAccount:
		err = s.accountMembers.UpdateByID(sysCtx, id, updates)
	case authz.LevelWorkspace:
		err = s.workspaceMembers.UpdateByID(sysCtx, id, updates)
	case authz.LevelTeam:
		err = s.teamMembers.UpdateByID(sysCtx, id, updates)
	}
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      action,
		SubjectKind: audit.SubjectMembership,
		SubjectID:   userID,
		AccountID:   accountID,
		Metadata: database.JSONB{
			"level":     string(tenant.Level),
			"tenant_id": tenant.ID,
		},
	})
	return nil
}
