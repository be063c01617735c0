package tenancy

import (
	"context"
	"fmt"
	"time"

	"github.com/worklane/worklane/audit"
	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/metrics"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"
	"github.com/worklane/worklane/slug"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * WorkspaceService - 工作区服务
 * ========================================================================
 * 职责: 活动账户内的工作区管理
 * 设计: 所有读写都走租户隔离仓储，服务层不拼接 account_id 条件；
 *       slug 账户内唯一，创建者自动成为工作区 owner
 * ======================================================================== */

// CreateWorkspaceInput 创建工作区入参
type CreateWorkspaceInput struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"omitempty,max=1024"`
}

// UpdateWorkspaceInput 更新工作区入参
type UpdateWorkspaceInput struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string         `json:"description" validate:"omitempty,max=1024"`
	Status      *string         `json:"status" validate:"omitempty,oneof=active archived"`
	Settings    *database.JSONB `json:"settings"`
}

// WorkspaceService 工作区服务
type WorkspaceService struct {
	workspaces repository.Repository[model.Workspace]
	members    repository.Repository[model.WorkspaceMembership]
	slugs      *slug.Assigner
	authz      *authz.Authorizer
	audit      *audit.Recorder
	log        *logger.Logger
}

// NewWorkspaceService 创建工作区服务
func NewWorkspaceService(db *gorm.DB, slugs *slug.Assigner, az *authz.Authorizer, recorder *audit.Recorder, log *logger.Logger) *WorkspaceService {
	return &WorkspaceService{
		workspaces: repository.NewRepository[model.Workspace](db),
		members:    repository.NewRepository[model.WorkspaceMembership](db),
		slugs:      slugs,
		authz:      az,
		audit:      recorder,
		log:        log.Named("tenancy.workspace"),
	}
}

// Create 在活动账户内创建工作区，要求账户 admin
func (s *WorkspaceService) Create(ctx context.Context, in CreateWorkspaceInput) (*model.Workspace, error) {
	if in.Name == "" {
		return nil, errors.Validation(errors.NewFieldErrors().Add("name", "is required"))
	}

	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return nil, errors.ErrUnauthenticated
	}
	if err := s.authz.Require(ctx, scope.UserID, authz.AccountTenant(scope.AccountID), authz.RoleAdmin); err != nil {
		return nil, err
	}

	// 工作区维度的作用域会把探测误限到单个工作区，这里只按账户探测
	probeCtx := repository.WithScope(ctx, repository.Scope{AccountID: scope.AccountID, UserID: scope.UserID})
	lockKey := fmt.Sprintf("workspace:%d", scope.AccountID)

	var workspace *model.Workspace
	for attempt := 0; ; attempt++ {
		assigned, err := s.slugs.Assign(probeCtx, in.Name, lockKey, func(c context.Context, candidate string) (bool, error) {
			return s.workspaces.Exists(c, "slug = ?", candidate)
		})
		if err != nil {
			return nil, err
		}

		workspace = &model.Workspace{
			Name:        in.Name,
			Slug:        assigned,
			Description: in.Description,
			Status:      model.WorkspaceStatusActive,
		}

		err = s.workspaces.Execute(ctx, func(txCtx context.Context) error {
			if err := s.workspaces.Create(txCtx, workspace); err != nil {
				return err
			}

			now := time.Now()
			return s.members.Create(txCtx, &model.WorkspaceMembership{
				WorkspaceID: workspace.ID,
				UserID:      scope.UserID,
				Role:        string(authz.RoleOwner),
				Status:      model.MembershipStatusActive,
				AcceptedAt:  &now,
			})
		})
		if err == nil {
			break
		}
		if errors.IsConflict(err) && attempt < slugConflictRetries {
			metrics.SlugConflictRetryTotal.WithLabelValues("workspace").Inc()
			continue
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "workspace.created",
		SubjectKind: audit.SubjectWorkspace,
		SubjectID:   workspace.ID,
		Metadata:    database.JSONB{"slug": workspace.Slug},
	})

	s.log.Info("workspace created",
		zap.Int64("workspace_id", workspace.ID),
		zap.String("slug", workspace.Slug),
	)
	return workspace, nil
}

// Get 查询工作区；其他账户的 ID 表现为 NotFound
func (s *WorkspaceService) Get(ctx context.Context, id int64) (*model.Workspace, error) {
	return s.workspaces.FindByID(ctx, id)
}

// List 列出活动账户的工作区
func (s *WorkspaceService) List(ctx context.Context, page, pageSize int) (*repository.PageResult[model.Workspace], error) {
	return s.workspaces.FindPage(ctx, page, pageSize, "")
}

// Update 更新工作区，要求工作区 admin
func (s *WorkspaceService) Update(ctx context.Context, id int64, in UpdateWorkspaceInput) (*model.Workspace, error) {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return nil, errors.ErrUnauthenticated
	}

	// 先做作用域内可见性检查：跨租户的 ID 在鉴权之前就表现为 NotFound
	workspace, err := s.workspaces.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, scope.UserID, authz.WorkspaceTenant(workspace.ID), authz.RoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Settings != nil {
		updates["settings"] = *in.Settings
	}
	if len(updates) == 0 {
		return workspace, nil
	}

	if err := s.workspaces.UpdateByID(ctx, id, updates); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "workspace.updated",
		SubjectKind: audit.SubjectWorkspace,
		SubjectID:   id,
	})

	return s.workspaces.FindByID(ctx, id)
}
