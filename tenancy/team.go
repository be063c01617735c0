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
 * TeamService - 团队服务
 * ========================================================================
 * 职责: 工作区内的团队管理
 * 设计: 团队冗余 account_id，创建时必须与所属工作区的账户一致；
 *       工作区通过作用域内查找定位，跨租户的工作区 ID 天然 NotFound
 * ======================================================================== */

// CreateTeamInput 创建团队入参
type CreateTeamInput struct {
	WorkspaceID int64  `json:"workspace_id" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
}

// TeamService 团队服务
type TeamService struct {
	teams      repository.Repository[model.Team]
	workspaces repository.Repository[model.Workspace]
	members    repository.Repository[model.TeamMembership]
	slugs      *slug.Assigner
	authz      *authz.Authorizer
	audit      *audit.Recorder
	log        *logger.Logger
}

// NewTeamService 创建团队服务
func NewTeamService(db *gorm.DB, slugs *slug.Assigner, az *authz.Authorizer, recorder *audit.Recorder, log *logger.Logger) *TeamService {
	return &TeamService{
		teams:      repository.NewRepository[model.Team](db),
		workspaces: repository.NewRepository[model.Workspace](db),
		members:    repository.NewRepository[model.TeamMembership](db),
		slugs:      slugs,
		authz:      az,
		audit:      recorder,
		log:        log.Named("tenancy.team"),
	}
}

// Create 在工作区内创建团队，要求工作区 admin
// 团队的 account_id 取自所属工作区，与活动账户不一致时创建失败
func (s *TeamService) Create(ctx context.Context, in CreateTeamInput) (*model.Team, error) {
	fields := errors.NewFieldErrors()
	if in.Name == "" {
		fields.Add("name", "is required")
	}
	if in.WorkspaceID == 0 {
		fields.Add("workspace_id", "is required")
	}
	if fields.HasErrors() {
		return nil, errors.Validation(fields)
	}

	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return nil, errors.ErrUnauthenticated
	}

	// 作用域内查找：其他账户的工作区在这里就是 NotFound
	accountCtx := repository.WithScope(ctx, repository.Scope{AccountID: scope.AccountID, UserID: scope.UserID})
	workspace, err := s.workspaces.FindByID(accountCtx, in.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(ctx, scope.UserID, authz.WorkspaceTenant(workspace.ID), authz.RoleAdmin); err != nil {
		return nil, err
	}

	lockKey := fmt.Sprintf("team:%d", workspace.AccountID)

	var team *model.Team
	for attempt := 0; ; attempt++ {
		assigned, err := s.slugs.Assign(accountCtx, in.Name, lockKey, func(c context.Context, candidate string) (bool, error) {
			return s.teams.Exists(c, "slug = ?", candidate)
		})
		if err != nil {
			return nil, err
		}

		team = &model.Team{
			AccountID:   workspace.AccountID,
			WorkspaceID: workspace.ID,
			Name:        in.Name,
			Slug:        assigned,
			Status:      model.TeamStatusActive,
		}

		err = s.teams.Execute(accountCtx, func(txCtx context.Context) error {
			if err := s.teams.Create(txCtx, team); err != nil {
				return err
			}

			now := time.Now()
			return s.members.Create(txCtx, &model.TeamMembership{
				TeamID:     team.ID,
				UserID:     scope.UserID,
				Role:       string(authz.RoleOwner),
				Status:     model.MembershipStatusActive,
				AcceptedAt: &now,
			})
		})
		if err == nil {
			break
		}
		if errors.IsConflict(err) && attempt < slugConflictRetries {
			metrics.SlugConflictRetryTotal.WithLabelValues("team").Inc()
			continue
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "team.created",
		SubjectKind: audit.SubjectTeam,
		SubjectID:   team.ID,
		Metadata:    database.JSONB{"slug": team.Slug, "workspace_id": workspace.ID},
	})

	s.log.Info("team created",
		zap.Int64("team_id", team.ID),
		zap.Int64("workspace_id", workspace.ID),
	)
	return team, nil
}

// Get 查询团队；其他账户的 ID 表现为 NotFound
func (s *TeamService) Get(ctx context.Context, id int64) (*model.Team, error) {
	return s.teams.FindByID(ctx, id)
}

// List 列出团队；作用域带工作区维度时自动限定到该工作区
func (s *TeamService) List(ctx context.Context, page, pageSize int) (*repository.PageResult[model.Team], error) {
	return s.teams.FindPage(ctx, page, pageSize, "")
}

// Archive 归档团队，要求团队 admin
func (s *TeamService) Archive(ctx context.Context, id int64) error {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return errors.ErrUnauthenticated
	}

	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Require(ctx, scope.UserID, authz.TeamTenant(team.ID), authz.RoleAdmin); err != nil {
		return err
	}

	if err := s.teams.UpdateByID(ctx, id, map[string]any{"status": string(model.TeamStatusArchived)}); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "team.archived",
		SubjectKind: audit.SubjectTeam,
		SubjectID:   id,
	})
	return nil
}
