package tenancy

import (
	"context"
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
 * AccountService - 账户服务
 * ========================================================================
 * 职责: 账户的创建与生命周期管理
 * 设计: 创建在系统作用域下进行（此时还没有活动租户），一个事务内
 *       完成账户 + 创建者 owner 成员关系；slug 冲突时重新生成重试
 * ======================================================================== */

// slugConflictRetries 唯一索引冲突后的重建次数上限
const slugConflictRetries = 3

// CreateAccountInput 创建账户入参
type CreateAccountInput struct {
	Name         string `json:"name" validate:"required,min=1,max=255"`
	OwnerID      int64  `json:"owner_id" validate:"required"`
	Plan         string `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
	BillingEmail string `json:"billing_email" validate:"omitempty,email"`
	TrialDays    int    `json:"trial_days" validate:"omitempty,min=0,max=365"`
}

// AccountService 账户服务
type AccountService struct {
	accounts repository.Repository[model.Account]
	members  repository.Repository[model.AccountMembership]
	users    repository.Repository[model.User]
	slugs    *slug.Assigner
	authz    *authz.Authorizer
	audit    *audit.Recorder
	log      *logger.Logger
}

// NewAccountService 创建账户服务
func NewAccountService(db *gorm.DB, slugs *slug.Assigner, az *authz.Authorizer, recorder *audit.Recorder, log *logger.Logger) *AccountService {
	return &AccountService{
		accounts: repository.NewRepository[model.Account](db),
		members:  repository.NewRepository[model.AccountMembership](db),
		users:    repository.NewRepository[model.User](db),
		slugs:    slugs,
		authz:    az,
		audit:    recorder,
		log:      log.Named("tenancy.account"),
	}
}

// Create 创建账户
// 创建者自动成为 owner 成员；slug 全局唯一，冲突时换名重试
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*model.Account, error) {
	if in.Name == "" || in.OwnerID == 0 {
		fields := errors.NewFieldErrors()
		if in.Name == "" {
			fields.Add("name", "is required")
		}
		if in.OwnerID == 0 {
			fields.Add("owner_id", "is required")
		}
		return nil, errors.Validation(fields)
	}

	sysCtx := repository.WithSystemScope(ctx)

	// 创建者必须是已存在的用户
	if _, err := s.users.FindByID(sysCtx, in.OwnerID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Validation(errors.NewFieldErrors().Add("owner_id", "unknown user"))
		}
		return nil, err
	}

	plan := in.Plan
	if plan == "" {
		plan = "free"
	}

	var account *model.Account
	for attempt := 0; ; attempt++ {
		assigned, err := s.slugs.Assign(sysCtx, in.Name, "account", func(probeCtx context.Context, candidate string) (bool, error) {
			return s.accounts.Exists(probeCtx, "slug = ?", candidate)
		})
		if err != nil {
			return nil, err
		}

		account = &model.Account{
			Name:         in.Name,
			Slug:         assigned,
			Plan:         plan,
			Status:       model.AccountStatusTrialing,
			OwnerID:      in.OwnerID,
			BillingEmail: in.BillingEmail,
		}
		if in.TrialDays > 0 {
			ends := time.Now().AddDate(0, 0, in.TrialDays)
			account.TrialEndsAt = &ends
		}

		err = s.accounts.Execute(sysCtx, func(txCtx context.Context) error {
			if err := s.accounts.Create(txCtx, account); err != nil {
				return err
			}

			now := time.Now()
			memberCtx := repository.WithScope(txCtx, repository.Scope{
				AccountID: account.ID,
				UserID:    in.OwnerID,
			})
			return s.members.Create(memberCtx, &model.AccountMembership{
				AccountID:  account.ID,
				UserID:     in.OwnerID,
				Role:       string(authz.RoleOwner),
				Status:     model.MembershipStatusActive,
				AcceptedAt: &now,
			})
		})
		if err == nil {
			break
		}
		if errors.IsConflict(err) && attempt < slugConflictRetries {
			metrics.SlugConflictRetryTotal.WithLabelValues("account").Inc()
			continue
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "account.created",
		SubjectKind: audit.SubjectAccount,
		SubjectID:   account.ID,
		AccountID:   account.ID,
		UserID:      in.OwnerID,
		Metadata:    database.JSONB{"slug": account.Slug, "plan": account.Plan},
	})

	s.log.Info("account created",
		zap.Int64("account_id", account.ID),
		zap.String("slug", account.Slug),
	)
	return account, nil
}

// Current 当前作用域的账户
func (s *AccountService) Current(ctx context.Context) (*model.Account, error) {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return nil, errors.ErrUnauthenticated
	}
	return s.accounts.FindByID(ctx, scope.AccountID)
}

// List 列出全部账户，仅供系统作用域（运维面）使用
func (s *AccountService) List(ctx context.Context, page, pageSize int) (*repository.PageResult[model.Account], error) {
	if !repository.IsSystemScope(ctx) {
		return nil, errors.ErrPermissionDenied
	}
	return s.accounts.FindPage(ctx, page, pageSize, "")
}

// UpdateStatus 账户状态流转，要求账户 owner
func (s *AccountService) UpdateStatus(ctx context.Context, status model.AccountStatus) (*model.Account, error) {
	if !status.Valid() {
		return nil, errors.Validation(errors.NewFieldErrors().Add("status", "unknown status"))
	}

	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return nil, errors.ErrUnauthenticated
	}
	if err := s.authz.Require(ctx, scope.UserID, authz.AccountTenant(scope.AccountID), authz.RoleOwner); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, scope.AccountID)
	if err != nil {
		return nil, err
	}
	previous := account.Status

	updates := map[string]any{"status": string(status)}
	if status == model.AccountStatusActive && account.SubscribedAt == nil {
		updates["subscribed_at"] = time.Now()
	}
	if err := s.accounts.UpdateByID(ctx, account.ID, updates); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "account.status_changed",
		SubjectKind: audit.SubjectAccount,
		SubjectID:   account.ID,
		Metadata:    database.JSONB{"from": string(previous), "to": string(status)},
	})

	return s.accounts.FindByID(ctx, account.ID)
}

// UpdateSettings 更新账户设置，要求账户 admin
func (s *AccountService) UpdateSettings(ctx context.Context, settings database.JSONB) (*model.Account, error) {
	scope, ok := repository.ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return nil, errors.ErrUnauthenticated
	}
	if err := s.authz.Require(ctx, scope.UserID, authz.AccountTenant(scope.AccountID), authz.RoleAdmin); err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateByID(ctx, scope.AccountID, map[string]any{"settings": settings}); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "account.settings_updated",
		SubjectKind: audit.SubjectAccount,
		SubjectID:   scope.AccountID,
	})

	return s.accounts.FindByID(ctx, scope.AccountID)
}
