package middleware

import (
	"context"

	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * ScopeResolver - 租户上下文解析中间件
 * ========================================================================
 * 职责:
 *   - 将网关验证过的身份声明转换为请求级 repository.Scope
 *   - 账户维度: 仅当用户是目标账户的有效成员时才落入 Scope
 *   - 工作区维度: 声明优先, 其次回退到用户上次激活的工作区;
 *     两者都要求工作区成员关系且工作区属于已解析账户
 *   - 任何一步解析失败只收窄维度, 不返回错误: 空 Scope 让下游
 *     仓储层 fail-closed (读为空, 写拒绝)
 * ======================================================================== */

// ScopeResolver converts verified gateway claims into a request scope.
type ScopeResolver struct {
	authorizer *authz.Authorizer
	users      repository.Repository[model.User]
	workspaces repository.Repository[model.Workspace]
	log        *logger.Logger
}

// NewScopeResolver 创建租户上下文解析中间件
func NewScopeResolver(db *gorm.DB, az *authz.Authorizer, log *logger.Logger) *ScopeResolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScopeResolver{
		authorizer: az,
		users:      repository.NewRepository[model.User](db),
		workspaces: repository.NewRepository[model.Workspace](db),
		log:        log.Named("scope"),
	}
}

// Resolve 返回解析租户上下文的 Fiber 中间件
func (r *ScopeResolver) Resolve() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := ClaimsFromFiber(c)
		if !ok {
			// Unauthenticated request: no scope at all. Every scoped
			// repository call downstream fails closed.
			return c.Next()
		}
		scope := r.resolve(c.Context(), claims)
		c.SetContext(repository.WithScope(c.Context(), scope))
		return c.Next()
	}
}

func (r *ScopeResolver) resolve(ctx context.Context, claims *UserClaims) repository.Scope {
	scope := repository.Scope{UserID: claims.UserID}
	if claims.AccountID == 0 {
		return scope
	}

	ok, err := r.authorizer.Authorized(ctx, claims.UserID, authz.AccountTenant(claims.AccountID), authz.RoleViewer)
	if err != nil {
		r.log.Error("Account membership check failed",
			zap.Int64("user_id", claims.UserID),
			zap.Int64("account_id", claims.AccountID),
			zap.Error(err),
		)
		return scope
	}
	if !ok {
		// Not a member. The dimension stays empty rather than erroring, so
		// the target account's existence is never revealed.
		return scope
	}
	scope.AccountID = claims.AccountID

	workspaceID := claims.WorkspaceID
	if workspaceID == 0 {
		workspaceID = r.lastActiveWorkspace(ctx, claims.UserID)
	}
	if workspaceID == 0 {
		return scope
	}
	if !r.workspaceResolvable(ctx, scope, claims.UserID, workspaceID) {
		return scope
	}
	scope.WorkspaceID = &workspaceID
	return scope
}

// lastActiveWorkspace 读取用户上次激活的工作区, 失败时返回 0
func (r *ScopeResolver) lastActiveWorkspace(ctx context.Context, userID int64) int64 {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil || user.CurrentWorkspaceID == nil {
		return 0
	}
	return *user.CurrentWorkspaceID
}

// workspaceResolvable 要求工作区成员关系, 且工作区属于已解析账户
func (r *ScopeResolver) workspaceResolvable(ctx context.Context, scope repository.Scope, userID, workspaceID int64) bool {
	ok, err := r.authorizer.Authorized(ctx, userID, authz.WorkspaceTenant(workspaceID), authz.RoleViewer)
	if err != nil || !ok {
		return false
	}
	accountCtx := repository.WithScope(ctx, repository.Scope{AccountID: scope.AccountID, UserID: userID})
	if _, err := r.workspaces.FindByID(accountCtx, workspaceID); err != nil {
		return false
	}
	return true
}
