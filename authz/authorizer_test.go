package authz

import (
	"context"
	"testing"
	"time"

	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRoleOrder(t *testing.T) {
	if !RoleOwner.AtLeast(RoleAdmin) || !RoleAdmin.AtLeast(RoleMember) || !RoleMember.AtLeast(RoleViewer) {
		t.Fatalf("role order broken")
	}
	if RoleViewer.AtLeast(RoleMember) {
		t.Fatalf("viewer should not cover member")
	}
	if !RoleMember.AtLeast(RoleMember) {
		t.Fatalf("role should cover itself")
	}
	if Role("superuser").AtLeast(RoleViewer) {
		t.Fatalf("unknown role must never be sufficient")
	}
	if RoleOwner.AtLeast(Role("superuser")) {
		t.Fatalf("unknown requirement must never be satisfied")
	}
}

func newAuthzTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.AccountMembership{},
		&model.WorkspaceMembership{},
		&model.TeamMembership{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedMembership(t *testing.T, db *gorm.DB, m any) {
	t.Helper()
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func TestAuthorizedActiveMembership(t *testing.T) {
	db := newAuthzTestDB(t)
	now := time.Now()
	seedMembership(t, db, &model.AccountMembership{
		AccountID: 1, UserID: 10, Role: string(RoleAdmin),
		Status: model.MembershipStatusActive, AcceptedAt: &now,
	})

	a := NewAuthorizer(db, logger.NewNop())
	ctx := context.Background()

	ok, err := a.Authorized(ctx, 10, AccountTenant(1), RoleMember)
	if err != nil || !ok {
		t.Fatalf("admin should cover member: ok=%v err=%v", ok, err)
	}
	ok, err = a.Authorized(ctx, 10, AccountTenant(1), RoleOwner)
	if err != nil || ok {
		t.Fatalf("admin must not cover owner: ok=%v err=%v", ok, err)
	}
}

func TestAuthorizedMissingMembership(t *testing.T) {
	a := NewAuthorizer(newAuthzTestDB(t), logger.NewNop())

	ok, err := a.Authorized(context.Background(), 10, AccountTenant(1), RoleViewer)
	if err != nil {
		t.Fatalf("missing membership must not error: %v", err)
	}
	if ok {
		t.Fatalf("missing membership authorized")
	}
}

func TestAuthorizedInactiveStatuses(t *testing.T) {
	db := newAuthzTestDB(t)
	seedMembership(t, db, &model.AccountMembership{
		AccountID: 1, UserID: 10, Role: string(RoleOwner),
		Status: model.MembershipStatusInvited,
	})
	seedMembership(t, db, &model.AccountMembership{
		AccountID: 2, UserID: 10, Role: string(RoleOwner),
		Status: model.MembershipStatusDeactivated,
	})

	a := NewAuthorizer(db, logger.NewNop())
	for _, accountID := range []int64{1, 2} {
		ok, err := a.Authorized(context.Background(), 10, AccountTenant(accountID), RoleViewer)
		if err != nil {
			t.Fatalf("account %d: %v", accountID, err)
		}
		if ok {
			t.Fatalf("non-active membership on account %d authorized", accountID)
		}
	}
}

func TestLevelsAreIndependent(t *testing.T) {
	db := newAuthzTestDB(t)
	seedMembership(t, db, &model.AccountMembership{
		AccountID: 1, UserID: 10, Role: string(RoleOwner),
		Status: model.MembershipStatusActive,
	})

	a := NewAuthorizer(db, logger.NewNop())

	// 账户 owner 不自动获得工作区/团队权限
	ok, err := a.Authorized(context.Background(), 10, WorkspaceTenant(5), RoleViewer)
	if err != nil || ok {
		t.Fatalf("account role must not cascade to workspace: ok=%v err=%v", ok, err)
	}
	ok, err = a.Authorized(context.Background(), 10, TeamTenant(8), RoleViewer)
	if err != nil || ok {
		t.Fatalf("account role must not cascade to team: ok=%v err=%v", ok, err)
	}
}

func TestAuthorizedIgnoresActiveScope(t *testing.T) {
	db := newAuthzTestDB(t)
	seedMembership(t, db, &model.AccountMembership{
		AccountID: 2, UserID: 10, Role: string(RoleMember),
		Status: model.MembershipStatusActive,
	})

	a := NewAuthorizer(db, logger.NewNop())

	// 当前活动租户是 1，鉴权目标是 2：切换场景必须能查到目标成员关系
	ctx := repository.WithScope(context.Background(), repository.Scope{AccountID: 1, UserID: 10})
	ok, err := a.Authorized(ctx, 10, AccountTenant(2), RoleMember)
	if err != nil || !ok {
		t.Fatalf("membership lookup must not be narrowed by the active scope: ok=%v err=%v", ok, err)
	}
}

func TestRequireDenied(t *testing.T) {
	a := NewAuthorizer(newAuthzTestDB(t), logger.NewNop())

	err := a.Require(context.Background(), 10, AccountTenant(1), RoleViewer)
	if !errors.Is(err, errors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
