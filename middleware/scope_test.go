package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/worklane/worklane/authz"
	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/model"
	"github.com/worklane/worklane/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newScopeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Workspace{},
		&model.AccountMembership{},
		&model.WorkspaceMembership{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedScopeFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now()
	rows := []any{
		&model.User{BaseModel: repository.BaseModel{ID: 101}, Email: "a@example.com", Name: "a"},
		&model.Workspace{BaseModel: repository.BaseModel{ID: 42}, AccountID: 7, Name: "Core", Slug: "core"},
		&model.Workspace{BaseModel: repository.BaseModel{ID: 43}, AccountID: 8, Name: "Other", Slug: "other"},
		&model.AccountMembership{AccountID: 7, UserID: 101, Role: string(authz.RoleMember),
			Status: model.MembershipStatusActive, AcceptedAt: &now},
		&model.WorkspaceMembership{AccountID: 7, WorkspaceID: 42, UserID: 101, Role: string(authz.RoleMember),
			Status: model.MembershipStatusActive, AcceptedAt: &now},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func newTestResolver(t *testing.T) (*ScopeResolver, *gorm.DB) {
	t.Helper()
	db := newScopeTestDB(t)
	seedScopeFixtures(t, db)
	return NewScopeResolver(db, authz.NewAuthorizer(db, logger.NewNop()), logger.NewNop()), db
}

func TestScopeResolvesAccountAndWorkspace(t *testing.T) {
	resolver, _ := newTestResolver(t)

	scope := resolver.resolve(context.Background(), &UserClaims{UserID: 101, AccountID: 7, WorkspaceID: 42})
	if scope.AccountID != 7 || scope.UserID != 101 {
		t.Fatalf("unexpected scope: %+v", scope)
	}
	if scope.ActiveWorkspace() != 42 {
		t.Fatalf("workspace should resolve, got %+v", scope)
	}
}

func TestScopeDropsAccountWithoutMembership(t *testing.T) {
	resolver, _ := newTestResolver(t)

	scope := resolver.resolve(context.Background(), &UserClaims{UserID: 101, AccountID: 999})
	if scope.HasAccount() {
		t.Fatalf("non-member must not gain an account dimension: %+v", scope)
	}
	if scope.UserID != 101 {
		t.Fatalf("user id must survive: %+v", scope)
	}
}

func TestScopeDropsForeignWorkspace(t *testing.T) {
	resolver, _ := newTestResolver(t)

	// Workspace 43 belongs to account 8; claiming it under account 7 must
	// only strip the workspace dimension, never grant it.
	scope := resolver.resolve(context.Background(), &UserClaims{UserID: 101, AccountID: 7, WorkspaceID: 43})
	if scope.AccountID != 7 {
		t.Fatalf("account dimension should still resolve: %+v", scope)
	}
	if scope.WorkspaceID != nil {
		t.Fatalf("foreign workspace must not resolve: %+v", scope)
	}
}

func TestScopeFallsBackToLastActiveWorkspace(t *testing.T) {
	resolver, db := newTestResolver(t)
	wsID := int64(42)
	if err := db.Model(&model.User{}).Where("id = ?", 101).
		Update("current_workspace_id", wsID).Error; err != nil {
		t.Fatalf("set current workspace: %v", err)
	}

	scope := resolver.resolve(context.Background(), &UserClaims{UserID: 101, AccountID: 7})
	if scope.ActiveWorkspace() != 42 {
		t.Fatalf("expected fallback to last active workspace: %+v", scope)
	}
}

func TestScopeWithoutWorkspaceMembership(t *testing.T) {
	resolver, db := newTestResolver(t)
	if err := db.Where("workspace_id = ?", 42).
		Delete(&model.WorkspaceMembership{}).Error; err != nil {
		t.Fatalf("drop workspace membership: %v", err)
	}

	scope := resolver.resolve(context.Background(), &UserClaims{UserID: 101, AccountID: 7, WorkspaceID: 42})
	if scope.AccountID != 7 || scope.WorkspaceID != nil {
		t.Fatalf("workspace without membership must not resolve: %+v", scope)
	}
}
