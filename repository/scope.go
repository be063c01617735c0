package repository

import (
	"context"
)

// Scope carries the tenant claims of one request: the active account, the
// active workspace within it (optional), and the acting user. A Scope is
// immutable; it lives exactly as long as the context.Context it rides in,
// so per-request isolation and teardown need no explicit reset.
type Scope struct {
	AccountID   int64
	WorkspaceID *int64
	UserID      int64
}

// HasAccount reports whether an active account is resolved.
func (s Scope) HasAccount() bool {
	return s.AccountID != 0
}

// ActiveWorkspace returns the active workspace id, or 0 when none is set.
func (s Scope) ActiveWorkspace() int64 {
	if s.WorkspaceID == nil {
		return 0
	}
	return *s.WorkspaceID
}

// TenantIgnorable marks models that are system-rooted rather than
// tenant-owned (User, Account itself) and therefore bypass scoping.
type TenantIgnorable interface {
	TenantIgnored() bool
}

// TenantDerived marks models that carry a second, indirect tenant reference
// through a parent row (a team points at its account directly and at a
// workspace that must live in that same account). The repository re-checks
// the agreement on every write, so the two references cannot drift apart no
// matter which caller assembled the model.
type TenantDerived interface {
	// DerivedTenantRef names the parent table, the referencing field
	// (for error reporting), and the referenced id. A zero id means no
	// reference is set.
	DerivedTenantRef() (table, field string, id int64)
}

type scopeCtxKey struct{}

type systemCtxKey struct{}

// WithScope injects the request scope into context.Context.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, s)
}

// ScopeFromContext reads the request scope from context.Context.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	v := ctx.Value(scopeCtxKey{})
	if v == nil {
		return Scope{}, false
	}
	s, ok := v.(Scope)
	return s, ok
}

// WithSystemScope marks a context as deliberately cross-tenant. It is the
// only way to read tenant-owned rows without an active account and exists
// for system jobs (cascade deletion, membership lookups during a tenant
// switch). Request handlers never use it.
func WithSystemScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemCtxKey{}, true)
}

// IsSystemScope reports whether the context opted into cross-tenant access.
func IsSystemScope(ctx context.Context) bool {
	v, _ := ctx.Value(systemCtxKey{}).(bool)
	return v
}
