package repository

import (
	"context"
	"reflect"

	"github.com/worklane/worklane/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	accountColumn   = "account_id"
	workspaceColumn = "workspace_id"
)

// emptyResultClause intersects a query with the empty set. It is the
// fail-closed path: a scoped read without an active account must return
// nothing, never all rows, and a point lookup must come back as not found.
const emptyResultClause = "1 = 0"

func (r *RepositoryImpl[T]) applyTenantScope(ctx context.Context, db *gorm.DB) *gorm.DB {
	if r.isTenantIgnored(r.newModelPtr()) {
		return db
	}
	if IsSystemScope(ctx) {
		return db
	}

	scope, ok := ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return db.Where(emptyResultClause)
	}

	_, workspaceField, err := r.tenantFields()
	if err != nil {
		db.AddError(err)
		return db
	}

	db = db.Where(accountColumn+" = ?", scope.AccountID)
	if scope.WorkspaceID != nil && workspaceField != nil {
		db = db.Where(workspaceColumn+" = ?", *scope.WorkspaceID)
	}

	return db
}

func (r *RepositoryImpl[T]) tenantFields() (*schema.Field, *schema.Field, error) {
	sch, err := r.getSchema()
	if err != nil {
		return nil, nil, err
	}
	accountField, ok := sch.FieldsByDBName[accountColumn]
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrCodeInternal, nil,
			"model %s is tenant-scoped but has no %s column", sch.Name, accountColumn)
	}
	workspaceField := sch.FieldsByDBName[workspaceColumn]
	return accountField, workspaceField, nil
}

// setTenantFields stamps the tenant columns on a model about to be created.
// An absent account reference is filled in from the scope; an explicit one
// that disagrees with the scope is a validation failure, never coerced.
func (r *RepositoryImpl[T]) setTenantFields(ctx context.Context, model any) error {
	if r.isTenantIgnored(model) {
		return nil
	}
	if IsSystemScope(ctx) {
		return nil
	}

	scope, ok := ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return errors.ErrUnauthenticated
	}

	accountField, workspaceField, err := r.tenantFields()
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(model)

	current, isZero := accountField.ValueOf(ctx, rv)
	if isZero {
		if err := accountField.Set(ctx, rv, scope.AccountID); err != nil {
			return err
		}
	} else if id, ok := current.(int64); ok && id != scope.AccountID {
		return errors.Validation(errors.NewFieldErrors().
			Add(accountColumn, "does not match the active account"))
	}

	if workspaceField != nil && scope.WorkspaceID != nil {
		if _, isZero := workspaceField.ValueOf(ctx, rv); isZero {
			if err := workspaceField.Set(ctx, rv, *scope.WorkspaceID); err != nil {
				return err
			}
		}
	}

	return nil
}

// ensureTenantUnchanged rejects updates that would move a row to another
// tenant. The stored row is re-read through the scope first, so updating a
// foreign tenant's row already surfaces as not found.
func (r *RepositoryImpl[T]) ensureTenantUnchanged(ctx context.Context, model any) error {
	if r.isTenantIgnored(model) {
		return nil
	}
	if IsSystemScope(ctx) {
		return nil
	}

	scope, ok := ScopeFromContext(ctx)
	if !ok || !scope.HasAccount() {
		return errors.ErrUnauthenticated
	}

	accountField, _, err := r.tenantFields()
	if err != nil {
		return err
	}

	current, isZero := accountField.ValueOf(ctx, reflect.ValueOf(model))
	if isZero {
		// Account reference stripped on update: restore it rather than
		// letting a zero value slip into the row.
		return accountField.Set(ctx, reflect.ValueOf(model), scope.AccountID)
	}
	if id, ok := current.(int64); ok && id != scope.AccountID {
		return errors.Validation(errors.NewFieldErrors().
			Add(accountColumn, "tenant reassignment is not allowed"))
	}
	return nil
}

// checkDerivedTenant verifies that a model's derived tenant reference points
// into the same account as its direct one. It runs on every write, system
// scope included: the agreement is a data invariant, not an access rule, and
// a parent row in a foreign account is reported exactly like an absent one.
func (r *RepositoryImpl[T]) checkDerivedTenant(ctx context.Context, model any) error {
	derived, ok := asTenantDerived(model)
	if !ok {
		return nil
	}
	table, field, refID := derived.DerivedTenantRef()
	if refID == 0 {
		return nil
	}

	accountField, _, err := r.tenantFields()
	if err != nil {
		return err
	}
	current, isZero := accountField.ValueOf(ctx, reflect.ValueOf(model))
	if isZero {
		return nil
	}
	accountID, ok := current.(int64)
	if !ok {
		return nil
	}

	var matched int64
	err = r.withContext(ctx).Table(table).
		Where("id = ? AND account_id = ?", refID, accountID).
		Count(&matched).Error
	if err != nil {
		return translateWriteError(err)
	}
	if matched == 0 {
		return errors.Validation(errors.NewFieldErrors().
			Add(field, "does not belong to the active account"))
	}
	return nil
}

func asTenantDerived(model any) (TenantDerived, bool) {
	if derived, ok := model.(TenantDerived); ok {
		return derived, true
	}
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		if derived, ok := rv.Elem().Interface().(TenantDerived); ok {
			return derived, true
		}
	}
	return nil, false
}

func (r *RepositoryImpl[T]) isTenantIgnored(model any) bool {
	if model == nil {
		return false
	}

	if ignorable, ok := model.(TenantIgnorable); ok {
		return ignorable.TenantIgnored()
	}

	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		if ignorable, ok := rv.Elem().Interface().(TenantIgnorable); ok {
			return ignorable.TenantIgnored()
		}
	}

	return false
}
