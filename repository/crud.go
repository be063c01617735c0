package repository

import (
	"context"
	"sync"

	"github.com/worklane/worklane/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/* ========================================================================
 * CRUD Repository Implementation - CRUD 操作实现
 * ========================================================================
 * 职责: 实现 Repository 接口的写路径
 *
 * 租户语义（与查询路径共同构成隔离边界）:
 *   - Create: 租户字段从 Scope 填充；显式传入且不一致 => 校验失败
 *   - Update: 先经租户过滤确认行可见，再禁止租户字段变更
 *   - 派生租户引用 (TenantDerived): 写入时父行必须与直接引用同账户
 *   - Delete: 仅能删除当前租户可见的行
 * ======================================================================== */

// RepositoryImpl 仓储实现
type RepositoryImpl[T any] struct {
	db *gorm.DB

	// Schema 缓存（线程安全）
	schemaOnce sync.Once
	schema     *schema.Schema
	schemaErr  error
}

// NewRepository 创建新的仓储实例
func NewRepository[T any](db *gorm.DB) Repository[T] {
	return &RepositoryImpl[T]{db: db}
}

// GetDB 获取底层 GORM DB 实例
func (r *RepositoryImpl[T]) GetDB() *gorm.DB {
	return r.db
}

// newModelPtr 创建新的模型指针
func (r *RepositoryImpl[T]) newModelPtr() *T {
	var model T
	return &model
}

// withContext 返回带 context 的 DB (自动识别事务)
func (r *RepositoryImpl[T]) withContext(ctx context.Context) *gorm.DB {
	return getDBFromContext(ctx, r.db)
}

// scoped 返回带 context 且已应用租户过滤的 DB
func (r *RepositoryImpl[T]) scoped(ctx context.Context) *gorm.DB {
	return r.applyTenantScope(ctx, r.withContext(ctx))
}

// getSchema 获取缓存的 Schema（线程安全）
func (r *RepositoryImpl[T]) getSchema() (*schema.Schema, error) {
	r.schemaOnce.Do(func() {
		stmt := &gorm.Statement{DB: r.db}
		r.schemaErr = stmt.Parse(r.newModelPtr())
		if r.schemaErr == nil {
			r.schema = stmt.Schema
		}
	})
	return r.schema, r.schemaErr
}

/* ========================================================================
 * Create 操作
 * ======================================================================== */

// Create 创建单条记录
func (r *RepositoryImpl[T]) Create(ctx context.Context, model *T) error {
	if model == nil {
		return errors.ErrInvalidArgument
	}

	if err := r.setTenantFields(ctx, model); err != nil {
		return err
	}
	if err := r.checkDerivedTenant(ctx, model); err != nil {
		return err
	}

	if err := r.withContext(ctx).Create(model).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

/* ========================================================================
 * Update 操作
 * ======================================================================== */

// Update 更新记录（根据主键）
// 注意：使用 Save 会更新所有字段，包括零值字段。
func (r *RepositoryImpl[T]) Update(ctx context.Context, model *T) error {
	if model == nil {
		return errors.ErrInvalidArgument
	}

	if err := r.ensureTenantUnchanged(ctx, model); err != nil {
		return err
	}
	if err := r.checkDerivedTenant(ctx, model); err != nil {
		return err
	}

	// 更新语句本身也带租户过滤：跨租户的主键命中不到任何行
	result := r.scoped(ctx).Save(model)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}

	return nil
}

// UpdateByID 根据 ID 更新指定字段
func (r *RepositoryImpl[T]) UpdateByID(ctx context.Context, id int64, updates map[string]any, allowedFields ...string) error {
	if len(updates) == 0 {
		return errors.ErrInvalidArgument
	}

	// 过滤非法字段，防止注入/批量赋值漏洞；租户列永远不可经此路径修改
	filteredUpdates, err := r.filterUpdates(updates, allowedFields)
	if err != nil {
		return err
	}

	if len(filteredUpdates) == 0 {
		return errors.ErrInvalidArgument
	}

	model := r.newModelPtr()
	result := r.scoped(ctx).Model(model).Where("id = ?", id).Updates(filteredUpdates)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}

	return nil
}

// filterUpdates 过滤掉 map 中非法的数据库列名，防止字段注入/批量赋值漏洞
func (r *RepositoryImpl[T]) filterUpdates(updates map[string]any, allowedFields []string) (map[string]any, error) {
	sch, err := r.getSchema()
	if err != nil {
		return nil, err
	}

	allowedSet := make(map[string]struct{})
	for _, f := range allowedFields {
		allowedSet[f] = struct{}{}
	}
	hasWhitelist := len(allowedSet) > 0

	filtered := make(map[string]any)
	for k, v := range updates {
		if hasWhitelist {
			if _, ok := allowedSet[k]; !ok {
				continue
			}
		}

		// 租户列一律拒绝：重指派只能 fail，不能悄悄通过
		if k == accountColumn || k == workspaceColumn {
			return nil, errors.Validation(errors.NewFieldErrors().
				Add(k, "tenant reassignment is not allowed"))
		}

		// 优先匹配数据库列名 (DB Name)
		if field, ok := sch.FieldsByDBName[k]; ok {
			if !field.PrimaryKey && field.Updatable {
				filtered[k] = v
			}
			continue
		}
		// 尝试匹配结构体字段名 (Struct Field Name)
		if field, ok := sch.FieldsByName[k]; ok {
			if field.DBName == accountColumn || field.DBName == workspaceColumn {
				return nil, errors.Validation(errors.NewFieldErrors().
					Add(field.DBName, "tenant reassignment is not allowed"))
			}
			if !field.PrimaryKey && field.Updatable {
				filtered[field.DBName] = v
			}
			continue
		}
	}

	return filtered, nil
}

/* ========================================================================
 * Delete 操作
 * ======================================================================== */

// Delete 软删除记录
func (r *RepositoryImpl[T]) Delete(ctx context.Context, id int64) error {
	model := r.newModelPtr()
	result := r.scoped(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}

	return nil
}

// HardDelete 硬删除记录（从数据库移除）
// 租户级联删除（账户销毁）经 WithSystemScope 走此路径
func (r *RepositoryImpl[T]) HardDelete(ctx context.Context, id int64) error {
	model := r.newModelPtr()
	result := r.applyTenantScope(ctx, r.withContext(ctx).Unscoped()).Delete(model, "id = ?", id)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}

	return nil
}
