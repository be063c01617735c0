package repository

import (
	"context"

	"github.com/worklane/worklane/errors"

	"gorm.io/gorm"
)

/* ========================================================================
 * Query Repository Implementation - 查询操作实现
 * ========================================================================
 * 职责: 实现 QueryRepository 接口
 * 语义: 所有读取隐式带租户过滤；缺少上下文 fail closed
 * ======================================================================== */

// buildQuery 构建查询（租户过滤 + 查询选项）
func (r *RepositoryImpl[T]) buildQuery(ctx context.Context, opts *QueryOption) *gorm.DB {
	db := r.scoped(ctx)

	if opts == nil {
		return db
	}

	if len(opts.Select) > 0 {
		db = db.Select(opts.Select)
	}

	if opts.OrderBy != "" {
		db = db.Order(opts.OrderBy)
	}

	for _, preload := range opts.Preloads {
		db = db.Preload(preload)
	}

	return db
}

/* ========================================================================
 * FindByID 操作
 * ======================================================================== */

// FindByID 根据 ID 查找记录
// 跨租户的 ID 与不存在的 ID 对调用方不可区分：都返回 NotFound
func (r *RepositoryImpl[T]) FindByID(ctx context.Context, id int64, opts ...Option) (*T, error) {
	opt := ApplyOptions(opts)
	model := r.newModelPtr()

	query := r.buildQuery(ctx, opt)
	if err := query.First(model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to find record", err)
	}

	return model, nil
}

/* ========================================================================
 * FindOne / FindByQuery 操作
 * ======================================================================== */

// FindOne 查找单条记录（使用自定义条件）
func (r *RepositoryImpl[T]) FindOne(ctx context.Context, query string, args ...any) (*T, error) {
	model := r.newModelPtr()

	if err := r.scoped(ctx).Where(query, args...).First(model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to find record", err)
	}

	return model, nil
}

// FindByQuery 查找多条记录（使用自定义条件）
func (r *RepositoryImpl[T]) FindByQuery(ctx context.Context, query string, args ...any) ([]*T, error) {
	var models []*T

	if err := r.scoped(ctx).Where(query, args...).Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to find records", err)
	}

	return models, nil
}

// FindAll 查找当前租户下的全部记录
func (r *RepositoryImpl[T]) FindAll(ctx context.Context, opts ...Option) ([]*T, error) {
	opt := ApplyOptions(opts)
	var models []*T

	if err := r.buildQuery(ctx, opt).Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to list records", err)
	}

	return models, nil
}

/* ========================================================================
 * Count/Exists 操作
 * ======================================================================== */

// Count 统计记录数
func (r *RepositoryImpl[T]) Count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64

	db := r.scoped(ctx).Model(r.newModelPtr())
	if query != "" {
		db = db.Where(query, args...)
	}
	if err := db.Count(&count).Error; err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "failed to count records", err)
	}

	return count, nil
}

// Exists 检查记录是否存在
func (r *RepositoryImpl[T]) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	count, err := r.Count(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
