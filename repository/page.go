package repository

import (
	"context"

	"github.com/worklane/worklane/errors"
)

/* ========================================================================
 * Page Repository Implementation - 分页查询实现
 * ========================================================================
 * 职责: 实现 PageRepository 接口
 * ======================================================================== */

const (
	// DefaultPageSize 默认每页大小
	DefaultPageSize = 20
	// MaxPageSize 最大每页大小
	MaxPageSize = 200
)

// FindPage 分页查询
func (r *RepositoryImpl[T]) FindPage(ctx context.Context, page, pageSize int, query string, args ...any) (*PageResult[T], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	db := r.scoped(ctx).Model(r.newModelPtr())
	if query != "" {
		db = db.Where(query, args...)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to count page", err)
	}

	// 雪花 ID 随时间单调递增，按主键倒序即按创建时间倒序，
	// 同时保证翻页顺序稳定
	var models []*T
	offset := (page - 1) * pageSize
	if err := db.Order("id DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to find page", err)
	}

	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}

	return &PageResult[T]{
		List:     models,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}
