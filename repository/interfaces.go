package repository

import (
	"context"

	"gorm.io/gorm"
)

/* ========================================================================
 * Repository Interfaces - 仓储接口定义
 * ========================================================================
 * 职责: 定义通用仓储接口
 * 设计: 使用泛型提供类型安全的数据访问；所有实现都隐式应用租户过滤，
 *       控制器层不需要也不应该自行拼接租户条件
 * ======================================================================== */

// QueryOption 查询选项
type QueryOption struct {
	// Preloads 预加载关联（如 "Workspace"）
	Preloads []string
	// OrderBy 排序（如 "create_time DESC"）
	OrderBy string
	// Select 选择字段
	Select []string
}

// Option 应用查询选项
type Option func(*QueryOption)

// WithPreloads 设置预加载
func WithPreloads(preloads ...string) Option {
	return func(o *QueryOption) {
		o.Preloads = preloads
	}
}

// WithOrderBy 设置排序
func WithOrderBy(orderBy string) Option {
	return func(o *QueryOption) {
		o.OrderBy = orderBy
	}
}

// WithSelect 设置选择字段
func WithSelect(selects ...string) Option {
	return func(o *QueryOption) {
		o.Select = selects
	}
}

// ApplyOptions 应用查询选项
func ApplyOptions(opts []Option) *QueryOption {
	o := &QueryOption{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PageResult 分页结果
type PageResult[T any] struct {
	List     []*T  `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int64 `json:"pages"`
}

// CRUDRepository 写操作接口
type CRUDRepository[T any] interface {
	// Create 创建单条记录，租户字段由 Scope 自动填充并校验
	Create(ctx context.Context, model *T) error

	// Update 更新记录（根据主键），禁止租户重指派
	Update(ctx context.Context, model *T) error

	// UpdateByID 根据 ID 更新指定字段（白名单过滤）
	UpdateByID(ctx context.Context, id int64, updates map[string]any, allowedFields ...string) error

	// Delete 软删除记录
	Delete(ctx context.Context, id int64) error

	// HardDelete 硬删除记录（从数据库移除）
	HardDelete(ctx context.Context, id int64) error
}

// QueryRepository 查询操作接口
// 缺少租户上下文时所有查询 fail closed：列表为空、点查 NotFound
type QueryRepository[T any] interface {
	// FindByID 根据 ID 查找记录；跨租户的 ID 返回 NotFound
	FindByID(ctx context.Context, id int64, opts ...Option) (*T, error)

	// FindOne 查找单条记录（使用自定义条件）
	FindOne(ctx context.Context, query string, args ...any) (*T, error)

	// FindByQuery 查找多条记录（使用自定义条件）
	FindByQuery(ctx context.Context, query string, args ...any) ([]*T, error)

	// FindAll 查找当前租户下的全部记录
	FindAll(ctx context.Context, opts ...Option) ([]*T, error)

	// Count 统计记录数
	Count(ctx context.Context, query string, args ...any) (int64, error)

	// Exists 检查记录是否存在
	Exists(ctx context.Context, query string, args ...any) (bool, error)
}

// PageRepository 分页查询接口
type PageRepository[T any] interface {
	// FindPage 分页查询
	FindPage(ctx context.Context, page, pageSize int, query string, args ...any) (*PageResult[T], error)
}

// TransactionRepository 事务支持接口
type TransactionRepository[T any] interface {
	// Execute 在事务中执行操作，事务通过 context 传递给嵌套仓储调用
	Execute(ctx context.Context, fn func(txCtx context.Context) error) error

	// WithTx 创建事务版本的仓储
	WithTx(tx *gorm.DB) Repository[T]
}

// Repository 通用仓储接口
type Repository[T any] interface {
	CRUDRepository[T]
	QueryRepository[T]
	PageRepository[T]
	TransactionRepository[T]

	// GetDB 获取底层 GORM DB 实例（用于复杂查询）
	GetDB() *gorm.DB
}
