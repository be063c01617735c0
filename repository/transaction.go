package repository

import (
	"context"

	"github.com/worklane/worklane/errors"

	"gorm.io/gorm"
)

/* ========================================================================
 * Transaction Repository Implementation - 事务支持实现
 * ========================================================================
 * 职责: 实现 TransactionRepository 接口
 * 设计: 事务 DB 放入 context 传递，嵌套的仓储调用自动复用同一事务;
 *       Scope 同样在 context 中，事务内的所有操作保持同一租户语义
 * ======================================================================== */

// Execute 在事务中执行操作
// 如果 fn 返回错误，事务将回滚；否则提交
func (r *RepositoryImpl[T]) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	db := r.withContext(ctx)

	if err := db.Transaction(func(tx *gorm.DB) error {
		return fn(withTxContext(ctx, tx))
	}); err != nil {
		if _, ok := errors.AsBizError(err); ok {
			return err
		}
		return errors.Wrap(errors.ErrCodeInternal, "transaction failed", err)
	}

	return nil
}

// WithTx 创建事务版本的仓储
// 返回的仓储实例使用传入的事务 DB
func (r *RepositoryImpl[T]) WithTx(tx *gorm.DB) Repository[T] {
	return &RepositoryImpl[T]{db: tx}
}
