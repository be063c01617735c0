package repository

import (
	stderrors "errors"
	"strings"

	"github.com/worklane/worklane/errors"
	"gorm.io/gorm"
)

// translateWriteError 将存储层错误翻译为业务错误
// 唯一约束冲突统一翻译为 ErrConflict，供 slug 分配等调用方重试
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsBizError(err); ok {
		return err
	}
	if IsDuplicateKeyError(err) {
		return errors.Wrap(errors.ErrCodeConflict, "unique constraint violated", err)
	}
	return errors.Wrap(errors.ErrCodeInternal, "write failed", err)
}

// IsDuplicateKeyError 判断是否为唯一索引冲突
// 各数据库驱动报错文案不同，逐一兜底
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "Duplicate entry") // mysql
}
