package errors

import (
	"errors"
	"fmt"
)

/* ========================================================================
 * Worklane Error Package - 统一错误处理
 * ========================================================================
 * 职责: 定义业务错误码，提供错误包装和转换工具
 * 设计: 租户隔离相关的错误必须保持"不可区分"语义——跨租户访问
 *       与记录不存在返回同一个 NotFound，避免泄露其他租户的数据存在性
 * ======================================================================== */

// ========================================================================
// 错误码定义
// ========================================================================

// ErrorCode 业务错误码
type ErrorCode int

const (
	// 通用错误 (1xxx)
	ErrCodeUnknown          ErrorCode = 1000 // 未知错误
	ErrCodeInvalidArgument  ErrorCode = 1001 // 参数无效
	ErrCodeNotFound         ErrorCode = 1002 // 资源不存在（或属于其他租户）
	ErrCodeAlreadyExists    ErrorCode = 1003 // 资源已存在
	ErrCodePermissionDenied ErrorCode = 1004 // 权限不足
	ErrCodeUnauthenticated  ErrorCode = 1005 // 未认证 / 缺少租户上下文
	ErrCodeInternal         ErrorCode = 1006 // 内部错误
	ErrCodeUnavailable      ErrorCode = 1007 // 服务不可用
	ErrCodeConflict         ErrorCode = 1008 // 并发冲突（如 slug 唯一索引冲突）
)

// ========================================================================
// 业务错误类型
// ========================================================================

// BizError 业务错误
type BizError struct {
	Code    ErrorCode // 业务错误码
	Message string    // 错误消息
	Cause   error     // 原始错误
}

// Error 实现 error 接口
func (e *BizError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Is 支持 errors.Is：按业务错误码匹配
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Unwrap 支持 errors.Is 和 errors.As
func (e *BizError) Unwrap() error {
	return e.Cause
}

// ========================================================================
// 错误构造函数
// ========================================================================

// New 创建业务错误
func New(code ErrorCode, message string) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code ErrorCode, message string, cause error) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf 格式化包装错误
func Wrapf(code ErrorCode, cause error, format string, args ...any) *BizError {
	return &BizError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ========================================================================
// 预定义错误（便于 errors.Is 判断）
// ========================================================================

var (
	ErrInvalidArgument  = New(ErrCodeInvalidArgument, "invalid argument")
	ErrNotFound         = New(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = New(ErrCodeAlreadyExists, "resource already exists")
	ErrPermissionDenied = New(ErrCodePermissionDenied, "permission denied")
	ErrUnauthenticated  = New(ErrCodeUnauthenticated, "unauthenticated")
	ErrInternal         = New(ErrCodeInternal, "internal error")
	ErrUnavailable      = New(ErrCodeUnavailable, "service unavailable")
	ErrConflict         = New(ErrCodeConflict, "conflict")
)

// ========================================================================
// 字段级校验错误
// ========================================================================

// FieldErrors 按字段分组的校验失败信息
// 用于租户归属校验、请求 DTO 校验等需要逐字段反馈的场景
type FieldErrors struct {
	Fields map[string][]string
}

// NewFieldErrors 创建空的字段错误集合
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{Fields: make(map[string][]string)}
}

// Add 追加一条字段错误
func (e *FieldErrors) Add(field, message string) *FieldErrors {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// HasErrors 是否存在错误
func (e *FieldErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error 实现 error 接口
func (e *FieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Is FieldErrors 统一归类为 InvalidArgument
func (e *FieldErrors) Is(target error) bool {
	t, ok := target.(*BizError)
	if !ok {
		return false
	}
	return t.Code == ErrCodeInvalidArgument
}

// Validation 将字段错误包装为 BizError，保留字段明细作为 Cause
func Validation(fields *FieldErrors) *BizError {
	return &BizError{
		Code:    ErrCodeInvalidArgument,
		Message: fields.Error(),
		Cause:   fields,
	}
}

// AsFieldErrors 提取错误中的字段明细
func AsFieldErrors(err error) (*FieldErrors, bool) {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ========================================================================
// 错误判断辅助函数
// ========================================================================

// Is 判断错误是否为指定类型
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 将错误转换为指定类型
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Code 获取错误码
func Code(err error) ErrorCode {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return ErrCodeUnknown
}

// IsNotFound 判断是否为 NotFound 错误
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// IsConflict 判断是否为唯一约束冲突
func IsConflict(err error) bool {
	return Code(err) == ErrCodeConflict
}

// AsBizError 将错误转换为 BizError
func AsBizError(err error) (*BizError, bool) {
	if err == nil {
		return nil, false
	}
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr, true
	}
	return nil, false
}

// ========================================================================
// HTTP 错误转换
// ========================================================================

// httpStatusCode 业务错误码到 HTTP 状态码映射
var httpStatusCode = map[ErrorCode]int{
	ErrCodeUnknown:          500,
	ErrCodeInvalidArgument:  422,
	ErrCodeNotFound:         404,
	ErrCodeAlreadyExists:    409,
	ErrCodePermissionDenied: 403,
	ErrCodeUnauthenticated:  401,
	ErrCodeInternal:         500,
	ErrCodeUnavailable:      503,
	ErrCodeConflict:         409,
}

// HTTPBody HTTP 错误响应体
type HTTPBody struct {
	Code   int                 `json:"code"`
	Msg    string              `json:"msg"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ToHTTPResponse 将业务错误转换为 HTTP 状态码 + 响应体
func ToHTTPResponse(err error) (int, HTTPBody) {
	if err == nil {
		return 200, HTTPBody{Code: 0, Msg: "success"}
	}

	var bizErr *BizError
	if errors.As(err, &bizErr) {
		status, ok := httpStatusCode[bizErr.Code]
		if !ok {
			status = 500
		}
		body := HTTPBody{Code: int(bizErr.Code), Msg: bizErr.Message}
		if fields, ok := AsFieldErrors(bizErr); ok {
			body.Fields = fields.Fields
		}
		return status, body
	}

	// 非业务错误
	return 500, HTTPBody{Code: 500, Msg: "internal server error"}
}
