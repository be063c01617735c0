package validator

import (
	"sort"
	"strings"
)

/* ========================================================================
 * Validator Types - 验证器类型定义
 * ========================================================================
 * 职责: 定义验证错误类型
 * ======================================================================== */

const (
	// tagCustom 自定义错误消息标签名
	tagCustom = "error_msg"
	// ruleSeparator 规则分隔符，用于分隔多个规则
	ruleSeparator = "|"
	// keyValueSep 键值分隔符，用于分隔规则名和错误消息
	keyValueSep = ":"
)

// ValidationError 按字段(json 名)分组的验证错误
// 使用示例:
//
//	type CreateWorkspaceRequest struct {
//	    Name string `json:"name" validate:"required,max=255" error_msg:"required:name is required|max:name too long"`
//	    Slug string `json:"slug" validate:"omitempty,max=64" error_msg:"max:slug too long"`
//	}
type ValidationError struct {
	Errors map[string][]string // 字段名 -> 错误消息列表
}

// Add 添加字段错误
func (v *ValidationError) Add(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string][]string)
	}
	v.Errors[field] = append(v.Errors[field], message)
}

// Get 获取字段错误消息
func (v *ValidationError) Get(field string) []string {
	return v.Errors[field]
}

// HasErrors 检查是否有验证错误
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Fields 返回出错字段名，字典序排序，保证响应体里字段顺序稳定
func (v *ValidationError) Fields() []string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Error 实现 error 接口，输出顺序与 Fields 一致
func (v ValidationError) Error() string {
	var sb strings.Builder
	for i, field := range v.Fields() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(field)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(v.Errors[field], ", "))
	}
	return sb.String()
}
