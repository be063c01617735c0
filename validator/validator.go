package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

/* ========================================================================
 * Validator - 自定义验证器
 * ========================================================================
 * 职责: 提供带自定义错误消息的结构体验证
 * 特性:
 *   - 支持 error_msg 标签定义自定义错误消息
 *   - 支持嵌套结构体验证
 *   - 错误按 json 字段名分组, 可直接进入 HTTP 422 响应
 * 使用示例:
 *     type CreateWorkspaceRequest struct {
 *         Name string `json:"name" validate:"required,max=255" error_msg:"required:name is required"`
 *     }
 *     v := validator.New()
 *     if err := v.Validate(&req); err != nil {
 *         // err 是 *ValidationError
 *     }
 * ======================================================================== */

// Validator 自定义验证器
type Validator struct {
	validator *validator.Validate
	typeCache *typeCache
}

// New 创建新的验证器
func New() *Validator {
	return &Validator{
		validator: validator.New(),
		typeCache: newTypeCache(),
	}
}

// Validate 验证结构体
// 返回 *ValidationError，包含按字段分组的错误消息
func (v *Validator) Validate(s interface{}) error {
	if s == nil {
		return nil
	}

	validationErrors := &ValidationError{Errors: make(map[string][]string)}
	v.validateRecursive(s, "", validationErrors)

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// validateRecursive 递归验证结构体
func (v *Validator) validateRecursive(s interface{}, prefix string, validationErrors *ValidationError) {
	value := reflect.ValueOf(s)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return
	}

	fields := v.typeCache.getFieldsInfo(value.Type())
	for _, fieldInfo := range fields {
		fieldValue := value.FieldByName(fieldInfo.name)
		fullName := fieldInfo.jsonName
		if prefix != "" {
			fullName = fmt.Sprintf("%s.%s", prefix, fieldInfo.jsonName)
		}

		// 嵌套结构体递归验证
		if fieldInfo.isStruct {
			if fieldInfo.isPtr {
				if fieldValue.IsNil() {
					continue
				}
				fieldValue = fieldValue.Elem()
			}
			v.validateRecursive(fieldValue.Interface(), fullName, validationErrors)
			continue
		}

		if fieldInfo.validateTag == "" {
			continue
		}

		err := v.validator.Var(fieldValue.Interface(), fieldInfo.validateTag)
		if err == nil {
			continue
		}

		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			validationErrors.Add(fullName, err.Error())
			continue
		}

		for _, fieldErr := range validationErrs {
			message := fieldInfo.errorMsgs[fieldErr.Tag()]
			if message == "" {
				message = defaultMessage(fieldErr)
			}
			validationErrors.Add(fullName, message)
		}
	}
}

// defaultMessage 没有自定义消息时的兜底文案
func defaultMessage(fieldErr validator.FieldError) string {
	if fieldErr.Param() != "" {
		return fmt.Sprintf("failed on %s=%s", fieldErr.Tag(), fieldErr.Param())
	}
	return fmt.Sprintf("failed on %s", fieldErr.Tag())
}
