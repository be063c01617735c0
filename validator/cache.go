package validator

import (
	"reflect"
	"strings"
	"sync"
)

/* ========================================================================
 * Type Cache - 类型信息缓存
 * ========================================================================
 * 职责: 缓存结构体类型信息，减少反射开销
 * error_msg 标签在缓存类型时解析一次, 验证路径上只做 map 查找
 * ======================================================================== */

// fieldInfo 字段信息
type fieldInfo struct {
	name        string            // 字段名
	jsonName    string            // json 标签名, 报错时对外使用
	validateTag string            // validate 标签值
	errorMsgs   map[string]string // 规则名 -> 自定义错误消息
	isStruct    bool              // 是否为结构体
	isPtr       bool              // 是否为指针类型
}

// typeCache 类型缓存
type typeCache struct {
	mu    sync.RWMutex
	cache map[reflect.Type][]fieldInfo
}

// newTypeCache 创建类型缓存
func newTypeCache() *typeCache {
	return &typeCache{
		cache: make(map[reflect.Type][]fieldInfo),
	}
}

// getFieldsInfo 获取类型的字段信息（带缓存）
func (tc *typeCache) getFieldsInfo(t reflect.Type) []fieldInfo {
	tc.mu.RLock()
	if info, exists := tc.cache[t]; exists {
		tc.mu.RUnlock()
		return info
	}
	tc.mu.RUnlock()

	tc.mu.Lock()
	defer tc.mu.Unlock()

	// 双重检查: 多个 goroutine 可能同时发现缓存缺失
	if info, exists := tc.cache[t]; exists {
		return info
	}

	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			// 跳过未导出字段：反射读取 Interface() 会 panic
			continue
		}
		fieldType := field.Type
		isPtr := fieldType.Kind() == reflect.Ptr
		if isPtr {
			fieldType = fieldType.Elem()
		}

		fields = append(fields, fieldInfo{
			name:        field.Name,
			jsonName:    jsonFieldName(field),
			validateTag: field.Tag.Get("validate"),
			errorMsgs:   parseErrorMessageTag(field.Tag.Get(tagCustom)),
			isStruct:    fieldType.Kind() == reflect.Struct,
			isPtr:       isPtr,
		})
	}

	tc.cache[t] = fields
	return fields
}

// jsonFieldName 取 json 标签名, 缺省回退为字段名
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" {
		return field.Name
	}
	return name
}

// parseErrorMessageTag 解析错误消息标签
// 格式: "required:name is required|max:name too long"
func parseErrorMessageTag(errorMsgTag string) map[string]string {
	if errorMsgTag == "" {
		return nil
	}
	ruleMap := make(map[string]string)
	for _, ruleMessage := range strings.Split(errorMsgTag, ruleSeparator) {
		parts := strings.SplitN(ruleMessage, keyValueSep, 2)
		if len(parts) == 2 {
			ruleMap[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return ruleMap
}
