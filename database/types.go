package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

/* ========================================================================
 * JSONB Type - PostgreSQL JSONB 映射（公共定义）
 * ========================================================================
 * 职责: 统一定义 JSONB 类型，供实体的 settings / metadata 字段共享使用
 * ======================================================================== */

// JSONB 自定义类型，用于 Gorm 映射 PostgreSQL JSONB
// SQLite / MySQL 下退化为 TEXT 存储，语义不变
type JSONB map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
	return json.Unmarshal(data, j)
}

// GormDataType 告知 GORM 该类型的迁移列类型
func (JSONB) GormDataType() string {
	return "jsonb"
}

// Clone 深拷贝一层（值为引用类型时仍共享）
func (j JSONB) Clone() JSONB {
	if j == nil {
		return nil
	}
	out := make(JSONB, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}
