package model

import (
	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/repository"
)

/* ========================================================================
 * AuditEvent - 审计事件
 * ========================================================================
 * 职责: 记录敏感操作的不可变事实
 * 设计: 只追加，无更新时间、无软删除；subject_kind 只接受 audit 包
 *       定义的封闭枚举；随所属账户整体清理，无单条删除 API
 * ======================================================================== */

// AuditEvent 审计事件
type AuditEvent struct {
	repository.ImmutableModel

	Action      string         `gorm:"column:action;size:64;not null;index" json:"action"`
	SubjectKind string         `gorm:"column:subject_kind;size:32;not null" json:"subject_kind"`
	SubjectID   int64          `gorm:"column:subject_id;not null;index" json:"subject_id,string"`
	UserID      int64          `gorm:"column:user_id;not null;index" json:"user_id,string"`
	AccountID   int64          `gorm:"column:account_id;not null;index" json:"account_id,string"`
	WorkspaceID *int64         `gorm:"column:workspace_id;index" json:"workspace_id,omitempty"`
	Metadata    database.JSONB `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	IP          string         `gorm:"column:ip;size:64" json:"ip,omitempty"`
	UserAgent   string         `gorm:"column:user_agent;size:512" json:"user_agent,omitempty"`
}

// TableName 指定表名
func (AuditEvent) TableName() string {
	return "audit_events"
}
