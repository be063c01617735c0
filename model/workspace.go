package model

import (
	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/repository"
)

/* ========================================================================
 * Workspace - 账户下的工作区
 * ========================================================================
 * 职责: 账户内的协作边界，承载团队与业务数据
 * 设计: slug 在账户内唯一（联合唯一索引），所有读写经仓储层
 *       自动按 account_id 过滤
 * ======================================================================== */

// WorkspaceStatus 工作区状态
type WorkspaceStatus string

const (
	WorkspaceStatusActive   WorkspaceStatus = "active"
	WorkspaceStatusArchived WorkspaceStatus = "archived"
)

// Workspace 工作区
type Workspace struct {
	repository.BaseModel

	AccountID   int64           `gorm:"column:account_id;not null;uniqueIndex:uk_workspaces_account_slug,priority:1" json:"account_id"`
	Name        string          `gorm:"column:name;size:255;not null" json:"name"`
	Slug        string          `gorm:"column:slug;size:64;not null;uniqueIndex:uk_workspaces_account_slug,priority:2" json:"slug"`
	Description string          `gorm:"column:description;size:1024" json:"description"`
	Status      WorkspaceStatus `gorm:"column:status;size:16;not null;default:active" json:"status"`
	Settings    database.JSONB  `gorm:"column:settings;type:jsonb" json:"settings,omitempty"`
	Metadata    database.JSONB  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

// TableName 指定表名
func (Workspace) TableName() string {
	return "workspaces"
}
