package model

import (
	"github.com/worklane/worklane/repository"
)

/* ========================================================================
 * Team - 工作区内的团队
 * ========================================================================
 * 职责: 工作区内的最小协作单元
 * 设计: 同时冗余 account_id 与 workspace_id，写入时仓储层校验
 *       工作区归属与 account_id 一致（TenantDerived）
 * ======================================================================== */

// TeamStatus 团队状态
type TeamStatus string

const (
	TeamStatusActive   TeamStatus = "active"
	TeamStatusArchived TeamStatus = "archived"
)

// Team 团队
type Team struct {
	repository.BaseModel

	AccountID   int64      `gorm:"column:account_id;not null;uniqueIndex:uk_teams_account_slug,priority:1" json:"account_id"`
	WorkspaceID int64      `gorm:"column:workspace_id;not null;index" json:"workspace_id"`
	Name        string     `gorm:"column:name;size:255;not null" json:"name"`
	Slug        string     `gorm:"column:slug;size:64;not null;uniqueIndex:uk_teams_account_slug,priority:2" json:"slug"`
	Status      TeamStatus `gorm:"column:status;size:16;not null;default:active" json:"status"`
}

// TableName 指定表名
func (Team) TableName() string {
	return "teams"
}

// DerivedTenantRef 团队经由工作区间接归属账户，写入时由仓储校验一致性
func (t Team) DerivedTenantRef() (string, string, int64) {
	return Workspace{}.TableName(), "workspace_id", t.WorkspaceID
}
