package model

import (
	"time"

	"github.com/worklane/worklane/repository"
)

/* ========================================================================
 * Membership - 三级成员关系
 * ========================================================================
 * 职责: 把全局用户关联到账户/工作区/团队，携带角色与状态
 * 设计: 每一级独立建表，(租户外键, user_id) 联合唯一；
 *       角色的大小比较放在 authz 包，这里只存字符串
 * ======================================================================== */

// MembershipStatus 成员状态
type MembershipStatus string

const (
	MembershipStatusInvited     MembershipStatus = "invited"
	MembershipStatusActive      MembershipStatus = "active"
	MembershipStatusDeactivated MembershipStatus = "deactivated"
)

// AccountMembership 账户级成员
type AccountMembership struct {
	repository.BaseModel

	AccountID  int64            `gorm:"column:account_id;not null;uniqueIndex:uk_account_members,priority:1" json:"account_id"`
	UserID     int64            `gorm:"column:user_id;not null;uniqueIndex:uk_account_members,priority:2;index" json:"user_id"`
	Role       string           `gorm:"column:role;size:16;not null" json:"role"`
	Status     MembershipStatus `gorm:"column:status;size:16;not null;default:invited" json:"status"`
	InvitedBy  int64            `gorm:"column:invited_by" json:"invited_by,omitempty"`
	AcceptedAt *time.Time       `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
}

// TableName 指定表名
func (AccountMembership) TableName() string {
	return "account_memberships"
}

// WorkspaceMembership 工作区级成员
type WorkspaceMembership struct {
	repository.BaseModel

	AccountID   int64            `gorm:"column:account_id;not null;index" json:"account_id"`
	WorkspaceID int64            `gorm:"column:workspace_id;not null;uniqueIndex:uk_workspace_members,priority:1" json:"workspace_id"`
	UserID      int64            `gorm:"column:user_id;not null;uniqueIndex:uk_workspace_members,priority:2;index" json:"user_id"`
	Role        string           `gorm:"column:role;size:16;not null" json:"role"`
	Status      MembershipStatus `gorm:"column:status;size:16;not null;default:invited" json:"status"`
	InvitedBy   int64            `gorm:"column:invited_by" json:"invited_by,omitempty"`
	AcceptedAt  *time.Time       `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
}

// TableName 指定表名
func (WorkspaceMembership) TableName() string {
	return "workspace_memberships"
}

// TeamMembership 团队级成员
type TeamMembership struct {
	repository.BaseModel

	AccountID  int64            `gorm:"column:account_id;not null;index" json:"account_id"`
	TeamID     int64            `gorm:"column:team_id;not null;uniqueIndex:uk_team_members,priority:1" json:"team_id"`
	UserID     int64            `gorm:"column:user_id;not null;uniqueIndex:uk_team_members,priority:2;index" json:"user_id"`
	Role       string           `gorm:"column:role;size:16;not null" json:"role"`
	Status     MembershipStatus `gorm:"column:status;size:16;not null;default:invited" json:"status"`
	InvitedBy  int64            `gorm:"column:invited_by" json:"invited_by,omitempty"`
	AcceptedAt *time.Time       `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
}

// TableName 指定表名
func (TeamMembership) TableName() string {
	return "team_memberships"
}
