package model

import (
	"github.com/worklane/worklane/repository"
)

/* ========================================================================
 * User - 全局用户
 * ========================================================================
 * 职责: 跨账户的用户身份，通过成员关系归属到一个或多个账户
 * 设计: 用户全局存在（TenantIgnored），current_workspace_id 记录
 *       最近一次成功切换的工作区，仅作为登录后的默认落点
 * ======================================================================== */

// User 用户
type User struct {
	repository.BaseModel

	Email              string `gorm:"column:email;size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	Name               string `gorm:"column:name;size:255;not null" json:"name"`
	CurrentWorkspaceID *int64 `gorm:"column:current_workspace_id" json:"current_workspace_id,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// TenantIgnored 用户是全局实体，不参与租户过滤
func (User) TenantIgnored() bool {
	return true
}
