package model

import (
	"time"

	"github.com/worklane/worklane/database"
	"github.com/worklane/worklane/repository"
)

/* ========================================================================
 * Account - 租户根实体
 * ========================================================================
 * 职责: 订阅与计费的主体，所有租户隔离数据的根
 * 设计: Account 本身不按租户过滤（TenantIgnored），slug 全局唯一，
 *       生命周期只做状态流转，从不硬删除
 * ======================================================================== */

// AccountStatus 账户生命周期状态
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusTrialing  AccountStatus = "trialing"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusCanceled  AccountStatus = "canceled"
)

// Valid 是否为已知状态
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusTrialing, AccountStatusSuspended, AccountStatusCanceled:
		return true
	}
	return false
}

// Account 账户（租户根）
type Account struct {
	repository.BaseModel

	Name         string         `gorm:"column:name;size:255;not null" json:"name"`
	Slug         string         `gorm:"column:slug;size:64;not null;uniqueIndex:uk_accounts_slug" json:"slug"`
	Plan         string         `gorm:"column:plan;size:32;not null;default:free" json:"plan"`
	Status       AccountStatus  `gorm:"column:status;size:16;not null;default:trialing" json:"status"`
	OwnerID      int64          `gorm:"column:owner_id;not null;index" json:"owner_id"`
	BillingEmail string         `gorm:"column:billing_email;size:255" json:"billing_email"`
	TrialEndsAt  *time.Time     `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	SubscribedAt *time.Time     `gorm:"column:subscribed_at" json:"subscribed_at,omitempty"`
	Settings     database.JSONB `gorm:"column:settings;type:jsonb" json:"settings,omitempty"`
	Metadata     database.JSONB `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// TenantIgnored 账户是租户本身，不参与租户过滤
func (Account) TenantIgnored() bool {
	return true
}
