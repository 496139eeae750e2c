package model

import "gorm.io/gorm"

// LeaveCategory 请假类别 — 对应 leave_categories
type LeaveCategory struct {
	LeaveCategoryID string `gorm:"type:uuid;primaryKey"        json:"leave_category_id"`
	Name            string `gorm:"type:varchar(100);not null"  json:"name"`
	QuotaEnabled    bool   `gorm:"not null"                    json:"quota_enabled"` // 是否扣减月度额度
	SoftDeleteModel
}

// TableName 指定表名
func (LeaveCategory) TableName() string { return "leave_categories" }

func (c *LeaveCategory) BeforeCreate(*gorm.DB) error {
	assignID(&c.LeaveCategoryID)
	return nil
}

// MonthlyQuota 月度请假额度 — 对应 monthly_quotas
type MonthlyQuota struct {
	MonthlyQuotaID string `gorm:"type:uuid;primaryKey"                                          json:"monthly_quota_id"`
	UserID         string `gorm:"type:uuid;not null;uniqueIndex:uk_quota_user_month,priority:1" json:"user_id"`
	Month          string `gorm:"type:varchar(7);not null;uniqueIndex:uk_quota_user_month,priority:2" json:"month"` // YYYY-MM
	QuotaDays      int    `gorm:"not null"                                                      json:"quota_days"`
	BaseModel
}

// TableName 指定表名
func (MonthlyQuota) TableName() string { return "monthly_quotas" }

func (q *MonthlyQuota) BeforeCreate(*gorm.DB) error {
	assignID(&q.MonthlyQuotaID)
	return nil
}
