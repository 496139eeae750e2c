package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification 站内通知表 — 对应 notifications
type Notification struct {
	NotificationID string         `gorm:"type:uuid;primaryKey"      json:"notification_id"`
	UserID         string         `gorm:"type:uuid;not null;index"  json:"user_id"`
	Type           string         `gorm:"type:varchar(50);not null" json:"type"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Content        string         `gorm:"type:text;not null"        json:"content"`
	IsRead         bool           `gorm:"not null;default:false"    json:"is_read"`
	RelatedType    *string        `gorm:"type:varchar(20)"          json:"related_type,omitempty"` // 申请类型 leave | day_swap | ...
	RelatedID      *string        `gorm:"type:uuid"                 json:"related_id,omitempty"`
	Payload        datatypes.JSON `json:"payload,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	assignID(&n.NotificationID)
	return nil
}

// NotificationPreference 通知偏好表 — 对应 notification_preferences（与 users 1:1）
type NotificationPreference struct {
	UserID       string `gorm:"type:uuid;primaryKey"  json:"user_id"`
	EmailEnabled bool   `gorm:"not null;default:true" json:"email_enabled"`
	InAppEnabled bool   `gorm:"not null;default:true" json:"in_app_enabled"`
	BaseModel
}

// TableName 指定表名
func (NotificationPreference) TableName() string { return "notification_preferences" }
