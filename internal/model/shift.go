package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ShiftStatus 排班状态
type ShiftStatus string

const (
	ShiftWork ShiftStatus = "WORK"
	ShiftOff  ShiftStatus = "OFF"
)

// Valid 是否为已知状态
func (s ShiftStatus) Valid() bool {
	return s == ShiftWork || s == ShiftOff
}

// ShiftRecord 排班台账 — 对应 shift_records
//
// (user_id, start_date) 唯一且包含已软删除的记录，写入同一键时复活旧记录。
// end_date 为空表示长期有效；单日记录 start_date = end_date。
type ShiftRecord struct {
	ShiftRecordID  string         `gorm:"type:uuid;primaryKey"                                  json:"shift_record_id"`
	UserID         string         `gorm:"type:uuid;not null;uniqueIndex:uk_shift_user_start,priority:1" json:"user_id"`
	StartDate      time.Time      `gorm:"type:date;not null;uniqueIndex:uk_shift_user_start,priority:2" json:"start_date"`
	EndDate        *time.Time     `gorm:"type:date"                                             json:"end_date,omitempty"`
	Status         ShiftStatus    `gorm:"type:varchar(10);not null"                             json:"status"`
	WorkPatternID  *string        `gorm:"type:uuid"                                             json:"work_pattern_id,omitempty"`
	WeeklyPattern  datatypes.JSON `json:"weekly_pattern,omitempty"`
	LegacyWorkdays *string        `gorm:"type:varchar(255)"                                     json:"legacy_workdays,omitempty"` // 旧版 hari_kerja
	SoftDeleteModel

	WorkPattern *WorkPattern `gorm:"foreignKey:WorkPatternID;references:WorkPatternID" json:"work_pattern,omitempty"`
}

// TableName 指定表名
func (ShiftRecord) TableName() string { return "shift_records" }

func (r *ShiftRecord) BeforeCreate(*gorm.DB) error {
	assignID(&r.ShiftRecordID)
	return nil
}

// IsSingleDay 单日记录
func (r *ShiftRecord) IsSingleDay() bool {
	return r.EndDate != nil && r.EndDate.Equal(r.StartDate)
}

// Covers 日期是否落在记录区间内
func (r *ShiftRecord) Covers(d time.Time) bool {
	if d.Before(r.StartDate) {
		return false
	}
	return r.EndDate == nil || !d.After(*r.EndDate)
}

// WorkPattern 每日工作时间模板 — 对应 work_patterns
type WorkPattern struct {
	WorkPatternID string `gorm:"type:uuid;primaryKey"              json:"work_pattern_id"`
	Name          string `gorm:"type:varchar(100);not null"        json:"name"`
	StartTime     string `gorm:"type:varchar(5);not null"          json:"start_time"` // HH:MM
	EndTime       string `gorm:"type:varchar(5);not null"          json:"end_time"`
	BreakMinutes  int    `gorm:"not null;default:0"                json:"break_minutes"`
	SoftDeleteModel
}

// TableName 指定表名
func (WorkPattern) TableName() string { return "work_patterns" }

func (p *WorkPattern) BeforeCreate(*gorm.DB) error {
	assignID(&p.WorkPatternID)
	return nil
}
