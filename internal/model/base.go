package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── 日期列表 JSON 类型 ──

// DateList 以 JSON 数组 ["2024-01-01", ...] 存储的日期列表，实现 GORM Scanner/Valuer 接口。
type DateList []time.Time

const dateLayout = "2006-01-02"

// Scan 解析数据库返回的 JSON 文本。
func (l *DateList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("DateList.Scan: unsupported type %T", src)
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return fmt.Errorf("DateList.Scan: %w", err)
	}
	out := make(DateList, 0, len(strs))
	for _, s := range strs {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return fmt.Errorf("DateList.Scan: invalid element %q: %w", s, err)
		}
		out = append(out, t)
	}
	*l = out
	return nil
}

// Value 序列化为 JSON 文本。
func (l DateList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	strs := make([]string, len(l))
	for i, t := range l {
		strs[i] = t.Format(dateLayout)
	}
	b, err := json.Marshal(strs)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MarshalJSON 对外输出 YYYY-MM-DD
func (l DateList) MarshalJSON() ([]byte, error) {
	strs := make([]string, len(l))
	for i, t := range l {
		strs[i] = t.Format(dateLayout)
	}
	return json.Marshal(strs)
}

// Normalize 去重并升序，时间部分归零为 UTC
func (l DateList) Normalize() DateList {
	seen := make(map[time.Time]bool, len(l))
	out := make(DateList, 0, len(l))
	for _, t := range l {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// assignID 主键为空时生成 UUID（SQLite 无 gen_random_uuid，统一在应用侧生成）
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All 全部模型，供 SQLite AutoMigrate 与测试使用
func All() []interface{} {
	return []interface{}{
		&User{},
		&WorkPattern{},
		&LeaveCategory{},
		&LeaveRequest{},
		&HourPermit{},
		&DaySwapRequest{},
		&Payment{},
		&Reimbursement{},
		&PocketMoneyRequest{},
		&ApprovalSlot{},
		&ShiftRecord{},
		&MonthlyQuota{},
		&Notification{},
		&NotificationPreference{},
	}
}
