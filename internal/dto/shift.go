package dto

import (
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/schedule"
)

// ── 排班台账 DTO ──

// WeeklyPreviewRequest 每周排班模式预览
type WeeklyPreviewRequest struct {
	Pattern       schedule.PatternInput `json:"pattern"`
	FallbackStart *string               `json:"fallback_start"`
	FallbackEnd   *string               `json:"fallback_end"`
}

// CreateWeeklyShiftRequest 按每周模式写入排班记录
type CreateWeeklyShiftRequest struct {
	UserID        string                `json:"user_id"         binding:"required,uuid"`
	Pattern       schedule.PatternInput `json:"pattern"`
	WorkPatternID *string               `json:"work_pattern_id" binding:"omitempty,uuid"`
}

// AdjustShiftRequest 手动调整某日排班状态
type AdjustShiftRequest struct {
	UserID        string  `json:"user_id"         binding:"required,uuid"`
	Date          string  `json:"date"            binding:"required"`
	Status        string  `json:"status"          binding:"required,oneof=WORK OFF"`
	WorkPatternID *string `json:"work_pattern_id" binding:"omitempty,uuid"`
}

// ShiftListRequest 排班台账查询
type ShiftListRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// WeeklyPreviewResponse 预览结果
type WeeklyPreviewResponse struct {
	Weekdays      []int               `json:"weekdays"`
	Occurrences   []WeekdayOccurrence `json:"occurrences"`
	Dates         []string            `json:"dates,omitempty"`
	StartDate     string              `json:"start_date"`
	EndDate       *string             `json:"end_date"`
	DerivedStart  string              `json:"derived_start"`
	DerivedEnd    *string             `json:"derived_end"`
	ReferenceWeek ReferenceWeek       `json:"reference_week"`
}

// WeekdayOccurrence 单个星期几的首末出现日期
type WeekdayOccurrence struct {
	Weekday int     `json:"weekday"`
	First   string  `json:"first"`
	Last    *string `json:"last"`
}

// ReferenceWeek 参考周
type ReferenceWeek struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyShiftResponse 写入的排班记录及展开结果
type WeeklyShiftResponse struct {
	Record  *model.ShiftRecord    `json:"record"`
	Created bool                  `json:"created"`
	Preview WeeklyPreviewResponse `json:"preview"`
}
