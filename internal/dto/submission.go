package dto

import (
	"github.com/shopspring/decimal"

	"e-hrm/backend/internal/model"
)

// ── 申请公共字段 ──

// SubmissionCommon 各类申请创建请求的公共部分
type SubmissionCommon struct {
	UserID        *string             `json:"user_id"        binding:"omitempty,uuid"` // 管理员代他人提交
	AttachmentURL *string             `json:"attachment_url" binding:"omitempty,max=1000"`
	Approvals     []ApprovalSlotInput `json:"approvals"`
}

// SubmissionPatch 各类申请编辑请求的公共部分
//
// Approvals 为 nil 表示不修改审批链；提供时按节点 ID 同步。
type SubmissionPatch struct {
	AttachmentURL *string              `json:"attachment_url" binding:"omitempty,max=1000"`
	Approvals     *[]ApprovalSlotInput `json:"approvals"`
}

// SubmissionListRequest 申请列表查询参数
type SubmissionListRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=pending approved rejected"`
	PaginationRequest
}

// SubmissionDetail 申请及其审批链
type SubmissionDetail[E any] struct {
	Submission *E                   `json:"submission"`
	Approvals  []model.ApprovalSlot `json:"approvals"`
}

// ── 请假 ──

// CreateLeaveRequest 请假申请
//
// Dates 为空时按 StartDate..EndDate 逐日展开。
type CreateLeaveRequest struct {
	CategoryID string   `json:"category_id" binding:"required,uuid"`
	Dates      []string `json:"dates"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	ReturnDate *string  `json:"return_date"`
	Reason     string   `json:"reason"      binding:"omitempty,max=2000"`
	SubmissionCommon
}

// UpdateLeaveRequest 编辑请假申请
type UpdateLeaveRequest struct {
	CategoryID *string   `json:"category_id" binding:"omitempty,uuid"`
	Dates      *[]string `json:"dates"`
	ReturnDate *string   `json:"return_date"` // 空字符串表示清除
	Reason     *string   `json:"reason"      binding:"omitempty,max=2000"`
	SubmissionPatch
}

// ── 小时请假 ──

// CreateHourPermitRequest 小时请假申请
type CreateHourPermitRequest struct {
	PermitDate string `json:"permit_date" binding:"required"`
	StartTime  string `json:"start_time"  binding:"required"`
	EndTime    string `json:"end_time"    binding:"required"`
	Reason     string `json:"reason"      binding:"omitempty,max=2000"`
	SubmissionCommon
}

// UpdateHourPermitRequest 编辑小时请假
type UpdateHourPermitRequest struct {
	PermitDate *string `json:"permit_date"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
	Reason     *string `json:"reason" binding:"omitempty,max=2000"`
	SubmissionPatch
}

// ── 换休 ──

// CreateDaySwapRequest 换休申请
type CreateDaySwapRequest struct {
	DayGivenUp string `json:"day_given_up" binding:"required"`
	DayTaken   string `json:"day_taken"    binding:"required"`
	Reason     string `json:"reason"       binding:"omitempty,max=2000"`
	SubmissionCommon
}

// UpdateDaySwapRequest 编辑换休申请
type UpdateDaySwapRequest struct {
	DayGivenUp *string `json:"day_given_up"`
	DayTaken   *string `json:"day_taken"`
	Reason     *string `json:"reason" binding:"omitempty,max=2000"`
	SubmissionPatch
}

// ── 付款 ──

// CreatePaymentRequest 付款申请
type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"      binding:"omitempty,max=30"`
	Reference   string          `json:"reference"   binding:"omitempty,max=100"`
	Description string          `json:"description" binding:"required,max=2000"`
	SubmissionCommon
}

// UpdatePaymentRequest 编辑付款申请
type UpdatePaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Method      *string          `json:"method"      binding:"omitempty,max=30"`
	Reference   *string          `json:"reference"   binding:"omitempty,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	SubmissionPatch
}

// ── 报销 ──

// CreateReimbursementRequest 报销申请
type CreateReimbursementRequest struct {
	Category    string          `json:"category"    binding:"required,max=50"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"omitempty,max=2000"`
	SubmissionCommon
}

// UpdateReimbursementRequest 编辑报销申请
type UpdateReimbursementRequest struct {
	Category    *string          `json:"category"    binding:"omitempty,max=50"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	SubmissionPatch
}

// ── 零用金 ──

// CreatePocketMoneyRequest 零用金申请
type CreatePocketMoneyRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart string          `json:"period_start" binding:"required"`
	PeriodEnd   string          `json:"period_end"   binding:"required"`
	Description string          `json:"description"  binding:"omitempty,max=2000"`
	SubmissionCommon
}

// UpdatePocketMoneyRequest 编辑零用金申请
type UpdatePocketMoneyRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	PeriodStart *string          `json:"period_start"`
	PeriodEnd   *string          `json:"period_end"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	SubmissionPatch
}
