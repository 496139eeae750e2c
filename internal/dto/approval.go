package dto

import (
	"time"

	"e-hrm/backend/internal/model"
)

// ── 审批链 DTO ──

// ApprovalSlotInput 审批链节点输入
//
// ID 为空或不属于该申请时视为新节点。
type ApprovalSlotInput struct {
	ID             *string `json:"approval_slot_id"`
	Level          int     `json:"level"`
	ApproverUserID *string `json:"approver_user_id"`
	ApproverRole   *string `json:"approver_role"`
	Note           *string `json:"note"`
}

// DecisionRequest 审批决策请求（JSON 或 multipart 表单字段）
//
// 三个 pattern_id 仅在对应副作用执行时使用：
// 换休通过时覆盖两天的工作模板，请假通过且有返岗日时必须提供 return_pattern_id。
type DecisionRequest struct {
	Decision            string  `json:"decision"                form:"decision"                binding:"required,oneof=approved rejected"`
	Note                *string `json:"note"                    form:"note"                    binding:"omitempty,max=2000"`
	DayGivenUpPatternID *string `json:"day_given_up_pattern_id" form:"day_given_up_pattern_id" binding:"omitempty,uuid"`
	DayTakenPatternID   *string `json:"day_taken_pattern_id"    form:"day_taken_pattern_id"    binding:"omitempty,uuid"`
	ReturnPatternID     *string `json:"return_pattern_id"       form:"return_pattern_id"       binding:"omitempty,uuid"`
	ProofURL            *string `json:"proof_url"               form:"-"`
}

// ShiftAdjustment 单次排班台账调整结果
type ShiftAdjustment struct {
	Date          string            `json:"date"`
	Status        model.ShiftStatus `json:"status"`
	Action        string            `json:"action"` // noop | update | create
	ShiftRecordID string            `json:"shift_record_id"`
	WorkPatternID *string           `json:"work_pattern_id,omitempty"`
}

// DecisionResponse 审批决策结果
type DecisionResponse struct {
	Slot             model.ApprovalSlot     `json:"slot"`
	Status           model.SubmissionStatus `json:"status"`
	CurrentLevel     *int                   `json:"current_level"`
	PreviousStatus   model.SubmissionStatus `json:"previous_status"`
	ShiftAdjustments []ShiftAdjustment      `json:"shift_adjustments,omitempty"`
}

// ChainResponse 申请审批链视图
type ChainResponse struct {
	Kind         model.SubmissionKind   `json:"kind"`
	SubmissionID string                 `json:"submission_id"`
	UserID       string                 `json:"user_id"`
	Status       model.SubmissionStatus `json:"status"`
	CurrentLevel *int                   `json:"current_level"`
	Slots        []model.ApprovalSlot   `json:"slots"`
}

// InboxItem 审批人待办
type InboxItem struct {
	Kind         model.SubmissionKind `json:"kind"`
	KindLabel    string               `json:"kind_label"`
	SubmissionID string               `json:"submission_id"`
	Slot         model.ApprovalSlot   `json:"slot"`
	CreatedAt    time.Time            `json:"created_at"`
}
