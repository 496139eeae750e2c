package model

import (
	"time"

	"gorm.io/gorm"
)

// Decision 审批节点决策
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ApprovalSlot 审批链节点 — 对应 approval_slots
//
// approver_user_id 与 approver_role 必须且只能设置一个；
// (submission_kind, submission_id, level) 唯一。节点随申请编辑被硬删除。
type ApprovalSlot struct {
	ApprovalSlotID string         `gorm:"type:uuid;primaryKey"                                          json:"approval_slot_id"`
	SubmissionKind SubmissionKind `gorm:"type:varchar(20);not null;uniqueIndex:uk_approval_slot_level,priority:1" json:"submission_kind"`
	SubmissionID   string         `gorm:"type:uuid;not null;uniqueIndex:uk_approval_slot_level,priority:2"        json:"submission_id"`
	Level          int            `gorm:"not null;uniqueIndex:uk_approval_slot_level,priority:3"                  json:"level"`
	ApproverUserID *string        `gorm:"type:uuid;index"                                               json:"approver_user_id,omitempty"`
	ApproverRole   *string        `gorm:"type:varchar(20);index"                                        json:"approver_role,omitempty"`
	Decision       Decision       `gorm:"type:varchar(20);not null;default:'pending'"                   json:"decision"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
	DecidedBy      *string        `gorm:"type:uuid"                                                     json:"decided_by,omitempty"`
	Note           *string        `gorm:"type:text"                                                     json:"note,omitempty"`
	ProofURL       *string        `gorm:"type:text"                                                     json:"proof_url,omitempty"`
	BaseModel
}

// TableName 指定表名
func (ApprovalSlot) TableName() string { return "approval_slots" }

func (s *ApprovalSlot) BeforeCreate(*gorm.DB) error {
	assignID(&s.ApprovalSlotID)
	return nil
}

// IsPending 节点是否尚未决策
func (s *ApprovalSlot) IsPending() bool {
	return s.Decision == "" || s.Decision == DecisionPending
}
