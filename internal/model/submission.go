package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubmissionKind 申请类型
type SubmissionKind string

const (
	KindLeave         SubmissionKind = "leave"
	KindHourPermit    SubmissionKind = "hour_permit"
	KindDaySwap       SubmissionKind = "day_swap"
	KindPayment       SubmissionKind = "payment"
	KindReimbursement SubmissionKind = "reimbursement"
	KindPocketMoney   SubmissionKind = "pocket_money"
)

// KindMeta 申请类型对应的表与主键列
type KindMeta struct {
	Kind     SubmissionKind
	Table    string
	IDColumn string
	Label    string // 通知文案使用
}

var kindMetas = map[SubmissionKind]KindMeta{
	KindLeave:         {KindLeave, "leave_requests", "leave_request_id", "Pengajuan cuti"},
	KindHourPermit:    {KindHourPermit, "hour_permits", "hour_permit_id", "Izin jam"},
	KindDaySwap:       {KindDaySwap, "day_swap_requests", "day_swap_request_id", "Tukar hari"},
	KindPayment:       {KindPayment, "payments", "payment_id", "Payment"},
	KindReimbursement: {KindReimbursement, "reimbursements", "reimbursement_id", "Reimburse"},
	KindPocketMoney:   {KindPocketMoney, "pocket_money_requests", "pocket_money_request_id", "Uang saku"},
}

// Kinds 全部申请类型，顺序固定
func Kinds() []SubmissionKind {
	return []SubmissionKind{KindLeave, KindHourPermit, KindDaySwap, KindPayment, KindReimbursement, KindPocketMoney}
}

// Meta 返回类型元数据
func (k SubmissionKind) Meta() (KindMeta, bool) {
	m, ok := kindMetas[k]
	return m, ok
}

// Valid 是否为已知类型
func (k SubmissionKind) Valid() bool {
	_, ok := kindMetas[k]
	return ok
}

// SubmissionStatus 申请整体状态
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// WorkflowState 由审批节点推导出的整体状态
type WorkflowState struct {
	Status       SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CurrentLevel *int             `json:"current_level"`
}

// Submission 各类申请的公共视图
type Submission interface {
	Kind() SubmissionKind
	ID() string
	OwnerID() string
	State() *WorkflowState
	Versioned() *VersionedModel
}

// ── 请假 ──

// LeaveRequest 请假申请 — 对应 leave_requests
type LeaveRequest struct {
	LeaveRequestID string     `gorm:"type:uuid;primaryKey"     json:"leave_request_id"`
	UserID         string     `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID     string     `gorm:"type:uuid;not null"       json:"category_id"`
	StartDate      time.Time  `gorm:"type:date;not null"       json:"start_date"`
	EndDate        time.Time  `gorm:"type:date;not null"       json:"end_date"`
	Dates          DateList   `gorm:"type:jsonb;not null"      json:"dates"`
	ReturnDate     *time.Time `gorm:"type:date"                json:"return_date,omitempty"`
	Reason         string     `gorm:"type:text"                json:"reason"`
	AttachmentURL  *string    `gorm:"type:text"                json:"attachment_url,omitempty"`
	WorkflowState
	VersionedModel

	Category *LeaveCategory `gorm:"foreignKey:CategoryID;references:LeaveCategoryID" json:"category,omitempty"`
}

func (LeaveRequest) TableName() string            { return "leave_requests" }
func (*LeaveRequest) Kind() SubmissionKind        { return KindLeave }
func (r *LeaveRequest) ID() string                { return r.LeaveRequestID }
func (r *LeaveRequest) OwnerID() string           { return r.UserID }
func (r *LeaveRequest) State() *WorkflowState     { return &r.WorkflowState }
func (r *LeaveRequest) Versioned() *VersionedModel { return &r.VersionedModel }

func (r *LeaveRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.LeaveRequestID)
	return nil
}

// ── 小时请假 ──

// HourPermit 按小时请假 — 对应 hour_permits
type HourPermit struct {
	HourPermitID  string    `gorm:"type:uuid;primaryKey"       json:"hour_permit_id"`
	UserID        string    `gorm:"type:uuid;not null;index"   json:"user_id"`
	PermitDate    time.Time `gorm:"type:date;not null"         json:"permit_date"`
	StartTime     string    `gorm:"type:varchar(5);not null"   json:"start_time"` // HH:MM
	EndTime       string    `gorm:"type:varchar(5);not null"   json:"end_time"`
	Reason        string    `gorm:"type:text"                  json:"reason"`
	AttachmentURL *string   `gorm:"type:text"                  json:"attachment_url,omitempty"`
	WorkflowState
	VersionedModel
}

func (HourPermit) TableName() string             { return "hour_permits" }
func (*HourPermit) Kind() SubmissionKind         { return KindHourPermit }
func (r *HourPermit) ID() string                 { return r.HourPermitID }
func (r *HourPermit) OwnerID() string            { return r.UserID }
func (r *HourPermit) State() *WorkflowState      { return &r.WorkflowState }
func (r *HourPermit) Versioned() *VersionedModel { return &r.VersionedModel }

func (r *HourPermit) BeforeCreate(*gorm.DB) error {
	assignID(&r.HourPermitID)
	return nil
}

// ── 换班 ──

// DaySwapRequest 换休申请 — 对应 day_swap_requests
type DaySwapRequest struct {
	DaySwapRequestID string    `gorm:"type:uuid;primaryKey"     json:"day_swap_request_id"`
	UserID           string    `gorm:"type:uuid;not null;index" json:"user_id"`
	DayGivenUp       time.Time `gorm:"type:date;not null"       json:"day_given_up"`
	DayTaken         time.Time `gorm:"type:date;not null"       json:"day_taken"`
	Reason           string    `gorm:"type:text"                json:"reason"`
	AttachmentURL    *string   `gorm:"type:text"                json:"attachment_url,omitempty"`
	WorkflowState
	VersionedModel
}

func (DaySwapRequest) TableName() string             { return "day_swap_requests" }
func (*DaySwapRequest) Kind() SubmissionKind         { return KindDaySwap }
func (r *DaySwapRequest) ID() string                 { return r.DaySwapRequestID }
func (r *DaySwapRequest) OwnerID() string            { return r.UserID }
func (r *DaySwapRequest) State() *WorkflowState      { return &r.WorkflowState }
func (r *DaySwapRequest) Versioned() *VersionedModel { return &r.VersionedModel }

func (r *DaySwapRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.DaySwapRequestID)
	return nil
}

// ── 付款 ──

// Payment 付款申请 — 对应 payments
type Payment struct {
	PaymentID     string          `gorm:"type:uuid;primaryKey"          json:"payment_id"`
	UserID        string          `gorm:"type:uuid;not null;index"      json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"   json:"amount"`
	Method        string          `gorm:"type:varchar(30)"              json:"method"`
	Reference     string          `gorm:"type:varchar(100)"             json:"reference"`
	Description   string          `gorm:"type:text"                     json:"description"`
	AttachmentURL *string         `gorm:"type:text"                     json:"attachment_url,omitempty"`
	WorkflowState
	VersionedModel
}

func (Payment) TableName() string             { return "payments" }
func (*Payment) Kind() SubmissionKind         { return KindPayment }
func (r *Payment) ID() string                 { return r.PaymentID }
func (r *Payment) OwnerID() string            { return r.UserID }
func (r *Payment) State() *WorkflowState      { return &r.WorkflowState }
func (r *Payment) Versioned() *VersionedModel { return &r.VersionedModel }

func (r *Payment) BeforeCreate(*gorm.DB) error {
	assignID(&r.PaymentID)
	return nil
}

// ── 报销 ──

// Reimbursement 报销申请 — 对应 reimbursements
type Reimbursement struct {
	ReimbursementID string          `gorm:"type:uuid;primaryKey"        json:"reimbursement_id"`
	UserID          string          `gorm:"type:uuid;not null;index"    json:"user_id"`
	Category        string          `gorm:"type:varchar(50);not null"   json:"category"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description     string          `gorm:"type:text"                   json:"description"`
	AttachmentURL   *string         `gorm:"type:text"                   json:"attachment_url,omitempty"`
	WorkflowState
	VersionedModel
}

func (Reimbursement) TableName() string             { return "reimbursements" }
func (*Reimbursement) Kind() SubmissionKind         { return KindReimbursement }
func (r *Reimbursement) ID() string                 { return r.ReimbursementID }
func (r *Reimbursement) OwnerID() string            { return r.UserID }
func (r *Reimbursement) State() *WorkflowState      { return &r.WorkflowState }
func (r *Reimbursement) Versioned() *VersionedModel { return &r.VersionedModel }

func (r *Reimbursement) BeforeCreate(*gorm.DB) error {
	assignID(&r.ReimbursementID)
	return nil
}

// ── 零用金 ──

// PocketMoneyRequest 零用金申请 — 对应 pocket_money_requests
type PocketMoneyRequest struct {
	PocketMoneyRequestID string          `gorm:"type:uuid;primaryKey"        json:"pocket_money_request_id"`
	UserID               string          `gorm:"type:uuid;not null;index"    json:"user_id"`
	Amount               decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PeriodStart          time.Time       `gorm:"type:date;not null"          json:"period_start"`
	PeriodEnd            time.Time       `gorm:"type:date;not null"          json:"period_end"`
	Description          string          `gorm:"type:text"                   json:"description"`
	AttachmentURL        *string         `gorm:"type:text"                   json:"attachment_url,omitempty"`
	WorkflowState
	VersionedModel
}

func (PocketMoneyRequest) TableName() string             { return "pocket_money_requests" }
func (*PocketMoneyRequest) Kind() SubmissionKind         { return KindPocketMoney }
func (r *PocketMoneyRequest) ID() string                 { return r.PocketMoneyRequestID }
func (r *PocketMoneyRequest) OwnerID() string            { return r.UserID }
func (r *PocketMoneyRequest) State() *WorkflowState      { return &r.WorkflowState }
func (r *PocketMoneyRequest) Versioned() *VersionedModel { return &r.VersionedModel }

func (r *PocketMoneyRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.PocketMoneyRequestID)
	return nil
}
