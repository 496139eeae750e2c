package repository

import (
	"context"

	"gorm.io/gorm"

	"e-hrm/backend/internal/model"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Notification NotificationRepository

	// 各类申请
	Leave         SubmissionRepository[model.LeaveRequest]
	HourPermit    SubmissionRepository[model.HourPermit]
	DaySwap       SubmissionRepository[model.DaySwapRequest]
	Payment       SubmissionRepository[model.Payment]
	Reimbursement SubmissionRepository[model.Reimbursement]
	PocketMoney   SubmissionRepository[model.PocketMoneyRequest]

	// 审批引擎
	SubmissionHead SubmissionHeadRepository
	ApprovalSlot   ApprovalSlotRepository

	// 排班与额度
	Shift         ShiftRepository
	Quota         QuotaRepository
	WorkPattern   WorkPatternRepository
	LeaveCategory LeaveCategoryRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Notification: NewNotificationRepo(db),

		Leave:         NewSubmissionRepo[model.LeaveRequest](db, "leave_request_id", "Category"),
		HourPermit:    NewSubmissionRepo[model.HourPermit](db, "hour_permit_id"),
		DaySwap:       NewSubmissionRepo[model.DaySwapRequest](db, "day_swap_request_id"),
		Payment:       NewSubmissionRepo[model.Payment](db, "payment_id"),
		Reimbursement: NewSubmissionRepo[model.Reimbursement](db, "reimbursement_id"),
		PocketMoney:   NewSubmissionRepo[model.PocketMoneyRequest](db, "pocket_money_request_id"),

		SubmissionHead: NewSubmissionHeadRepo(db),
		ApprovalSlot:   NewApprovalSlotRepo(db),

		Shift:         NewShiftRepo(db),
		Quota:         NewQuotaRepo(db),
		WorkPattern:   NewWorkPatternRepo(db),
		LeaveCategory: NewLeaveCategoryRepo(db),
	}
}

// DB 底层连接（健康检查与指标使用）
func (r *Repository) DB() *gorm.DB { return r.db }

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 基于事务连接创建新的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个事务中执行 fn；fn 返回错误或 panic 时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
