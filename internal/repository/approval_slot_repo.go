package repository

import (
	"context"

	"gorm.io/gorm"

	"e-hrm/backend/internal/model"
)

// ApprovalSlotRepository 审批链节点数据访问接口
type ApprovalSlotRepository interface {
	BatchCreate(ctx context.Context, slots []model.ApprovalSlot) error
	GetByID(ctx context.Context, id string) (*model.ApprovalSlot, error)
	ListBySubmission(ctx context.Context, kind model.SubmissionKind, submissionID string) ([]model.ApprovalSlot, error)
	ListBySubmissions(ctx context.Context, kind model.SubmissionKind, submissionIDs []string) ([]model.ApprovalSlot, error)
	// ListPendingForApprover 待 userID 本人或 role 角色决策的节点
	ListPendingForApprover(ctx context.Context, userID, role string, offset, limit int) ([]model.ApprovalSlot, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteBySubmission(ctx context.Context, kind model.SubmissionKind, submissionID string) error
}

type approvalSlotRepo struct {
	db *gorm.DB
}

// NewApprovalSlotRepo 创建 ApprovalSlotRepository 实例
func NewApprovalSlotRepo(db *gorm.DB) ApprovalSlotRepository {
	return &approvalSlotRepo{db: db}
}

func (r *approvalSlotRepo) BatchCreate(ctx context.Context, slots []model.ApprovalSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *approvalSlotRepo) GetByID(ctx context.Context, id string) (*model.ApprovalSlot, error) {
	var slot model.ApprovalSlot
	err := r.db.WithContext(ctx).
		Where("approval_slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *approvalSlotRepo) ListBySubmission(ctx context.Context, kind model.SubmissionKind, submissionID string) ([]model.ApprovalSlot, error) {
	var slots []model.ApprovalSlot
	err := r.db.WithContext(ctx).
		Where("submission_kind = ? AND submission_id = ?", kind, submissionID).
		Order("level ASC").
		Find(&slots).Error
	return slots, err
}

func (r *approvalSlotRepo) ListBySubmissions(ctx context.Context, kind model.SubmissionKind, submissionIDs []string) ([]model.ApprovalSlot, error) {
	if len(submissionIDs) == 0 {
		return nil, nil
	}
	var slots []model.ApprovalSlot
	err := r.db.WithContext(ctx).
		Where("submission_kind = ? AND submission_id IN ?", kind, submissionIDs).
		Order("submission_id ASC, level ASC").
		Find(&slots).Error
	return slots, err
}

func (r *approvalSlotRepo) ListPendingForApprover(ctx context.Context, userID, role string, offset, limit int) ([]model.ApprovalSlot, int64, error) {
	var slots []model.ApprovalSlot
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.ApprovalSlot{}).
		Where("decision = ?", model.DecisionPending).
		Where(r.db.Where("approver_user_id = ?", userID).Or("approver_role = ?", role))

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at ASC, level ASC").
		Find(&slots).Error; err != nil {
		return nil, 0, err
	}

	return slots, total, nil
}

func (r *approvalSlotRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.ApprovalSlot{}).
		Where("approval_slot_id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *approvalSlotRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("approval_slot_id IN ?", ids).
		Delete(&model.ApprovalSlot{}).Error
}

func (r *approvalSlotRepo) DeleteBySubmission(ctx context.Context, kind model.SubmissionKind, submissionID string) error {
	return r.db.WithContext(ctx).
		Where("submission_kind = ? AND submission_id = ?", kind, submissionID).
		Delete(&model.ApprovalSlot{}).Error
}
