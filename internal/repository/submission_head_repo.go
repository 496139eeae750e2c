package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"e-hrm/backend/internal/model"
)

// SubmissionHead 审批引擎关心的申请公共字段
type SubmissionHead struct {
	ID           string
	UserID       string
	Status       model.SubmissionStatus
	CurrentLevel *int
	Version      int
}

// SubmissionHeadRepository 跨类型读取/更新申请整体状态
type SubmissionHeadRepository interface {
	// GetHead 读取未删除的申请行
	GetHead(ctx context.Context, kind model.SubmissionKind, id string) (*SubmissionHead, error)
	// LockHead 以 FOR UPDATE 锁定未删除的申请行
	LockHead(ctx context.Context, kind model.SubmissionKind, id string) (*SubmissionHead, error)
	// UpdateState 写入整体状态并递增版本号
	UpdateState(ctx context.Context, kind model.SubmissionKind, id string, state model.WorkflowState, updatedBy *string) error
}

type submissionHeadRepo struct {
	db *gorm.DB
}

// NewSubmissionHeadRepo 创建 SubmissionHeadRepository 实例
func NewSubmissionHeadRepo(db *gorm.DB) SubmissionHeadRepository {
	return &submissionHeadRepo{db: db}
}

func (r *submissionHeadRepo) GetHead(ctx context.Context, kind model.SubmissionKind, id string) (*SubmissionHead, error) {
	return r.head(ctx, kind, id, false)
}

func (r *submissionHeadRepo) LockHead(ctx context.Context, kind model.SubmissionKind, id string) (*SubmissionHead, error) {
	return r.head(ctx, kind, id, true)
}

func (r *submissionHeadRepo) head(ctx context.Context, kind model.SubmissionKind, id string, lock bool) (*SubmissionHead, error) {
	meta, ok := kind.Meta()
	if !ok {
		return nil, fmt.Errorf("未知的申请类型: %s", kind)
	}

	q := r.db.WithContext(ctx).
		Table(meta.Table).
		Select(meta.IDColumn+" AS id, user_id, status, current_level, version").
		Where(meta.IDColumn+" = ? AND deleted_at IS NULL", id)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var head SubmissionHead
	if err := q.Take(&head).Error; err != nil {
		return nil, err
	}
	return &head, nil
}

func (r *submissionHeadRepo) UpdateState(ctx context.Context, kind model.SubmissionKind, id string, state model.WorkflowState, updatedBy *string) error {
	meta, ok := kind.Meta()
	if !ok {
		return fmt.Errorf("未知的申请类型: %s", kind)
	}

	result := r.db.WithContext(ctx).
		Table(meta.Table).
		Where(meta.IDColumn+" = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":        state.Status,
			"current_level": state.CurrentLevel,
			"updated_by":    updatedBy,
			"updated_at":    time.Now().UTC(),
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
