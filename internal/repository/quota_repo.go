package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"e-hrm/backend/internal/model"
)

// QuotaRepository 月度请假额度数据访问接口
type QuotaRepository interface {
	// GetForUpdate 以 FOR UPDATE 锁定 (user, month) 额度行
	GetForUpdate(ctx context.Context, userID, month string) (*model.MonthlyQuota, error)
	Get(ctx context.Context, userID, month string) (*model.MonthlyQuota, error)
	Create(ctx context.Context, q *model.MonthlyQuota) error
	SetDays(ctx context.Context, id string, days int, updatedBy *string) error
	ListByUser(ctx context.Context, userID string) ([]model.MonthlyQuota, error)
}

type quotaRepo struct {
	db *gorm.DB
}

// NewQuotaRepo 创建 QuotaRepository 实例
func NewQuotaRepo(db *gorm.DB) QuotaRepository {
	return &quotaRepo{db: db}
}

func (r *quotaRepo) GetForUpdate(ctx context.Context, userID, month string) (*model.MonthlyQuota, error) {
	var q model.MonthlyQuota
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND month = ?", userID, month).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotaRepo) Get(ctx context.Context, userID, month string) (*model.MonthlyQuota, error) {
	var q model.MonthlyQuota
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND month = ?", userID, month).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotaRepo) Create(ctx context.Context, q *model.MonthlyQuota) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quotaRepo) SetDays(ctx context.Context, id string, days int, updatedBy *string) error {
	return r.db.WithContext(ctx).
		Model(&model.MonthlyQuota{}).
		Where("monthly_quota_id = ?", id).
		Updates(map[string]interface{}{
			"quota_days": days,
			"updated_by": updatedBy,
		}).Error
}

func (r *quotaRepo) ListByUser(ctx context.Context, userID string) ([]model.MonthlyQuota, error) {
	var list []model.MonthlyQuota
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("month ASC").
		Find(&list).Error
	return list, err
}
