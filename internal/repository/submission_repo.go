package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "e-hrm/backend/pkg/errors"
)

// SubmissionFilter 申请列表筛选条件
type SubmissionFilter struct {
	UserID string
	Status string
	Offset int
	Limit  int
}

// SubmissionRepository 各类申请共用的数据访问接口
type SubmissionRepository[E any] interface {
	Create(ctx context.Context, e *E) error
	GetByID(ctx context.Context, id string) (*E, error)
	// Update 乐观锁更新，version 不匹配时返回 ErrOptimisticLock
	Update(ctx context.Context, id string, version int, fields map[string]interface{}) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter SubmissionFilter) ([]E, int64, error)
}

type submissionRepo[E any] struct {
	db       *gorm.DB
	idColumn string
	preloads []string
}

// NewSubmissionRepo 创建申请 Repository，idColumn 为主键列名
func NewSubmissionRepo[E any](db *gorm.DB, idColumn string, preloads ...string) SubmissionRepository[E] {
	return &submissionRepo[E]{db: db, idColumn: idColumn, preloads: preloads}
}

func (r *submissionRepo[E]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

func (r *submissionRepo[E]) Create(ctx context.Context, e *E) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

func (r *submissionRepo[E]) GetByID(ctx context.Context, id string) (*E, error) {
	var e E
	err := r.query(ctx).
		Where(r.idColumn+" = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *submissionRepo[E]) Update(ctx context.Context, id string, version int, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = version + 1

	result := r.db.WithContext(ctx).
		Model(new(E)).
		Where(r.idColumn+" = ? AND version = ?", id, version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *submissionRepo[E]) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(new(E)).
		Where(r.idColumn+" = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": time.Now().UTC(),
			"deleted_by": deletedBy,
		}).Error
}

func (r *submissionRepo[E]) List(ctx context.Context, filter SubmissionFilter) ([]E, int64, error) {
	var list []E
	var total int64

	db := r.db.WithContext(ctx).Model(new(E))
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
