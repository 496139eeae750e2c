package repository

import (
	"context"

	"gorm.io/gorm"

	"e-hrm/backend/internal/model"
)

// WorkPatternRepository 工作时间模板数据访问接口
type WorkPatternRepository interface {
	Create(ctx context.Context, p *model.WorkPattern) error
	GetByID(ctx context.Context, id string) (*model.WorkPattern, error)
	List(ctx context.Context) ([]model.WorkPattern, error)
}

// LeaveCategoryRepository 请假类别数据访问接口
type LeaveCategoryRepository interface {
	Create(ctx context.Context, c *model.LeaveCategory) error
	GetByID(ctx context.Context, id string) (*model.LeaveCategory, error)
	// GetByIDUnscoped 包含已软删除的类别，审批副作用按原类别计算额度
	GetByIDUnscoped(ctx context.Context, id string) (*model.LeaveCategory, error)
	GetByName(ctx context.Context, name string) (*model.LeaveCategory, error)
	List(ctx context.Context) ([]model.LeaveCategory, error)
}

// ── WorkPattern Repository 实现 ──

type workPatternRepo struct {
	db *gorm.DB
}

func NewWorkPatternRepo(db *gorm.DB) WorkPatternRepository {
	return &workPatternRepo{db: db}
}

func (r *workPatternRepo) Create(ctx context.Context, p *model.WorkPattern) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *workPatternRepo) GetByID(ctx context.Context, id string) (*model.WorkPattern, error) {
	var p model.WorkPattern
	err := r.db.WithContext(ctx).
		Where("work_pattern_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *workPatternRepo) List(ctx context.Context) ([]model.WorkPattern, error) {
	var list []model.WorkPattern
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

// ── LeaveCategory Repository 实现 ──

type leaveCategoryRepo struct {
	db *gorm.DB
}

func NewLeaveCategoryRepo(db *gorm.DB) LeaveCategoryRepository {
	return &leaveCategoryRepo{db: db}
}

func (r *leaveCategoryRepo) Create(ctx context.Context, c *model.LeaveCategory) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *leaveCategoryRepo) GetByID(ctx context.Context, id string) (*model.LeaveCategory, error) {
	var c model.LeaveCategory
	err := r.db.WithContext(ctx).
		Where("leave_category_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *leaveCategoryRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.LeaveCategory, error) {
	var c model.LeaveCategory
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("leave_category_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *leaveCategoryRepo) GetByName(ctx context.Context, name string) (*model.LeaveCategory, error) {
	var c model.LeaveCategory
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *leaveCategoryRepo) List(ctx context.Context) ([]model.LeaveCategory, error) {
	var list []model.LeaveCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}
