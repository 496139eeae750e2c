package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"e-hrm/backend/internal/model"
)

// ShiftKey 排班台账唯一键
type ShiftKey struct {
	UserID    string
	StartDate time.Time
}

// ShiftFields ReviveOrCreate 写入的字段
type ShiftFields struct {
	EndDate        *time.Time
	Status         model.ShiftStatus
	WorkPatternID  *string
	WeeklyPattern  datatypes.JSON
	LegacyWorkdays *string
	ActorID        *string
}

// ShiftRepository 排班台账数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, rec *model.ShiftRecord) error
	GetByID(ctx context.Context, id string) (*model.ShiftRecord, error)
	// FindByKey 按唯一键查找，包含已软删除记录
	FindByKey(ctx context.Context, key ShiftKey) (*model.ShiftRecord, error)
	// FindCovering 查找区间覆盖 date 的有效记录（含长期记录），取开始日期最近的一条
	FindCovering(ctx context.Context, userID string, date time.Time) (*model.ShiftRecord, error)
	// ReviveOrCreate 键已存在（含软删除）时更新并复活，否则新建
	ReviveOrCreate(ctx context.Context, key ShiftKey, fields ShiftFields) (rec *model.ShiftRecord, created bool, err error)
	// MoveStart 修改记录开始日期
	MoveStart(ctx context.Context, id string, newStart time.Time) error
	ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]model.ShiftRecord, error)
	Delete(ctx context.Context, id, deletedBy string) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, rec *model.ShiftRecord) error {
	return r.db.WithContext(ctx).Omit("WorkPattern").Create(rec).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := r.db.WithContext(ctx).
		Preload("WorkPattern").
		Where("shift_record_id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *shiftRepo) FindByKey(ctx context.Context, key ShiftKey) (*model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND start_date = ?", key.UserID, key.StartDate).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *shiftRepo) FindCovering(ctx context.Context, userID string, date time.Time) (*model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)", userID, date, date).
		Order("start_date DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *shiftRepo) ReviveOrCreate(ctx context.Context, key ShiftKey, fields ShiftFields) (*model.ShiftRecord, bool, error) {
	existing, err := r.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if existing == nil {
		rec := &model.ShiftRecord{
			UserID:         key.UserID,
			StartDate:      key.StartDate,
			EndDate:        fields.EndDate,
			Status:         fields.Status,
			WorkPatternID:  fields.WorkPatternID,
			WeeklyPattern:  fields.WeeklyPattern,
			LegacyWorkdays: fields.LegacyWorkdays,
		}
		rec.CreatedBy = fields.ActorID
		rec.UpdatedBy = fields.ActorID
		if err := r.Create(ctx, rec); err != nil {
			return nil, false, err
		}
		return rec, true, nil
	}

	err = r.db.WithContext(ctx).
		Unscoped().
		Model(&model.ShiftRecord{}).
		Where("shift_record_id = ?", existing.ShiftRecordID).
		Updates(map[string]interface{}{
			"end_date":        fields.EndDate,
			"status":          fields.Status,
			"work_pattern_id": fields.WorkPatternID,
			"weekly_pattern":  fields.WeeklyPattern,
			"legacy_workdays": fields.LegacyWorkdays,
			"updated_by":      fields.ActorID,
			"deleted_at":      nil,
			"deleted_by":      nil,
		}).Error
	if err != nil {
		return nil, false, err
	}

	existing.EndDate = fields.EndDate
	existing.Status = fields.Status
	existing.WorkPatternID = fields.WorkPatternID
	existing.WeeklyPattern = fields.WeeklyPattern
	existing.LegacyWorkdays = fields.LegacyWorkdays
	existing.UpdatedBy = fields.ActorID
	existing.DeletedAt = gorm.DeletedAt{}
	existing.DeletedBy = nil
	return existing, false, nil
}

func (r *shiftRepo) MoveStart(ctx context.Context, id string, newStart time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ShiftRecord{}).
		Where("shift_record_id = ?", id).
		Update("start_date", newStart).Error
}

func (r *shiftRepo) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]model.ShiftRecord, error) {
	var list []model.ShiftRecord
	db := r.db.WithContext(ctx).
		Preload("WorkPattern").
		Where("user_id = ?", userID)
	if from != nil {
		db = db.Where("(end_date IS NULL OR end_date >= ?)", *from)
	}
	if to != nil {
		db = db.Where("start_date <= ?", *to)
	}
	err := db.Order("start_date ASC").Find(&list).Error
	return list, err
}

func (r *shiftRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ShiftRecord{}).
		Where("shift_record_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": time.Now().UTC(),
			"deleted_by": deletedBy,
		}).Error
}
