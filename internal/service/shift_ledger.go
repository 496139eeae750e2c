package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/internal/schedule"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// ── 排班台账调整 ────────────────────────────────────────────
//
// EnsureStatus 保证 (user, date) 当天的有效状态为目标状态：
//   1. 当天已有记录（含软删除）：单日记录原地更新/复活；
//      以当天开始的区间记录先把开始日期挪到次日，腾出唯一键
//   2. 否则若有覆盖当天的区间记录，仅借用其工作模板
//   3. 新建单日记录
// 重复调用结果不变（第二次返回 noop）。
// ─────────────────────────────────────────────────────────────

// 调整动作
const (
	ShiftActionNoop   = "noop"
	ShiftActionUpdate = "update"
	ShiftActionCreate = "create"
)

// AdjustmentResult 单次调整结果
type AdjustmentResult struct {
	Date          time.Time
	Status        model.ShiftStatus
	Action        string
	ShiftRecordID string
	WorkPatternID *string
}

// DTO 转为接口响应
func (r AdjustmentResult) DTO() dto.ShiftAdjustment {
	return dto.ShiftAdjustment{
		Date:          r.Date.Format(schedule.DateLayout),
		Status:        r.Status,
		Action:        r.Action,
		ShiftRecordID: r.ShiftRecordID,
		WorkPatternID: r.WorkPatternID,
	}
}

// ShiftLedger 排班台账调整器
type ShiftLedger interface {
	EnsureStatus(ctx context.Context, tx *repository.Repository, userID string, date time.Time, status model.ShiftStatus, override *string, actorID *string) (*AdjustmentResult, error)
}

type shiftLedger struct {
	logger *zap.Logger
}

// NewShiftLedger 创建排班台账调整器
func NewShiftLedger(logger *zap.Logger) ShiftLedger {
	return &shiftLedger{logger: logger}
}

func (l *shiftLedger) EnsureStatus(ctx context.Context, tx *repository.Repository, userID string, date time.Time, status model.ShiftStatus, override *string, actorID *string) (*AdjustmentResult, error) {
	if !status.Valid() {
		return nil, ErrShiftStatusInvalid
	}
	day := schedule.DateOnly(date)
	key := repository.ShiftKey{UserID: userID, StartDate: day}

	override = trimmed(override)
	if override != nil {
		if _, err := tx.WorkPattern.GetByID(ctx, *override); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrWorkPatternNotFound
			}
			return nil, pkgerrors.Internal("查询工作时间模板", err)
		}
	}

	// 1. 当天唯一键上的记录
	exact, err := tx.Shift.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.logger.Error("查询排班记录失败", zap.String("user_id", userID), zap.Time("date", day), zap.Error(err))
		return nil, pkgerrors.Internal("查询排班记录", err)
	}

	if exact != nil {
		active := !exact.DeletedAt.Valid
		if active && !isSingleDayAt(exact, day) {
			return l.carve(ctx, tx, exact, key, status, override, actorID)
		}

		pattern := override
		if pattern == nil {
			if active {
				pattern = exact.WorkPatternID
			} else {
				pattern, err = l.coveringPattern(ctx, tx, userID, day)
				if err != nil {
					return nil, err
				}
				if pattern == nil {
					pattern = exact.WorkPatternID
				}
			}
		}

		if active && exact.Status == status && sameString(exact.WorkPatternID, pattern) {
			return &AdjustmentResult{
				Date: day, Status: status, Action: ShiftActionNoop,
				ShiftRecordID: exact.ShiftRecordID, WorkPatternID: pattern,
			}, nil
		}

		rec, _, err := tx.Shift.ReviveOrCreate(ctx, key, singleDayFields(day, status, pattern, actorID))
		if err != nil {
			return nil, pkgerrors.Internal("更新排班记录", err)
		}
		return &AdjustmentResult{
			Date: day, Status: status, Action: ShiftActionUpdate,
			ShiftRecordID: rec.ShiftRecordID, WorkPatternID: pattern,
		}, nil
	}

	// 2. 覆盖当天的区间记录只提供模板
	pattern := override
	if pattern == nil {
		pattern, err = l.coveringPattern(ctx, tx, userID, day)
		if err != nil {
			return nil, err
		}
	}

	// 3. 新建单日记录
	rec, _, err := tx.Shift.ReviveOrCreate(ctx, key, singleDayFields(day, status, pattern, actorID))
	if err != nil {
		return nil, pkgerrors.Internal("新建排班记录", err)
	}
	return &AdjustmentResult{
		Date: day, Status: status, Action: ShiftActionCreate,
		ShiftRecordID: rec.ShiftRecordID, WorkPatternID: pattern,
	}, nil
}

// carve 以当天开始的区间记录顺延一天，当天改为单日记录
func (l *shiftLedger) carve(ctx context.Context, tx *repository.Repository, rangeRec *model.ShiftRecord, key repository.ShiftKey, status model.ShiftStatus, override, actorID *string) (*AdjustmentResult, error) {
	next := schedule.AddDays(key.StartDate, 1)

	taken, err := tx.Shift.FindByKey(ctx, repository.ShiftKey{UserID: key.UserID, StartDate: next})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Internal("查询排班记录", err)
	}
	if taken != nil {
		return nil, ErrShiftKeyConflict.WithMessage("%s 已存在排班记录，无法拆分区间记录", next.Format(schedule.DateLayout))
	}

	if err := tx.Shift.MoveStart(ctx, rangeRec.ShiftRecordID, next); err != nil {
		return nil, pkgerrors.Internal("拆分排班记录", err)
	}

	pattern := override
	if pattern == nil {
		pattern = rangeRec.WorkPatternID
	}
	rec, _, err := tx.Shift.ReviveOrCreate(ctx, key, singleDayFields(key.StartDate, status, pattern, actorID))
	if err != nil {
		return nil, pkgerrors.Internal("新建排班记录", err)
	}
	l.logger.Debug("拆分区间排班记录",
		zap.String("range_record_id", rangeRec.ShiftRecordID),
		zap.String("single_record_id", rec.ShiftRecordID),
		zap.Time("date", key.StartDate))

	return &AdjustmentResult{
		Date: key.StartDate, Status: status, Action: ShiftActionCreate,
		ShiftRecordID: rec.ShiftRecordID, WorkPatternID: pattern,
	}, nil
}

func (l *shiftLedger) coveringPattern(ctx context.Context, tx *repository.Repository, userID string, day time.Time) (*string, error) {
	cover, err := tx.Shift.FindCovering(ctx, userID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Internal("查询覆盖排班记录", err)
	}
	return cover.WorkPatternID, nil
}

// isSingleDayAt 记录是否恰为 day 当天的单日记录；结束日期早于开始日期的脏数据也按单日处理
func isSingleDayAt(rec *model.ShiftRecord, day time.Time) bool {
	if rec.EndDate == nil {
		return false
	}
	return !schedule.DateOnly(*rec.EndDate).After(day)
}

func singleDayFields(day time.Time, status model.ShiftStatus, pattern, actorID *string) repository.ShiftFields {
	end := day
	return repository.ShiftFields{
		EndDate:       &end,
		Status:        status,
		WorkPatternID: pattern,
		ActorID:       actorID,
	}
}
