package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/internal/schedule"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// MonthCount 某月涉及的请假天数
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// GroupByMonth 按月份汇总日期，按月份升序
func GroupByMonth(dates []time.Time) []MonthCount {
	counts := make(map[string]int)
	for _, d := range dates {
		counts[schedule.MonthLabel(d)]++
	}
	out := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// QuotaLedger 月度请假额度台账
type QuotaLedger interface {
	// Apply sign=-1 扣减、sign=+1 退还；quotaEnabled 为 false 时不做任何事
	Apply(ctx context.Context, tx *repository.Repository, userID string, dates []time.Time, sign int, quotaEnabled bool, actorID *string) ([]MonthCount, error)
}

type quotaLedger struct {
	logger *zap.Logger
}

// NewQuotaLedger 创建额度台账
func NewQuotaLedger(logger *zap.Logger) QuotaLedger {
	return &quotaLedger{logger: logger}
}

func (l *quotaLedger) Apply(ctx context.Context, tx *repository.Repository, userID string, dates []time.Time, sign int, quotaEnabled bool, actorID *string) ([]MonthCount, error) {
	if !quotaEnabled || len(dates) == 0 {
		return nil, nil
	}
	months := GroupByMonth(dates)
	if sign < 0 {
		return months, l.deduct(ctx, tx, userID, months, actorID)
	}
	return months, l.refund(ctx, tx, userID, months, actorID)
}

// deduct 先锁定并检查全部月份，任何一月不足则整体失败
func (l *quotaLedger) deduct(ctx context.Context, tx *repository.Repository, userID string, months []MonthCount, actorID *string) error {
	rows := make([]*model.MonthlyQuota, len(months))
	var shortages []QuotaShortage

	for i, m := range months {
		q, err := tx.Quota.GetForUpdate(ctx, userID, m.Month)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			l.logger.Error("查询月度额度失败", zap.String("user_id", userID), zap.String("month", m.Month), zap.Error(err))
			return pkgerrors.Internal("查询月度额度", err)
		}
		available := 0
		if q != nil {
			available = q.QuotaDays
		}
		if available < m.Count {
			shortages = append(shortages, QuotaShortage{Month: m.Month, Required: m.Count, Available: available})
		}
		rows[i] = q
	}
	if len(shortages) > 0 {
		return &InsufficientQuotaError{Shortages: shortages}
	}

	for i, m := range months {
		left := rows[i].QuotaDays - m.Count
		if left < 0 {
			left = 0
		}
		if err := tx.Quota.SetDays(ctx, rows[i].MonthlyQuotaID, left, actorID); err != nil {
			return pkgerrors.Internal("扣减月度额度", err)
		}
	}
	return nil
}

// refund 逐月加回，缺失的月份按退还天数新建
func (l *quotaLedger) refund(ctx context.Context, tx *repository.Repository, userID string, months []MonthCount, actorID *string) error {
	for _, m := range months {
		q, err := tx.Quota.GetForUpdate(ctx, userID, m.Month)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Internal("查询月度额度", err)
		}
		if q == nil {
			row := &model.MonthlyQuota{UserID: userID, Month: m.Month, QuotaDays: m.Count}
			row.CreatedBy = actorID
			row.UpdatedBy = actorID
			if err := tx.Quota.Create(ctx, row); err != nil {
				return pkgerrors.Internal("新建月度额度", err)
			}
			continue
		}
		if err := tx.Quota.SetDays(ctx, q.MonthlyQuotaID, q.QuotaDays+m.Count, actorID); err != nil {
			return pkgerrors.Internal("退还月度额度", err)
		}
	}
	return nil
}
