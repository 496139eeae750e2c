package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// ReferenceService 工作时间模板、请假类别与月度额度
type ReferenceService interface {
	CreateWorkPattern(ctx context.Context, req *dto.CreateWorkPatternRequest, actor Actor) (*model.WorkPattern, error)
	ListWorkPatterns(ctx context.Context) ([]model.WorkPattern, error)
	CreateLeaveCategory(ctx context.Context, req *dto.CreateLeaveCategoryRequest, actor Actor) (*model.LeaveCategory, error)
	ListLeaveCategories(ctx context.Context) ([]model.LeaveCategory, error)
	UpsertQuota(ctx context.Context, req *dto.UpsertQuotaRequest, actor Actor) (*model.MonthlyQuota, error)
	ListQuotas(ctx context.Context, req *dto.QuotaListRequest, actor Actor) ([]model.MonthlyQuota, error)
}

type referenceService struct {
	repo   *repository.Repository
	policy AuthorizationPolicy
	logger *zap.Logger
}

// NewReferenceService 创建 ReferenceService 实例
func NewReferenceService(repo *repository.Repository, policy AuthorizationPolicy, logger *zap.Logger) ReferenceService {
	return &referenceService{repo: repo, policy: policy, logger: logger}
}

// ── 工作时间模板 ──

func (s *referenceService) CreateWorkPattern(ctx context.Context, req *dto.CreateWorkPatternRequest, actor Actor) (*model.WorkPattern, error) {
	if !s.policy.IsAdmin(actor.Role) {
		return nil, ErrAdminRequired
	}
	start, err := time.Parse("15:04", strings.TrimSpace(req.StartTime))
	if err != nil {
		return nil, ErrWorkPatternInvalid.WithDetails(pkgerrors.Detail{Field: "start_time", Message: "格式应为 HH:MM"})
	}
	end, err := time.Parse("15:04", strings.TrimSpace(req.EndTime))
	if err != nil {
		return nil, ErrWorkPatternInvalid.WithDetails(pkgerrors.Detail{Field: "end_time", Message: "格式应为 HH:MM"})
	}
	// 允许跨零点的夜班，只拒绝起止相同
	if start.Equal(end) {
		return nil, ErrWorkPatternInvalid.WithMessage("开始与结束时间不能相同")
	}

	p := &model.WorkPattern{
		Name:         strings.TrimSpace(req.Name),
		StartTime:    start.Format("15:04"),
		EndTime:      end.Format("15:04"),
		BreakMinutes: req.BreakMinutes,
	}
	p.CreatedBy = &actor.UserID
	p.UpdatedBy = &actor.UserID
	if err := s.repo.WorkPattern.Create(ctx, p); err != nil {
		s.logger.Error("创建工作时间模板失败", zap.Error(err))
		return nil, pkgerrors.Internal("创建工作时间模板", err)
	}
	return p, nil
}

func (s *referenceService) ListWorkPatterns(ctx context.Context) ([]model.WorkPattern, error) {
	list, err := s.repo.WorkPattern.List(ctx)
	if err != nil {
		s.logger.Error("查询工作时间模板失败", zap.Error(err))
		return nil, pkgerrors.Internal("查询工作时间模板", err)
	}
	return list, nil
}

// ── 请假类别 ──

func (s *referenceService) CreateLeaveCategory(ctx context.Context, req *dto.CreateLeaveCategoryRequest, actor Actor) (*model.LeaveCategory, error) {
	if !s.policy.IsAdmin(actor.Role) {
		return nil, ErrAdminRequired
	}
	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.LeaveCategory.GetByName(ctx, name); err == nil {
		return nil, ErrLeaveCategoryExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Internal("查询请假类别", err)
	}

	c := &model.LeaveCategory{Name: name, QuotaEnabled: req.QuotaEnabled}
	c.CreatedBy = &actor.UserID
	c.UpdatedBy = &actor.UserID
	if err := s.repo.LeaveCategory.Create(ctx, c); err != nil {
		s.logger.Error("创建请假类别失败", zap.Error(err))
		return nil, pkgerrors.Internal("创建请假类别", err)
	}
	return c, nil
}

func (s *referenceService) ListLeaveCategories(ctx context.Context) ([]model.LeaveCategory, error) {
	list, err := s.repo.LeaveCategory.List(ctx)
	if err != nil {
		s.logger.Error("查询请假类别失败", zap.Error(err))
		return nil, pkgerrors.Internal("查询请假类别", err)
	}
	return list, nil
}

// ── 月度额度 ──

func (s *referenceService) UpsertQuota(ctx context.Context, req *dto.UpsertQuotaRequest, actor Actor) (*model.MonthlyQuota, error) {
	if !s.policy.IsAdmin(actor.Role) {
		return nil, ErrAdminRequired
	}
	month, err := time.Parse("2006-01", strings.TrimSpace(req.Month))
	if err != nil {
		return nil, ErrQuotaMonthInvalid
	}
	if req.QuotaDays < 0 {
		return nil, invalidParam("quota_days", "额度不能为负数")
	}
	label := month.Format("2006-01")

	var out *model.MonthlyQuota
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := ensureUser(ctx, tx, req.UserID); err != nil {
			return err
		}
		q, err := tx.Quota.GetForUpdate(ctx, req.UserID, label)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Internal("查询月度额度", err)
		}
		if q == nil {
			q = &model.MonthlyQuota{UserID: req.UserID, Month: label, QuotaDays: req.QuotaDays}
			q.CreatedBy = &actor.UserID
			q.UpdatedBy = &actor.UserID
			if err := tx.Quota.Create(ctx, q); err != nil {
				return pkgerrors.Internal("创建月度额度", err)
			}
			out = q
			return nil
		}
		if err := tx.Quota.SetDays(ctx, q.MonthlyQuotaID, req.QuotaDays, &actor.UserID); err != nil {
			return pkgerrors.Internal("更新月度额度", err)
		}
		q.QuotaDays = req.QuotaDays
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("设置月度额度",
		zap.String("user_id", req.UserID),
		zap.String("month", label),
		zap.Int("quota_days", req.QuotaDays))
	return out, nil
}

func (s *referenceService) ListQuotas(ctx context.Context, req *dto.QuotaListRequest, actor Actor) ([]model.MonthlyQuota, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !s.policy.IsAdmin(actor.Role) {
		return nil, ErrNotOwner
	}
	list, err := s.repo.Quota.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询月度额度失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.Internal("查询月度额度", err)
	}
	return list, nil
}
