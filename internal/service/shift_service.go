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
	"e-hrm/backend/internal/schedule"
	"e-hrm/backend/pkg/metrics"
	"e-hrm/backend/pkg/notify"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// 日历默认与最大跨度（天）
const (
	defaultCalendarDays = 31
	maxCalendarDays     = 186
)

// ShiftService 排班台账业务接口
type ShiftService interface {
	// PreviewWeekly 只做归一化，不落库
	PreviewWeekly(req *dto.WeeklyPreviewRequest) (*dto.WeeklyPreviewResponse, error)
	CreateWeekly(ctx context.Context, req *dto.CreateWeeklyShiftRequest, actor Actor) (*dto.WeeklyShiftResponse, error)
	Adjust(ctx context.Context, req *dto.AdjustShiftRequest, actor Actor) (*dto.ShiftAdjustment, error)
	List(ctx context.Context, req *dto.ShiftListRequest, actor Actor) ([]model.ShiftRecord, error)
	// Calendar 按日展开有效排班并导出 iCalendar
	Calendar(ctx context.Context, req *dto.ShiftListRequest, actor Actor) ([]byte, error)
}

type shiftService struct {
	repo     *repository.Repository
	ledger   ShiftLedger
	policy   AuthorizationPolicy
	notifier notify.Publisher
	logger   *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, ledger ShiftLedger, policy AuthorizationPolicy, notifier notify.Publisher, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, ledger: ledger, policy: policy, notifier: notifier, logger: logger}
}

// ────────────────────── PreviewWeekly ──────────────────────

func (s *shiftService) PreviewWeekly(req *dto.WeeklyPreviewRequest) (*dto.WeeklyPreviewResponse, error) {
	fallbackStart, err := parseOptionalDate(req.FallbackStart, "fallback_start")
	if err != nil {
		return nil, err
	}
	fallbackEnd, err := parseOptionalDate(req.FallbackEnd, "fallback_end")
	if err != nil {
		return nil, err
	}
	n, err := schedule.Normalize(req.Pattern, fallbackStart, fallbackEnd)
	if err != nil {
		return nil, err
	}
	resp := previewResponse(n)
	return &resp, nil
}

// ────────────────────── CreateWeekly ──────────────────────

func (s *shiftService) CreateWeekly(ctx context.Context, req *dto.CreateWeeklyShiftRequest, actor Actor) (*dto.WeeklyShiftResponse, error) {
	if !s.policy.IsAdmin(actor.Role) {
		return nil, ErrAdminRequired
	}
	n, err := schedule.Normalize(req.Pattern, nil, nil)
	if err != nil {
		return nil, err
	}
	raw, err := n.Pattern().Encode()
	if err != nil {
		return nil, pkgerrors.Internal("序列化排班模式", err)
	}

	var (
		rec     *model.ShiftRecord
		created bool
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := ensureUser(ctx, tx, req.UserID); err != nil {
			return err
		}
		workPattern := trimmed(req.WorkPatternID)
		if workPattern != nil {
			if err := ensureWorkPattern(ctx, tx, *workPattern); err != nil {
				return err
			}
		}
		key := repository.ShiftKey{UserID: req.UserID, StartDate: n.DerivedStart}
		// 单日记录承载请假/调班结果，不能被每周排班覆盖
		existing, err := tx.Shift.FindByKey(ctx, key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Internal("查询排班记录", err)
		}
		if existing != nil && !existing.DeletedAt.Valid && existing.IsSingleDay() && len(existing.WeeklyPattern) == 0 {
			return ErrShiftKeyConflict.WithMessage("%s 已存在单日排班记录，请调整起始日期",
				n.DerivedStart.Format(schedule.DateLayout))
		}
		rec, created, err = tx.Shift.ReviveOrCreate(ctx, key,
			repository.ShiftFields{
				EndDate:       n.DerivedEnd,
				Status:        model.ShiftWork,
				WorkPatternID: workPattern,
				WeeklyPattern: raw,
				ActorID:       &actor.UserID,
			})
		if err != nil {
			s.logger.Error("写入每周排班失败", zap.String("user_id", req.UserID), zap.Error(err))
			return pkgerrors.Internal("写入每周排班", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := ShiftActionUpdate
	if created {
		action = ShiftActionCreate
	}
	metrics.RecordShiftAdjustment(action)
	s.logger.Info("写入每周排班",
		zap.String("user_id", req.UserID),
		zap.String("record_id", rec.ShiftRecordID),
		zap.Bool("created", created))

	return &dto.WeeklyShiftResponse{Record: rec, Created: created, Preview: previewResponse(n)}, nil
}

// ────────────────────── Adjust ──────────────────────

func (s *shiftService) Adjust(ctx context.Context, req *dto.AdjustShiftRequest, actor Actor) (*dto.ShiftAdjustment, error) {
	if !s.policy.IsAdmin(actor.Role) {
		return nil, ErrAdminRequired
	}
	day, ok := schedule.ParseDate(req.Date)
	if !ok {
		return nil, ErrShiftDateInvalid
	}
	status := model.ShiftStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return nil, ErrShiftStatusInvalid
	}

	var result *AdjustmentResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := ensureUser(ctx, tx, req.UserID); err != nil {
			return err
		}
		var err error
		result, err = s.ledger.EnsureStatus(ctx, tx, req.UserID, day, status, req.WorkPatternID, &actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordShiftAdjustment(result.Action)
	if result.Action != ShiftActionNoop {
		s.notifier.Notify(shiftAdjustedEvent("", "", req.UserID, actor.UserID, []AdjustmentResult{*result}))
	}
	out := result.DTO()
	return &out, nil
}

// ────────────────────── List ──────────────────────

func (s *shiftService) List(ctx context.Context, req *dto.ShiftListRequest, actor Actor) ([]model.ShiftRecord, error) {
	userID, err := s.subject(req.UserID, actor)
	if err != nil {
		return nil, err
	}
	from, err := parseOptionalDate(&req.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate(&req.To, "to")
	if err != nil {
		return nil, err
	}

	list, err := s.repo.Shift.ListByUser(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询排班台账失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.Internal("查询排班台账", err)
	}
	return list, nil
}

// ────────────────────── Calendar ──────────────────────

func (s *shiftService) Calendar(ctx context.Context, req *dto.ShiftListRequest, actor Actor) ([]byte, error) {
	userID, err := s.subject(req.UserID, actor)
	if err != nil {
		return nil, err
	}
	from, to, err := calendarWindow(req.From, req.To, time.Now())
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Shift.ListByUser(ctx, userID, &from, &to)
	if err != nil {
		s.logger.Error("查询排班台账失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.Internal("查询排班台账", err)
	}
	days := ResolveDays(records, from, to, s.logger)
	return RenderCalendar(userID, days, time.Now().UTC()), nil
}

// subject 非管理员只能查看自己的排班
func (s *shiftService) subject(requested string, actor Actor) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == actor.UserID {
		return actor.UserID, nil
	}
	if !s.policy.IsAdmin(actor.Role) {
		return "", ErrNotOwner
	}
	return requested, nil
}

// calendarWindow 默认从今天起 31 天，跨度上限 186 天
func calendarWindow(fromRaw, toRaw string, now time.Time) (time.Time, time.Time, error) {
	from := schedule.DateOnly(now)
	if strings.TrimSpace(fromRaw) != "" {
		d, ok := schedule.ParseDate(fromRaw)
		if !ok {
			return time.Time{}, time.Time{}, invalidParam("from", "格式应为 YYYY-MM-DD")
		}
		from = d
	}
	to := schedule.AddDays(from, defaultCalendarDays-1)
	if strings.TrimSpace(toRaw) != "" {
		d, ok := schedule.ParseDate(toRaw)
		if !ok {
			return time.Time{}, time.Time{}, invalidParam("to", "格式应为 YYYY-MM-DD")
		}
		to = d
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalidParam("to", "结束日期不能早于开始日期")
	}
	if schedule.AddDays(from, maxCalendarDays-1).Before(to) {
		return time.Time{}, time.Time{}, invalidParam("to", "日历跨度不能超过 186 天")
	}
	return from, to, nil
}

func previewResponse(n *schedule.Normalized) dto.WeeklyPreviewResponse {
	resp := dto.WeeklyPreviewResponse{
		Weekdays:     make([]int, len(n.Weekdays)),
		StartDate:    n.StartDate.Format(schedule.DateLayout),
		EndDate:      formatDatePtr(n.EndDate),
		DerivedStart: n.DerivedStart.Format(schedule.DateLayout),
		DerivedEnd:   formatDatePtr(n.DerivedEnd),
		ReferenceWeek: dto.ReferenceWeek{
			Start: n.ReferenceWeek.Start.Format(schedule.DateLayout),
			End:   n.ReferenceWeek.End.Format(schedule.DateLayout),
		},
	}
	for i, wd := range n.Weekdays {
		resp.Weekdays[i] = int(wd)
	}
	for _, occ := range n.Occurrences {
		resp.Occurrences = append(resp.Occurrences, dto.WeekdayOccurrence{
			Weekday: int(occ.Weekday),
			First:   occ.First.Format(schedule.DateLayout),
			Last:    formatDatePtr(occ.Last),
		})
	}
	for _, d := range n.Dates {
		resp.Dates = append(resp.Dates, d.Format(schedule.DateLayout))
	}
	return resp
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(schedule.DateLayout)
	return &s
}

func ensureUser(ctx context.Context, tx *repository.Repository, id string) error {
	if _, err := tx.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return pkgerrors.Internal("查询用户", err)
	}
	return nil
}

func ensureWorkPattern(ctx context.Context, tx *repository.Repository, id string) error {
	if _, err := tx.WorkPattern.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkPatternNotFound
		}
		return pkgerrors.Internal("查询工作时间模板", err)
	}
	return nil
}
