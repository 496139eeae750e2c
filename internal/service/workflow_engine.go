package service

import (
	"context"
	"errors"
	"fmt"
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

// ── 审批流程引擎 ────────────────────────────────────────────
//
// 各类申请共用：审批链维护、整体状态推导、状态迁移副作用与提交后通知。
// 副作用以 transitionHook 按类型注册，与决策写入处于同一事务，
// 任一副作用失败整个事务回滚；通知只在提交成功后入队。
// ─────────────────────────────────────────────────────────────

// DecisionInput 决策时随附、供副作用使用的参数
type DecisionInput struct {
	DayGivenUpPatternID *string
	DayTakenPatternID   *string
	ReturnPatternID     *string
}

// Transition 申请整体状态迁移
type Transition struct {
	Kind         model.SubmissionKind
	SubmissionID string
	OwnerID      string
	From         model.SubmissionStatus
	To           model.SubmissionStatus
	Actor        Actor
	Input        DecisionInput
}

// Entering 是否进入 status
func (t *Transition) Entering(status model.SubmissionStatus) bool {
	return t.From != status && t.To == status
}

// Leaving 是否离开 status
func (t *Transition) Leaving(status model.SubmissionStatus) bool {
	return t.From == status && t.To != status
}

// TransitionEffects 迁移副作用摘要（用于响应与通知）
type TransitionEffects struct {
	Shifts      []AdjustmentResult
	QuotaMonths []MonthCount
	QuotaSign   int
}

// transitionHook 类型专属的状态迁移副作用
type transitionHook func(ctx context.Context, tx *repository.Repository, t *Transition) (*TransitionEffects, error)

type workflowEngine struct {
	chain    *approvalChain
	quota    QuotaLedger
	shifts   ShiftLedger
	policy   AuthorizationPolicy
	notifier notify.Publisher
	hooks    map[model.SubmissionKind]transitionHook
	logger   *zap.Logger
}

func newWorkflowEngine(quota QuotaLedger, shifts ShiftLedger, policy AuthorizationPolicy, notifier notify.Publisher, logger *zap.Logger) *workflowEngine {
	e := &workflowEngine{
		chain:    newApprovalChain(),
		quota:    quota,
		shifts:   shifts,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
	}
	e.hooks = map[model.SubmissionKind]transitionHook{
		model.KindLeave:   e.leaveTransition,
		model.KindDaySwap: e.daySwapTransition,
	}
	return e
}

// transition 执行类型副作用；未注册副作用的类型直接返回空摘要
func (e *workflowEngine) transition(ctx context.Context, tx *repository.Repository, t *Transition) (*TransitionEffects, error) {
	hook, ok := e.hooks[t.Kind]
	if !ok {
		return &TransitionEffects{}, nil
	}
	return hook(ctx, tx, t)
}

// restart 同步审批链并把申请重置为 pending/null；离开 approved 时执行对应副作用
func (e *workflowEngine) restart(ctx context.Context, tx *repository.Repository, kind model.SubmissionKind, head *repository.SubmissionHead, inputs []dto.ApprovalSlotInput, actor Actor) (*ChainSyncResult, *TransitionEffects, error) {
	res, err := e.chain.Sync(ctx, tx, kind, head.ID, inputs, &actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !hasPendingSlot(res.Slots) {
		return nil, nil, ErrChainInvalid.WithMessage("修改后的审批链至少需要一个待审批节点")
	}

	pending := model.WorkflowState{Status: model.StatusPending}
	if err := tx.SubmissionHead.UpdateState(ctx, kind, head.ID, pending, &actor.UserID); err != nil {
		return nil, nil, pkgerrors.Internal("重置申请状态", err)
	}

	effects := &TransitionEffects{}
	if head.Status != model.StatusPending {
		effects, err = e.transition(ctx, tx, &Transition{
			Kind:         kind,
			SubmissionID: head.ID,
			OwnerID:      head.UserID,
			From:         head.Status,
			To:           model.StatusPending,
			Actor:        actor,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	head.Status = model.StatusPending
	head.CurrentLevel = nil
	head.Version++
	return res, effects, nil
}

func hasPendingSlot(slots []model.ApprovalSlot) bool {
	for i := range slots {
		if slots[i].IsPending() {
			return true
		}
	}
	return false
}

// lockHead 锁定申请行，不存在时返回 ErrSubmissionNotFound
func (e *workflowEngine) lockHead(ctx context.Context, tx *repository.Repository, kind model.SubmissionKind, id string) (*repository.SubmissionHead, error) {
	head, err := tx.SubmissionHead.LockHead(ctx, kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, pkgerrors.Internal("锁定申请", err)
	}
	return head, nil
}

// ── 类型副作用 ──

// leaveTransition 请假：进入 approved 扣额度、请假日 OFF、返岗日 WORK；离开 approved 退额度
func (e *workflowEngine) leaveTransition(ctx context.Context, tx *repository.Repository, t *Transition) (*TransitionEffects, error) {
	entering, leaving := t.Entering(model.StatusApproved), t.Leaving(model.StatusApproved)
	if !entering && !leaving {
		return &TransitionEffects{}, nil
	}

	leave, err := tx.Leave.GetByID(ctx, t.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, pkgerrors.Internal("查询请假申请", err)
	}
	category, err := tx.LeaveCategory.GetByIDUnscoped(ctx, leave.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveCategoryNotFound
		}
		return nil, pkgerrors.Internal("查询请假类别", err)
	}

	dates := []time.Time(leave.Dates.Normalize())
	actorID := &t.Actor.UserID
	effects := &TransitionEffects{}

	if leaving {
		months, err := e.quota.Apply(ctx, tx, leave.UserID, dates, +1, category.QuotaEnabled, actorID)
		if err != nil {
			return nil, err
		}
		effects.QuotaMonths, effects.QuotaSign = months, +1
		return effects, nil
	}

	// 1. 扣减额度
	months, err := e.quota.Apply(ctx, tx, leave.UserID, dates, -1, category.QuotaEnabled, actorID)
	if err != nil {
		return nil, err
	}
	effects.QuotaMonths, effects.QuotaSign = months, -1

	// 2. 请假日 OFF
	for _, d := range dates {
		res, err := e.shifts.EnsureStatus(ctx, tx, leave.UserID, d, model.ShiftOff, nil, actorID)
		if err != nil {
			return nil, err
		}
		effects.Shifts = append(effects.Shifts, *res)
	}

	// 3. 返岗日 WORK
	if leave.ReturnDate != nil {
		if trimmed(t.Input.ReturnPatternID) == nil {
			return nil, ErrReturnPatternRequired
		}
		res, err := e.shifts.EnsureStatus(ctx, tx, leave.UserID, *leave.ReturnDate, model.ShiftWork, t.Input.ReturnPatternID, actorID)
		if err != nil {
			return nil, err
		}
		effects.Shifts = append(effects.Shifts, *res)
	}
	return effects, nil
}

// daySwapTransition 换休：进入 approved 时放弃日 OFF、调换日 WORK；其余迁移不回滚排班
func (e *workflowEngine) daySwapTransition(ctx context.Context, tx *repository.Repository, t *Transition) (*TransitionEffects, error) {
	if !t.Entering(model.StatusApproved) {
		return &TransitionEffects{}, nil
	}

	swap, err := tx.DaySwap.GetByID(ctx, t.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, pkgerrors.Internal("查询换休申请", err)
	}

	actorID := &t.Actor.UserID
	effects := &TransitionEffects{}

	off, err := e.shifts.EnsureStatus(ctx, tx, swap.UserID, swap.DayGivenUp, model.ShiftOff, t.Input.DayGivenUpPatternID, actorID)
	if err != nil {
		return nil, err
	}
	work, err := e.shifts.EnsureStatus(ctx, tx, swap.UserID, swap.DayTaken, model.ShiftWork, t.Input.DayTakenPatternID, actorID)
	if err != nil {
		return nil, err
	}
	effects.Shifts = append(effects.Shifts, *off, *work)
	return effects, nil
}

// ── 提交后记录 ──

// recordEffects 事务提交后记录指标
func recordEffects(kind model.SubmissionKind, from, to model.SubmissionStatus, effects *TransitionEffects) {
	if from != to {
		metrics.RecordTransition(string(kind), string(from), string(to))
	}
	if effects == nil {
		return
	}
	for _, s := range effects.Shifts {
		metrics.RecordShiftAdjustment(s.Action)
	}
}

// ── 通知事件 ──

func kindLabel(kind model.SubmissionKind) string {
	if meta, ok := kind.Meta(); ok {
		return meta.Label
	}
	return string(kind)
}

// approvalRequestedEvents 通知待决策节点的审批人（用户或角色）
func approvalRequestedEvents(kind model.SubmissionKind, submissionID, ownerID, actorID string, slots []model.ApprovalSlot) []notify.Event {
	events := make([]notify.Event, 0, len(slots))
	for _, s := range slots {
		if !s.IsPending() {
			continue
		}
		ev := notify.Event{
			Type:        notify.EventApprovalRequested,
			ActorID:     actorID,
			Title:       fmt.Sprintf("%s menunggu persetujuan", kindLabel(kind)),
			Body:        fmt.Sprintf("%s level %d menunggu keputusan Anda.", kindLabel(kind), s.Level),
			RelatedKind: string(kind),
			RelatedID:   submissionID,
			Payload: map[string]interface{}{
				"approval_slot_id": s.ApprovalSlotID,
				"level":            s.Level,
				"owner_id":         ownerID,
			},
		}
		switch {
		case s.ApproverUserID != nil:
			ev.UserID = *s.ApproverUserID
		case s.ApproverRole != nil:
			ev.Role = *s.ApproverRole
		default:
			continue
		}
		events = append(events, ev)
	}
	return events
}

// decisionEvents 通知申请人：节点决策、整体状态变化、排班调整
func decisionEvents(kind model.SubmissionKind, ownerID string, actor Actor, slot *model.ApprovalSlot, from, to model.SubmissionStatus, effects *TransitionEffects) []notify.Event {
	label := kindLabel(kind)
	events := []notify.Event{{
		Type:        notify.EventApprovalDecided,
		UserID:      ownerID,
		ActorID:     actor.UserID,
		Title:       fmt.Sprintf("%s level %d %s", label, slot.Level, slot.Decision),
		Body:        decisionBody(label, slot),
		RelatedKind: string(kind),
		RelatedID:   slot.SubmissionID,
		Payload: map[string]interface{}{
			"approval_slot_id": slot.ApprovalSlotID,
			"level":            slot.Level,
			"decision":         slot.Decision,
		},
	}}

	if from != to {
		events = append(events, notify.Event{
			Type:        notify.EventStatusChanged,
			UserID:      ownerID,
			ActorID:     actor.UserID,
			Title:       fmt.Sprintf("%s %s", label, to),
			Body:        fmt.Sprintf("Status %s berubah dari %s menjadi %s.", strings.ToLower(label), from, to),
			RelatedKind: string(kind),
			RelatedID:   slot.SubmissionID,
			Payload:     map[string]interface{}{"from": from, "to": to},
		})
	}

	if effects != nil && len(effects.Shifts) > 0 {
		events = append(events, shiftAdjustedEvent(kind, slot.SubmissionID, ownerID, actor.UserID, effects.Shifts))
	}
	return events
}

func decisionBody(label string, slot *model.ApprovalSlot) string {
	body := fmt.Sprintf("%s pada level %d telah di-%s.", label, slot.Level, slot.Decision)
	if slot.Note != nil && *slot.Note != "" {
		body += " Catatan: " + *slot.Note
	}
	return body
}

func shiftAdjustedEvent(kind model.SubmissionKind, submissionID, ownerID, actorID string, shifts []AdjustmentResult) notify.Event {
	lines := make([]string, 0, len(shifts))
	items := make([]map[string]interface{}, 0, len(shifts))
	for _, s := range shifts {
		date := s.Date.Format(schedule.DateLayout)
		lines = append(lines, fmt.Sprintf("%s: %s", date, s.Status))
		items = append(items, map[string]interface{}{
			"date":            date,
			"status":          s.Status,
			"action":          s.Action,
			"shift_record_id": s.ShiftRecordID,
		})
	}
	return notify.Event{
		Type:        notify.EventShiftAdjusted,
		UserID:      ownerID,
		ActorID:     actorID,
		Title:       "Jadwal kerja diperbarui",
		Body:        "Perubahan jadwal: " + strings.Join(lines, ", "),
		RelatedKind: string(kind),
		RelatedID:   submissionID,
		Payload:     map[string]interface{}{"adjustments": items},
	}
}

func quotaInsufficientEvent(submissionID, ownerID, actorID string, qerr *InsufficientQuotaError) notify.Event {
	months := make([]string, len(qerr.Shortages))
	for i, s := range qerr.Shortages {
		months[i] = fmt.Sprintf("%s (butuh %d, sisa %d)", s.Month, s.Required, s.Available)
	}
	return notify.Event{
		Type:        notify.EventQuotaInsufficient,
		UserID:      ownerID,
		ActorID:     actorID,
		Title:       "Kuota cuti tidak mencukupi",
		Body:        "Persetujuan cuti dibatalkan karena kuota tidak cukup: " + strings.Join(months, ", "),
		RelatedKind: string(model.KindLeave),
		RelatedID:   submissionID,
		Payload:     map[string]interface{}{"shortages": qerr.Shortages},
	}
}
