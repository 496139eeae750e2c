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
	"e-hrm/backend/pkg/metrics"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// WorkflowService 审批决策与审批链查询
type WorkflowService interface {
	// Decide 对单个审批节点作出决策，并在同一事务内重算整体状态、执行副作用
	Decide(ctx context.Context, kind model.SubmissionKind, slotID string, actor Actor, req *dto.DecisionRequest) (*dto.DecisionResponse, error)
	// Chain 查看申请的审批链
	Chain(ctx context.Context, kind model.SubmissionKind, submissionID string, actor Actor) (*dto.ChainResponse, error)
	// Inbox 待当前用户（本人或所属角色）决策的节点
	Inbox(ctx context.Context, actor Actor, offset, limit int) ([]dto.InboxItem, int64, error)
}

type workflowService struct {
	repo   *repository.Repository
	engine *workflowEngine
	logger *zap.Logger
}

// NewWorkflowService 创建 WorkflowService 实例
func NewWorkflowService(repo *repository.Repository, engine *workflowEngine, logger *zap.Logger) WorkflowService {
	return &workflowService{repo: repo, engine: engine, logger: logger}
}

func (s *workflowService) Decide(ctx context.Context, kind model.SubmissionKind, slotID string, actor Actor, req *dto.DecisionRequest) (*dto.DecisionResponse, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	decision := model.Decision(req.Decision)
	if decision != model.DecisionApproved && decision != model.DecisionRejected {
		return nil, ErrInvalidDecision
	}
	input := DecisionInput{
		DayGivenUpPatternID: trimmed(req.DayGivenUpPatternID),
		DayTakenPatternID:   trimmed(req.DayTakenPatternID),
		ReturnPatternID:     trimmed(req.ReturnPatternID),
	}

	var (
		resp    *dto.DecisionResponse
		ownerID string
		effects *TransitionEffects
		slot    *model.ApprovalSlot
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 定位节点，确认类型一致
		first, err := s.loadSlot(ctx, tx, kind, slotID)
		if err != nil {
			return err
		}

		// 2. 锁定申请行，串行化同一申请的状态重算
		head, err := s.engine.lockHead(ctx, tx, kind, first.SubmissionID)
		if err != nil {
			return err
		}
		ownerID = head.UserID

		// 3. 加锁后重读节点，避免基于并发提交前的旧决策判断
		slot, err = s.loadSlot(ctx, tx, kind, slotID)
		if err != nil {
			return err
		}
		if !s.engine.policy.CanDecide(kind, actor, slot) {
			return ErrDecisionForbidden
		}
		if !slot.IsPending() {
			return ErrSlotDecided
		}

		// 4. 写入决策
		now := time.Now().UTC()
		fields := map[string]interface{}{
			"decision":   decision,
			"decided_at": now,
			"decided_by": actor.UserID,
			"updated_by": actor.UserID,
		}
		if note := trimmed(req.Note); note != nil {
			fields["note"] = *note
			slot.Note = note
		}
		if proof := trimmed(req.ProofURL); proof != nil {
			fields["proof_url"] = *proof
			slot.ProofURL = proof
		}
		if err := tx.ApprovalSlot.UpdateFields(ctx, slot.ApprovalSlotID, fields); err != nil {
			s.logger.Error("写入审批决策失败", zap.String("slot_id", slot.ApprovalSlotID), zap.Error(err))
			return pkgerrors.Internal("写入审批决策", err)
		}
		slot.Decision = decision
		slot.DecidedAt = &now
		slot.DecidedBy = &actor.UserID

		// 5. 重算整体状态
		slots, err := tx.ApprovalSlot.ListBySubmission(ctx, kind, head.ID)
		if err != nil {
			return pkgerrors.Internal("查询审批链", err)
		}
		current := model.WorkflowState{Status: head.Status, CurrentLevel: head.CurrentLevel}
		next := Aggregate(slots, current)
		if next.Status != current.Status || !sameLevel(next.CurrentLevel, current.CurrentLevel) {
			if err := tx.SubmissionHead.UpdateState(ctx, kind, head.ID, next, &actor.UserID); err != nil {
				return pkgerrors.Internal("更新申请状态", err)
			}
		}

		// 6. 状态迁移副作用
		effects = &TransitionEffects{}
		if next.Status != current.Status {
			effects, err = s.engine.transition(ctx, tx, &Transition{
				Kind:         kind,
				SubmissionID: head.ID,
				OwnerID:      head.UserID,
				From:         current.Status,
				To:           next.Status,
				Actor:        actor,
				Input:        input,
			})
			if err != nil {
				return err
			}
		}

		resp = &dto.DecisionResponse{
			Slot:           *slot,
			Status:         next.Status,
			CurrentLevel:   next.CurrentLevel,
			PreviousStatus: current.Status,
		}
		for _, a := range effects.Shifts {
			resp.ShiftAdjustments = append(resp.ShiftAdjustments, a.DTO())
		}
		return nil
	})
	if err != nil {
		var qerr *InsufficientQuotaError
		if errors.As(err, &qerr) {
			metrics.RecordQuotaConflict()
			s.engine.notifier.Notify(quotaInsufficientEvent(slotOwnerSubmission(slot), ownerID, actor.UserID, qerr))
			s.logger.Info("请假额度不足，审批已回滚",
				zap.String("slot_id", slotID),
				zap.String("owner_id", ownerID),
				zap.Int("months", len(qerr.Shortages)))
		}
		return nil, err
	}

	// 提交成功后记录指标并通知申请人
	metrics.RecordDecision(string(kind), string(decision))
	recordEffects(kind, resp.PreviousStatus, resp.Status, effects)
	s.engine.notifier.Notify(decisionEvents(kind, ownerID, actor, slot, resp.PreviousStatus, resp.Status, effects)...)

	s.logger.Info("审批决策完成",
		zap.String("kind", string(kind)),
		zap.String("slot_id", slotID),
		zap.String("decision", string(decision)),
		zap.String("status", string(resp.Status)),
		zap.String("actor_id", actor.UserID))
	return resp, nil
}

func (s *workflowService) loadSlot(ctx context.Context, tx *repository.Repository, kind model.SubmissionKind, slotID string) (*model.ApprovalSlot, error) {
	slot, err := tx.ApprovalSlot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, pkgerrors.Internal("查询审批节点", err)
	}
	if slot.SubmissionKind != kind {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

func (s *workflowService) Chain(ctx context.Context, kind model.SubmissionKind, submissionID string, actor Actor) (*dto.ChainResponse, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	head, err := s.repo.SubmissionHead.GetHead(ctx, kind, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, pkgerrors.Internal("查询申请", err)
	}
	slots, err := s.repo.ApprovalSlot.ListBySubmission(ctx, kind, submissionID)
	if err != nil {
		return nil, pkgerrors.Internal("查询审批链", err)
	}
	if !s.engine.canView(kind, actor, head.UserID, slots) {
		return nil, ErrNotOwner
	}

	return &dto.ChainResponse{
		Kind:         kind,
		SubmissionID: head.ID,
		UserID:       head.UserID,
		Status:       head.Status,
		CurrentLevel: head.CurrentLevel,
		Slots:        slots,
	}, nil
}

func (s *workflowService) Inbox(ctx context.Context, actor Actor, offset, limit int) ([]dto.InboxItem, int64, error) {
	slots, total, err := s.repo.ApprovalSlot.ListPendingForApprover(ctx, actor.UserID, normalizeRole(actor.Role), offset, limit)
	if err != nil {
		s.logger.Error("查询待审批列表失败", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, 0, pkgerrors.Internal("查询待审批列表", err)
	}

	items := make([]dto.InboxItem, 0, len(slots))
	for _, slot := range slots {
		items = append(items, dto.InboxItem{
			Kind:         slot.SubmissionKind,
			KindLabel:    kindLabel(slot.SubmissionKind),
			SubmissionID: slot.SubmissionID,
			Slot:         slot,
			CreatedAt:    slot.CreatedAt,
		})
	}
	return items, total, nil
}

// canView 申请人、管理员、越权角色与审批链上的审批人可查看
func (e *workflowEngine) canView(kind model.SubmissionKind, actor Actor, ownerID string, slots []model.ApprovalSlot) bool {
	if actor.UserID == ownerID || e.policy.IsAdmin(actor.Role) || e.policy.CanBypass(kind, actor.Role) {
		return true
	}
	for i := range slots {
		if e.policy.CanDecide(kind, actor, &slots[i]) {
			return true
		}
	}
	return false
}

func sameLevel(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func slotOwnerSubmission(slot *model.ApprovalSlot) string {
	if slot == nil {
		return ""
	}
	return slot.SubmissionID
}
