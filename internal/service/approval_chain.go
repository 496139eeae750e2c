package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// ── 审批链 ──────────────────────────────────────────────────
//
// 审批链是挂在申请上的有序节点集合，每个节点指定一个审批人或一个审批角色。
//   - 新建：整体校验后批量写入
//   - 同步：按节点 ID 对齐，变更过的节点重新打开，未出现的节点硬删除
//   - 汇总：任一节点通过即整体通过；全部驳回才整体驳回
// ─────────────────────────────────────────────────────────────

// tempLevelBase 同步时交换层级使用的临时层级起点（表约束 level > 0）
const tempLevelBase = 1_000_000

// ChainSyncResult 审批链同步结果
type ChainSyncResult struct {
	Slots   []model.ApprovalSlot // 同步后的完整审批链
	Created []model.ApprovalSlot
	Reset   []model.ApprovalSlot // 因审批人/层级/备注变化被重新打开的节点
	Removed int
}

// Opened 需要通知审批人的节点
func (r *ChainSyncResult) Opened() []model.ApprovalSlot {
	out := make([]model.ApprovalSlot, 0, len(r.Created)+len(r.Reset))
	out = append(out, r.Created...)
	return append(out, r.Reset...)
}

type approvalChain struct{}

func newApprovalChain() *approvalChain {
	return &approvalChain{}
}

// ValidateChain 批量校验审批链，所有问题一次性列在详情中
func ValidateChain(inputs []dto.ApprovalSlotInput) error {
	if len(inputs) == 0 {
		return ErrChainInvalid.WithMessage("审批链至少需要一个节点")
	}

	var details []pkgerrors.Detail
	levels := make(map[int]int, len(inputs))
	ids := make(map[string]int, len(inputs))
	for i, in := range inputs {
		if in.Level <= 0 {
			details = append(details, pkgerrors.Detail{Index: i, Field: "level", Message: "层级必须大于 0"})
		} else if j, dup := levels[in.Level]; dup {
			details = append(details, pkgerrors.Detail{Index: i, Field: "level", Message: fmt.Sprintf("层级 %d 与第 %d 项重复", in.Level, j)})
		} else {
			levels[in.Level] = i
		}

		hasUser := trimmed(in.ApproverUserID) != nil
		hasRole := trimmed(in.ApproverRole) != nil
		if hasUser == hasRole {
			details = append(details, pkgerrors.Detail{Index: i, Field: "approver", Message: "approver_user_id 与 approver_role 必须且只能填写一个"})
		}

		if id := trimmed(in.ID); id != nil {
			if j, dup := ids[*id]; dup {
				details = append(details, pkgerrors.Detail{Index: i, Field: "approval_slot_id", Message: fmt.Sprintf("节点 ID 与第 %d 项重复", j)})
			} else {
				ids[*id] = i
			}
		}
	}

	if len(details) > 0 {
		return ErrChainInvalid.WithDetails(details...)
	}
	return nil
}

// validate 在结构校验之外确认指定的审批人存在
func (c *approvalChain) validate(ctx context.Context, tx *repository.Repository, inputs []dto.ApprovalSlotInput) error {
	if err := ValidateChain(inputs); err != nil {
		return err
	}

	var userIDs []string
	for _, in := range inputs {
		if id := trimmed(in.ApproverUserID); id != nil {
			userIDs = append(userIDs, *id)
		}
	}
	if len(userIDs) == 0 {
		return nil
	}

	users, err := tx.User.ListByIDs(ctx, userIDs)
	if err != nil {
		return pkgerrors.Internal("查询审批人", err)
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.UserID] = true
	}

	var details []pkgerrors.Detail
	for i, in := range inputs {
		if id := trimmed(in.ApproverUserID); id != nil && !found[*id] {
			details = append(details, pkgerrors.Detail{Index: i, Field: "approver_user_id", Message: "审批人不存在"})
		}
	}
	if len(details) > 0 {
		return ErrChainInvalid.WithDetails(details...)
	}
	return nil
}

// Create 为新申请写入审批链
func (c *approvalChain) Create(ctx context.Context, tx *repository.Repository, kind model.SubmissionKind, submissionID string, inputs []dto.ApprovalSlotInput, actorID *string) ([]model.ApprovalSlot, error) {
	if err := c.validate(ctx, tx, inputs); err != nil {
		return nil, err
	}

	slots := make([]model.ApprovalSlot, 0, len(inputs))
	for _, in := range inputs {
		slots = append(slots, newSlot(kind, submissionID, in, actorID))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Level < slots[j].Level })

	if err := tx.ApprovalSlot.BatchCreate(ctx, slots); err != nil {
		return nil, pkgerrors.Internal("写入审批链", err)
	}
	return slots, nil
}

// Sync 将已有审批链对齐到 inputs
//
// 执行顺序：删除 → 变更层级的节点移到临时层级 → 写回目标层级 → 新建，
// 保证 (kind, submission, level) 唯一约束在每一步都成立。
func (c *approvalChain) Sync(ctx context.Context, tx *repository.Repository, kind model.SubmissionKind, submissionID string, inputs []dto.ApprovalSlotInput, actorID *string) (*ChainSyncResult, error) {
	if err := c.validate(ctx, tx, inputs); err != nil {
		return nil, err
	}

	existing, err := tx.ApprovalSlot.ListBySubmission(ctx, kind, submissionID)
	if err != nil {
		return nil, pkgerrors.Internal("查询审批链", err)
	}
	byID := make(map[string]model.ApprovalSlot, len(existing))
	for _, s := range existing {
		byID[s.ApprovalSlotID] = s
	}

	// 1. 对齐节点
	type pair struct {
		slot model.ApprovalSlot
		in   dto.ApprovalSlotInput
	}
	var matched []pair
	var fresh []dto.ApprovalSlotInput
	kept := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if id := trimmed(in.ID); id != nil {
			if s, ok := byID[*id]; ok {
				matched = append(matched, pair{slot: s, in: in})
				kept[*id] = true
				continue
			}
		}
		fresh = append(fresh, in)
	}

	result := &ChainSyncResult{}

	// 2. 删除未出现的节点
	var removed []string
	for _, s := range existing {
		if !kept[s.ApprovalSlotID] {
			removed = append(removed, s.ApprovalSlotID)
		}
	}
	if err := tx.ApprovalSlot.DeleteByIDs(ctx, removed); err != nil {
		return nil, pkgerrors.Internal("删除审批节点", err)
	}
	result.Removed = len(removed)

	// 3. 层级变化的节点先让出原层级
	for i, p := range matched {
		if p.slot.Level == p.in.Level {
			continue
		}
		if err := tx.ApprovalSlot.UpdateFields(ctx, p.slot.ApprovalSlotID, map[string]interface{}{
			"level": tempLevelBase + i,
		}); err != nil {
			return nil, pkgerrors.Internal("调整审批节点层级", err)
		}
	}

	// 4. 写回目标层级，元数据变化的节点重新打开
	for _, p := range matched {
		userID, role, note := trimmed(p.in.ApproverUserID), normalizedRole(p.in.ApproverRole), trimmed(p.in.Note)
		changed := p.slot.Level != p.in.Level ||
			!sameString(p.slot.ApproverUserID, userID) ||
			!sameString(p.slot.ApproverRole, role) ||
			!sameString(p.slot.Note, note)
		if !changed {
			continue
		}

		fields := map[string]interface{}{
			"level":            p.in.Level,
			"approver_user_id": userID,
			"approver_role":    role,
			"decision":         model.DecisionPending,
			"decided_at":       nil,
			"decided_by":       nil,
			"note":             note,
			"proof_url":        nil,
			"updated_by":       actorID,
		}
		if err := tx.ApprovalSlot.UpdateFields(ctx, p.slot.ApprovalSlotID, fields); err != nil {
			return nil, pkgerrors.Internal("更新审批节点", err)
		}

		reset := p.slot
		reset.Level = p.in.Level
		reset.ApproverUserID, reset.ApproverRole, reset.Note = userID, role, note
		reset.Decision = model.DecisionPending
		reset.DecidedAt, reset.DecidedBy, reset.ProofURL = nil, nil, nil
		result.Reset = append(result.Reset, reset)
	}

	// 5. 新建节点
	for _, in := range fresh {
		result.Created = append(result.Created, newSlot(kind, submissionID, in, actorID))
	}
	if err := tx.ApprovalSlot.BatchCreate(ctx, result.Created); err != nil {
		return nil, pkgerrors.Internal("写入审批节点", err)
	}

	result.Slots, err = tx.ApprovalSlot.ListBySubmission(ctx, kind, submissionID)
	if err != nil {
		return nil, pkgerrors.Internal("查询审批链", err)
	}
	return result, nil
}

// Aggregate 由节点决策推导申请整体状态
//
// 任一节点通过 → approved，current_level 取已通过节点的最大层级；
// 全部节点驳回 → rejected，current_level 为空；否则保持 current 不变。
func Aggregate(slots []model.ApprovalSlot, current model.WorkflowState) model.WorkflowState {
	maxApproved := 0
	rejected := 0
	for _, s := range slots {
		switch s.Decision {
		case model.DecisionApproved:
			if s.Level > maxApproved {
				maxApproved = s.Level
			}
		case model.DecisionRejected:
			rejected++
		}
	}

	if maxApproved > 0 {
		level := maxApproved
		return model.WorkflowState{Status: model.StatusApproved, CurrentLevel: &level}
	}
	if len(slots) > 0 && rejected == len(slots) {
		return model.WorkflowState{Status: model.StatusRejected}
	}
	return current
}

func newSlot(kind model.SubmissionKind, submissionID string, in dto.ApprovalSlotInput, actorID *string) model.ApprovalSlot {
	s := model.ApprovalSlot{
		SubmissionKind: kind,
		SubmissionID:   submissionID,
		Level:          in.Level,
		ApproverUserID: trimmed(in.ApproverUserID),
		ApproverRole:   normalizedRole(in.ApproverRole),
		Decision:       model.DecisionPending,
		Note:           trimmed(in.Note),
	}
	s.CreatedBy = actorID
	s.UpdatedBy = actorID
	return s
}

// ── 小工具 ──

// trimmed 去除首尾空白，空串视为未填写
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizedRole(s *string) *string {
	v := trimmed(s)
	if v == nil {
		return nil
	}
	r := strings.ToLower(*v)
	return &r
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
