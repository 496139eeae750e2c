package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/pkg/notify"
	pkgerrors "e-hrm/backend/pkg/errors"
)

var marchDates = []string{"2024-03-04", "2024-03-05", "2024-03-06"}

// ═══════════════════════════════════════════════════════════
// Decide
// ═══════════════════════════════════════════════════════════

func TestDecide_AnyApprovalWins(t *testing.T) {
	env := newTestEnv(t)
	env.setQuota(t, env.employee.UserID, "2024-03", 5)
	detail := env.submitLeave(t, env.annual, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))
	require.Len(t, detail.Approvals, 2)

	// 1. 第一级驳回，整体仍为 pending
	resp, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionRejected, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resp.Status)
	assert.Nil(t, resp.CurrentLevel)
	assert.Empty(t, resp.ShiftAdjustments)
	assert.Equal(t, 5, env.quotaDays(t, env.employee.UserID, "2024-03"))

	// 2. 第二级通过，整体通过
	resp, err = env.decide(model.KindLeave, slotAt(detail.Approvals, 2), env.hr, model.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resp.PreviousStatus)
	assert.Equal(t, model.StatusApproved, resp.Status)
	require.NotNil(t, resp.CurrentLevel)
	assert.Equal(t, 2, *resp.CurrentLevel)
	assert.Equal(t, model.DecisionApproved, resp.Slot.Decision)
	require.NotNil(t, resp.Slot.DecidedBy)
	assert.Equal(t, env.hr.UserID, *resp.Slot.DecidedBy)

	assert.Equal(t, 2, env.quotaDays(t, env.employee.UserID, "2024-03"))
	require.Len(t, resp.ShiftAdjustments, 3)
	for i, adj := range resp.ShiftAdjustments {
		assert.Equal(t, marchDates[i], adj.Date)
		assert.Equal(t, model.ShiftOff, adj.Status)
		assert.Equal(t, ShiftActionCreate, adj.Action)
	}
	for _, d := range marchDates {
		rec := env.shiftOn(t, env.employee.UserID, d)
		require.NotNil(t, rec, d)
		assert.Equal(t, model.ShiftOff, rec.Status)
	}

	chain, err := env.svc.Workflow.Chain(env.ctx, model.KindLeave, detail.Submission.LeaveRequestID, actorOf(env.employee))
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, chain.Status)
	require.NotNil(t, chain.CurrentLevel)
	assert.Equal(t, 2, *chain.CurrentLevel)

	assert.Len(t, env.pub.ofType(notify.EventApprovalRequested), 2)
	assert.Len(t, env.pub.ofType(notify.EventApprovalDecided), 2)
	assert.Len(t, env.pub.ofType(notify.EventStatusChanged), 1)
	shifted := env.pub.ofType(notify.EventShiftAdjusted)
	require.Len(t, shifted, 1)
	assert.Equal(t, env.employee.UserID, shifted[0].UserID)
}

func TestDecide_AllRejected(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))

	_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 2), env.hr, model.DecisionRejected, nil)
	require.NoError(t, err)
	resp, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionRejected,
		&dto.DecisionRequest{Note: strp("  jadwal penuh ")})
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, resp.Status)
	assert.Nil(t, resp.CurrentLevel)
	require.NotNil(t, resp.Slot.Note)
	assert.Equal(t, "jadwal penuh", *resp.Slot.Note)
	assert.Nil(t, env.shiftOn(t, env.employee.UserID, "2024-03-04"))
}

func TestDecide_ApprovedStaysApprovedAfterLaterRejection(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))

	_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionApproved, nil)
	require.NoError(t, err)
	resp, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 2), env.hr, model.DecisionRejected, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, resp.PreviousStatus)
	assert.Equal(t, model.StatusApproved, resp.Status)
	require.NotNil(t, resp.CurrentLevel)
	assert.Equal(t, 1, *resp.CurrentLevel)
	assert.Empty(t, resp.ShiftAdjustments)
}

func TestDecide_SlotAlreadyDecided(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil, userSlot(1, env.supervisor))
	slot := slotAt(detail.Approvals, 1)

	_, err := env.decide(model.KindLeave, slot, env.supervisor, model.DecisionApproved, &dto.DecisionRequest{Note: strp("lanjut")})
	require.NoError(t, err)

	_, err = env.decide(model.KindLeave, slot, env.supervisor, model.DecisionRejected, &dto.DecisionRequest{Note: strp("batal")})
	assert.ErrorIs(t, err, ErrSlotDecided)
	assert.ErrorIs(t, err, pkgerrors.ErrConflict)

	// 重复决策不得改动节点与申请
	got, err := env.svc.Leave.Get(env.ctx, actorOf(env.supervisor), detail.Submission.LeaveRequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Submission.Status)
	after := slotAt(got.Approvals, 1)
	assert.Equal(t, model.DecisionApproved, after.Decision)
	require.NotNil(t, after.Note)
	assert.Equal(t, "lanjut", *after.Note)
}

func TestDecide_Authorization(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleSupervisor))

	t.Run("非审批人", func(t *testing.T) {
		_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.colleague, model.DecisionApproved, nil)
		assert.ErrorIs(t, err, ErrDecisionForbidden)
	})

	t.Run("管理员但无越权角色", func(t *testing.T) {
		_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.hr, model.DecisionApproved, nil)
		assert.ErrorIs(t, err, ErrDecisionForbidden)
	})

	t.Run("越权角色", func(t *testing.T) {
		resp, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.admin, model.DecisionApproved, nil)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, resp.Status)
		require.NotNil(t, resp.Slot.DecidedBy)
		assert.Equal(t, env.admin.UserID, *resp.Slot.DecidedBy)
	})

	t.Run("角色节点", func(t *testing.T) {
		resp, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 2), env.supervisor, model.DecisionRejected, nil)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, resp.Status)
	})
}

func TestDecide_Validation(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil, userSlot(1, env.supervisor))
	slot := slotAt(detail.Approvals, 1)

	t.Run("未知类型", func(t *testing.T) {
		_, err := env.svc.Workflow.Decide(env.ctx, model.SubmissionKind("overtime"), slot.ApprovalSlotID,
			actorOf(env.supervisor), &dto.DecisionRequest{Decision: "approved"})
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("非法决策", func(t *testing.T) {
		_, err := env.svc.Workflow.Decide(env.ctx, model.KindLeave, slot.ApprovalSlotID,
			actorOf(env.supervisor), &dto.DecisionRequest{Decision: "pending"})
		assert.ErrorIs(t, err, ErrInvalidDecision)
	})

	t.Run("类型不匹配", func(t *testing.T) {
		_, err := env.decide(model.KindPayment, slot, env.supervisor, model.DecisionApproved, nil)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("节点不存在", func(t *testing.T) {
		_, err := env.decide(model.KindLeave, model.ApprovalSlot{ApprovalSlotID: "missing"}, env.supervisor, model.DecisionApproved, nil)
		assert.ErrorIs(t, err, ErrSlotNotFound)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})
}

func TestDecide_InsufficientQuotaRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.setQuota(t, env.employee.UserID, "2024-03", 1)
	detail := env.submitLeave(t, env.annual, marchDates, nil, userSlot(1, env.supervisor))
	slot := slotAt(detail.Approvals, 1)

	_, err := env.decide(model.KindLeave, slot, env.supervisor, model.DecisionApproved, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientQuota)
	assert.ErrorIs(t, err, pkgerrors.ErrConflict)

	var qerr *InsufficientQuotaError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, []QuotaShortage{{Month: "2024-03", Required: 3, Available: 1}}, qerr.Shortages)

	// 决策、额度、排班全部回滚
	chain, err := env.svc.Workflow.Chain(env.ctx, model.KindLeave, detail.Submission.LeaveRequestID, actorOf(env.employee))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, chain.Status)
	assert.Equal(t, model.DecisionPending, chain.Slots[0].Decision)
	assert.Equal(t, 1, env.quotaDays(t, env.employee.UserID, "2024-03"))
	for _, d := range marchDates {
		assert.Nil(t, env.shiftOn(t, env.employee.UserID, d))
	}

	events := env.pub.ofType(notify.EventQuotaInsufficient)
	require.Len(t, events, 1)
	assert.Equal(t, env.employee.UserID, events[0].UserID)
	assert.Equal(t, detail.Submission.LeaveRequestID, events[0].RelatedID)
	assert.Empty(t, env.pub.ofType(notify.EventApprovalDecided))
}

func TestDecide_QuotaDisabledCategory(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil, userSlot(1, env.supervisor))

	resp, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, resp.Status)
	assert.Len(t, resp.ShiftAdjustments, 3)

	quotas, err := env.repo.Quota.ListByUser(env.ctx, env.employee.UserID)
	require.NoError(t, err)
	assert.Empty(t, quotas)
}

func TestDecide_ReturnDate(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, strp("2024-03-07"), userSlot(1, env.supervisor))
	slot := slotAt(detail.Approvals, 1)

	t.Run("缺少返岗模板", func(t *testing.T) {
		_, err := env.decide(model.KindLeave, slot, env.supervisor, model.DecisionApproved, nil)
		assert.ErrorIs(t, err, ErrReturnPatternRequired)
		assert.Nil(t, env.shiftOn(t, env.employee.UserID, "2024-03-04"))
	})

	t.Run("返岗模板不存在", func(t *testing.T) {
		_, err := env.decide(model.KindLeave, slot, env.supervisor, model.DecisionApproved,
			&dto.DecisionRequest{ReturnPatternID: strp("missing")})
		assert.ErrorIs(t, err, ErrWorkPatternNotFound)
	})

	t.Run("通过", func(t *testing.T) {
		resp, err := env.decide(model.KindLeave, slot, env.supervisor, model.DecisionApproved,
			&dto.DecisionRequest{ReturnPatternID: strp(env.morning.WorkPatternID)})
		require.NoError(t, err)
		require.Len(t, resp.ShiftAdjustments, 4)

		back := env.shiftOn(t, env.employee.UserID, "2024-03-07")
		require.NotNil(t, back)
		assert.Equal(t, model.ShiftWork, back.Status)
		require.NotNil(t, back.WorkPatternID)
		assert.Equal(t, env.morning.WorkPatternID, *back.WorkPatternID)
	})
}

func TestDecide_DaySwap(t *testing.T) {
	env := newTestEnv(t)
	req := &dto.CreateDaySwapRequest{DayGivenUp: "2024-03-09", DayTaken: "2024-03-11", Reason: "acara keluarga"}
	req.Approvals = []dto.ApprovalSlotInput{userSlot(1, env.supervisor)}
	detail, err := env.svc.DaySwap.Create(env.ctx, actorOf(env.employee), req)
	require.NoError(t, err)

	resp, err := env.decide(model.KindDaySwap, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionApproved,
		&dto.DecisionRequest{DayTakenPatternID: strp(env.morning.WorkPatternID)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, resp.Status)
	require.Len(t, resp.ShiftAdjustments, 2)

	off := env.shiftOn(t, env.employee.UserID, "2024-03-09")
	require.NotNil(t, off)
	assert.Equal(t, model.ShiftOff, off.Status)

	work := env.shiftOn(t, env.employee.UserID, "2024-03-11")
	require.NotNil(t, work)
	assert.Equal(t, model.ShiftWork, work.Status)
	require.NotNil(t, work.WorkPatternID)
	assert.Equal(t, env.morning.WorkPatternID, *work.WorkPatternID)
}

func TestDecide_MoneyKindsHaveNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	req := &dto.CreatePaymentRequest{Description: "Sewa proyektor", Amount: decimal.RequireFromString("1250000")}
	req.Approvals = []dto.ApprovalSlotInput{roleSlot(1, model.RoleHR)}
	detail, err := env.svc.Payment.Create(env.ctx, actorOf(env.employee), req)
	require.NoError(t, err)

	resp, err := env.decide(model.KindPayment, slotAt(detail.Approvals, 1), env.hr, model.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, resp.Status)
	assert.Empty(t, resp.ShiftAdjustments)
	assert.Empty(t, env.pub.ofType(notify.EventShiftAdjusted))
}

// ═══════════════════════════════════════════════════════════
// Chain / Inbox
// ═══════════════════════════════════════════════════════════

func TestChain_Visibility(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil, userSlot(1, env.supervisor))
	id := detail.Submission.LeaveRequestID

	for _, u := range []model.User{env.employee, env.supervisor, env.hr, env.admin} {
		_, err := env.svc.Workflow.Chain(env.ctx, model.KindLeave, id, actorOf(u))
		assert.NoError(t, err, u.Name)
	}

	_, err := env.svc.Workflow.Chain(env.ctx, model.KindLeave, id, actorOf(env.colleague))
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = env.svc.Workflow.Chain(env.ctx, model.KindLeave, "missing", actorOf(env.admin))
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestInbox(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))

	items, total, err := env.svc.Workflow.Inbox(env.ctx, actorOf(env.supervisor), 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, model.KindLeave, items[0].Kind)
	assert.Equal(t, detail.Submission.LeaveRequestID, items[0].SubmissionID)
	assert.Equal(t, 1, items[0].Slot.Level)

	items, _, err = env.svc.Workflow.Inbox(env.ctx, actorOf(env.hr), 0, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Slot.Level)

	_, err = env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionRejected, nil)
	require.NoError(t, err)

	items, total, err = env.svc.Workflow.Inbox(env.ctx, actorOf(env.supervisor), 0, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

// ═══════════════════════════════════════════════════════════
// Chain edit
// ═══════════════════════════════════════════════════════════

func TestUpdate_ChainEditRefundsQuota(t *testing.T) {
	env := newTestEnv(t)
	env.setQuota(t, env.employee.UserID, "2024-03", 5)
	detail := env.submitLeave(t, env.annual, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))
	id := detail.Submission.LeaveRequestID

	_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 2), env.hr, model.DecisionApproved, nil)
	require.NoError(t, err)
	require.Equal(t, 2, env.quotaDays(t, env.employee.UserID, "2024-03"))

	// 管理员修改第二级备注，该节点重新打开
	changed := keepSlot(slotAt(detail.Approvals, 2), 2)
	changed.Note = strp("mohon dicek ulang")
	req := &dto.UpdateLeaveRequest{}
	req.Approvals = &[]dto.ApprovalSlotInput{keepSlot(slotAt(detail.Approvals, 1), 1), changed}

	updated, err := env.svc.Leave.Update(env.ctx, actorOf(env.hr), id, req)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, updated.Submission.Status)
	assert.Nil(t, updated.Submission.CurrentLevel)
	assert.Equal(t, 5, env.quotaDays(t, env.employee.UserID, "2024-03"))
	for _, s := range updated.Approvals {
		assert.Equal(t, model.DecisionPending, s.Decision)
		assert.Nil(t, s.DecidedAt)
	}

	// 排班不回滚
	rec := env.shiftOn(t, env.employee.UserID, "2024-03-05")
	require.NotNil(t, rec)
	assert.Equal(t, model.ShiftOff, rec.Status)

	// 再次通过，额度再次扣减
	_, err = env.decide(model.KindLeave, slotAt(updated.Approvals, 2), env.hr, model.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, env.quotaDays(t, env.employee.UserID, "2024-03"))
}

func TestUpdate_ChainEditReopensChangedSlots(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))
	id := detail.Submission.LeaveRequestID

	_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionRejected, nil)
	require.NoError(t, err)

	// 第一级换审批人，第二级保持，再加第三级
	first := keepSlot(slotAt(detail.Approvals, 1), 1)
	first.ApproverUserID = strp(env.hr.UserID)
	req := &dto.UpdateLeaveRequest{}
	req.Approvals = &[]dto.ApprovalSlotInput{first, keepSlot(slotAt(detail.Approvals, 2), 2), roleSlot(3, model.RoleSuperAdmin)}

	updated, err := env.svc.Leave.Update(env.ctx, actorOf(env.employee), id, req)
	require.NoError(t, err)
	require.Len(t, updated.Approvals, 3)

	reopened := slotAt(updated.Approvals, 1)
	assert.Equal(t, slotAt(detail.Approvals, 1).ApprovalSlotID, reopened.ApprovalSlotID)
	assert.Equal(t, model.DecisionPending, reopened.Decision)
	assert.Nil(t, reopened.DecidedBy)
	require.NotNil(t, reopened.ApproverUserID)
	assert.Equal(t, env.hr.UserID, *reopened.ApproverUserID)
	assert.Equal(t, slotAt(detail.Approvals, 2).ApprovalSlotID, slotAt(updated.Approvals, 2).ApprovalSlotID)

	// 重新打开的节点与新建节点都通知审批人
	requested := env.pub.ofType(notify.EventApprovalRequested)
	assert.Len(t, requested, 4)
}

func TestUpdate_ChainEditNeedsPendingSlot(t *testing.T) {
	env := newTestEnv(t)
	env.setQuota(t, env.employee.UserID, "2024-03", 5)
	detail := env.submitLeave(t, env.annual, marchDates, nil, userSlot(1, env.supervisor))
	id := detail.Submission.LeaveRequestID

	_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionApproved, nil)
	require.NoError(t, err)

	// 原样提交审批链不会打开任何节点
	req := &dto.UpdateLeaveRequest{}
	req.Approvals = &[]dto.ApprovalSlotInput{keepSlot(slotAt(detail.Approvals, 1), 1)}
	_, err = env.svc.Leave.Update(env.ctx, actorOf(env.hr), id, req)
	assert.ErrorIs(t, err, ErrChainInvalid)

	got, err := env.svc.Leave.Get(env.ctx, actorOf(env.employee), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Submission.Status)
	assert.Equal(t, 2, env.quotaDays(t, env.employee.UserID, "2024-03"))
}

func TestUpdate_SwapLevels(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil,
		userSlot(1, env.supervisor), roleSlot(2, model.RoleHR))

	req := &dto.UpdateLeaveRequest{}
	req.Approvals = &[]dto.ApprovalSlotInput{
		keepSlot(slotAt(detail.Approvals, 1), 2),
		keepSlot(slotAt(detail.Approvals, 2), 1),
	}
	updated, err := env.svc.Leave.Update(env.ctx, actorOf(env.employee), detail.Submission.LeaveRequestID, req)
	require.NoError(t, err)

	require.NotNil(t, slotAt(updated.Approvals, 1).ApproverRole)
	assert.Equal(t, model.RoleHR, *slotAt(updated.Approvals, 1).ApproverRole)
	require.NotNil(t, slotAt(updated.Approvals, 2).ApproverUserID)
	assert.Equal(t, env.supervisor.UserID, *slotAt(updated.Approvals, 2).ApproverUserID)
}

func TestUpdate_LockedRules(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil, userSlot(1, env.supervisor))
	id := detail.Submission.LeaveRequestID

	_, err := env.decide(model.KindLeave, slotAt(detail.Approvals, 1), env.supervisor, model.DecisionApproved, nil)
	require.NoError(t, err)

	reason := &dto.UpdateLeaveRequest{Reason: strp("ubah alasan")}

	t.Run("申请人不能修改已通过申请", func(t *testing.T) {
		_, err := env.svc.Leave.Update(env.ctx, actorOf(env.employee), id, reason)
		assert.ErrorIs(t, err, ErrSubmissionLocked)
	})

	t.Run("管理员修改需附审批链", func(t *testing.T) {
		_, err := env.svc.Leave.Update(env.ctx, actorOf(env.hr), id, reason)
		assert.ErrorIs(t, err, ErrSubmissionLocked)
	})

	t.Run("他人不能修改", func(t *testing.T) {
		_, err := env.svc.Leave.Update(env.ctx, actorOf(env.colleague), id, reason)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("已通过申请不能删除", func(t *testing.T) {
		err := env.svc.Leave.Delete(env.ctx, actorOf(env.employee), id)
		assert.ErrorIs(t, err, ErrSubmissionLocked)
	})
}

func TestUpdate_ChainEditRejectsInvalidChain(t *testing.T) {
	env := newTestEnv(t)
	detail := env.submitLeave(t, env.sick, marchDates, nil, userSlot(1, env.supervisor))

	req := &dto.UpdateLeaveRequest{}
	req.Approvals = &[]dto.ApprovalSlotInput{}
	_, err := env.svc.Leave.Update(env.ctx, actorOf(env.employee), detail.Submission.LeaveRequestID, req)
	assert.ErrorIs(t, err, ErrChainInvalid)

	req.Approvals = &[]dto.ApprovalSlotInput{{Level: 1, ApproverUserID: strp("ghost")}}
	_, err = env.svc.Leave.Update(env.ctx, actorOf(env.employee), detail.Submission.LeaveRequestID, req)
	require.ErrorIs(t, err, ErrChainInvalid)

	var appErr *pkgerrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "approver_user_id", appErr.Details[0].Field)

	// 原审批链保持不变
	chain, err := env.svc.Workflow.Chain(env.ctx, model.KindLeave, detail.Submission.LeaveRequestID, actorOf(env.employee))
	require.NoError(t, err)
	require.Len(t, chain.Slots, 1)
}
