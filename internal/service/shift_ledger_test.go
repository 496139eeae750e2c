package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/schedule"
)

func (e *testEnv) rangeRecord(t *testing.T, userID, start string, end *string, status model.ShiftStatus, patternID *string) *model.ShiftRecord {
	t.Helper()
	rec := &model.ShiftRecord{UserID: userID, StartDate: day(start), Status: status, WorkPatternID: patternID}
	if end != nil {
		d := day(*end)
		rec.EndDate = &d
	}
	require.NoError(t, e.repo.Shift.Create(e.ctx, rec))
	return rec
}

func TestEnsureStatus_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID

	first, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftOff, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ShiftActionCreate, first.Action)

	second, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftOff, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ShiftActionNoop, second.Action)
	assert.Equal(t, first.ShiftRecordID, second.ShiftRecordID)

	third, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftWork, strp(env.morning.WorkPatternID), nil)
	require.NoError(t, err)
	assert.Equal(t, ShiftActionUpdate, third.Action)
	assert.Equal(t, first.ShiftRecordID, third.ShiftRecordID)

	rec := env.shiftOn(t, uid, "2024-03-04")
	require.NotNil(t, rec)
	assert.Equal(t, model.ShiftWork, rec.Status)
	require.NotNil(t, rec.EndDate)
	assert.Equal(t, "2024-03-04", rec.EndDate.Format(schedule.DateLayout))
}

func TestEnsureStatus_CarvesRangeStartingOnDate(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID
	open := env.rangeRecord(t, uid, "2024-03-04", nil, model.ShiftWork, strp(env.morning.WorkPatternID))

	res, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftOff, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ShiftActionCreate, res.Action)
	assert.NotEqual(t, open.ShiftRecordID, res.ShiftRecordID)
	require.NotNil(t, res.WorkPatternID)
	assert.Equal(t, env.morning.WorkPatternID, *res.WorkPatternID)

	moved, err := env.repo.Shift.GetByID(env.ctx, open.ShiftRecordID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", moved.StartDate.Format(schedule.DateLayout))
	assert.Nil(t, moved.EndDate)

	single := env.shiftOn(t, uid, "2024-03-04")
	require.NotNil(t, single)
	assert.Equal(t, model.ShiftOff, single.Status)
	assert.True(t, single.IsSingleDay())
}

func TestEnsureStatus_CarveConflict(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID
	env.rangeRecord(t, uid, "2024-03-04", strp("2024-03-10"), model.ShiftWork, nil)
	env.rangeRecord(t, uid, "2024-03-05", strp("2024-03-05"), model.ShiftOff, nil)

	_, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftOff, nil, nil)
	assert.ErrorIs(t, err, ErrShiftKeyConflict)
}

func TestEnsureStatus_BorrowsCoveringPattern(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID
	cover := env.rangeRecord(t, uid, "2024-03-01", strp("2024-03-31"), model.ShiftWork, strp(env.morning.WorkPatternID))

	res, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-10"), model.ShiftWork, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ShiftActionCreate, res.Action)
	require.NotNil(t, res.WorkPatternID)
	assert.Equal(t, env.morning.WorkPatternID, *res.WorkPatternID)

	// 覆盖记录本身不变
	kept, err := env.repo.Shift.GetByID(env.ctx, cover.ShiftRecordID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", kept.StartDate.Format(schedule.DateLayout))
	require.NotNil(t, kept.EndDate)
	assert.Equal(t, "2024-03-31", kept.EndDate.Format(schedule.DateLayout))
}

func TestEnsureStatus_OverrideWins(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID
	night := model.WorkPattern{Name: "Malam", StartTime: "22:00", EndTime: "06:00"}
	require.NoError(t, env.repo.WorkPattern.Create(env.ctx, &night))
	env.rangeRecord(t, uid, "2024-03-01", nil, model.ShiftWork, strp(env.morning.WorkPatternID))

	res, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-10"), model.ShiftWork, strp(night.WorkPatternID), nil)
	require.NoError(t, err)
	require.NotNil(t, res.WorkPatternID)
	assert.Equal(t, night.WorkPatternID, *res.WorkPatternID)
}

func TestEnsureStatus_RevivesDeletedRecord(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID

	first, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftOff, nil, nil)
	require.NoError(t, err)
	require.NoError(t, env.repo.Shift.Delete(env.ctx, first.ShiftRecordID, env.admin.UserID))

	res, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftOff, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ShiftActionUpdate, res.Action)
	assert.Equal(t, first.ShiftRecordID, res.ShiftRecordID)

	rec, err := env.repo.Shift.GetByID(env.ctx, first.ShiftRecordID)
	require.NoError(t, err)
	assert.False(t, rec.DeletedAt.Valid)
}

func TestEnsureStatus_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewShiftLedger(zap.NewNop())
	uid := env.employee.UserID

	_, err := ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftStatus("SICK"), nil, nil)
	assert.ErrorIs(t, err, ErrShiftStatusInvalid)

	_, err = ledger.EnsureStatus(env.ctx, env.repo, uid, day("2024-03-04"), model.ShiftWork, strp("missing"), nil)
	assert.ErrorIs(t, err, ErrWorkPatternNotFound)
	assert.Nil(t, env.shiftOn(t, uid, "2024-03-04"))
}
