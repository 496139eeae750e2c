package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"e-hrm/backend/config"
	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/internal/schedule"
	"e-hrm/backend/pkg/jwt"
	"e-hrm/backend/pkg/notify"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

// recordingPublisher 记录发出的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Notify(events ...notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) ofType(typ string) []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notify.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	ctx  context.Context
	db   *gorm.DB
	repo *repository.Repository
	svc  *Service
	pub  *recordingPublisher

	admin      model.User // superadmin
	hr         model.User
	supervisor model.User
	employee   model.User
	colleague  model.User

	annual  model.LeaveCategory // 扣额度
	sick    model.LeaveCategory // 不扣额度
	morning model.WorkPattern
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret-0123456789", AccessTokenTTL: time.Hour},
		Approval: config.ApprovalConfig{
			AdminRoles: []string{model.RoleSuperAdmin, model.RoleHR},
			BypassRoles: map[string][]string{
				"leave":    {model.RoleSuperAdmin},
				"day_swap": {model.RoleSuperAdmin},
			},
		},
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	repo := repository.NewRepository(db)
	cfg := testConfig()
	pub := &recordingPublisher{}

	env := &testEnv{
		ctx:  context.Background(),
		db:   db,
		repo: repo,
		pub:  pub,
		svc:  NewService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, pub, zap.NewNop()),
	}

	env.admin = env.createUser(t, "Admin", model.RoleSuperAdmin)
	env.hr = env.createUser(t, "Hana HR", model.RoleHR)
	env.supervisor = env.createUser(t, "Sari", model.RoleSupervisor)
	env.employee = env.createUser(t, "Budi", model.RolePegawai)
	env.colleague = env.createUser(t, "Citra", model.RolePegawai)

	env.annual = model.LeaveCategory{Name: "Cuti tahunan", QuotaEnabled: true}
	require.NoError(t, repo.LeaveCategory.Create(env.ctx, &env.annual))
	env.sick = model.LeaveCategory{Name: "Sakit", QuotaEnabled: false}
	require.NoError(t, repo.LeaveCategory.Create(env.ctx, &env.sick))

	env.morning = model.WorkPattern{Name: "Pagi", StartTime: "08:00", EndTime: "16:00", BreakMinutes: 60}
	require.NoError(t, repo.WorkPattern.Create(env.ctx, &env.morning))
	return env
}

func (e *testEnv) createUser(t *testing.T, name, role string) model.User {
	t.Helper()
	u := model.User{
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: "-",
		Role:         role,
	}
	require.NoError(t, e.repo.User.Create(e.ctx, &u))
	return u
}

func (e *testEnv) setQuota(t *testing.T, userID, month string, days int) {
	t.Helper()
	q := model.MonthlyQuota{UserID: userID, Month: month, QuotaDays: days}
	require.NoError(t, e.repo.Quota.Create(e.ctx, &q))
}

func (e *testEnv) quotaDays(t *testing.T, userID, month string) int {
	t.Helper()
	q, err := e.repo.Quota.Get(e.ctx, userID, month)
	require.NoError(t, err)
	return q.QuotaDays
}

func (e *testEnv) shiftOn(t *testing.T, userID, date string) *model.ShiftRecord {
	t.Helper()
	rec, err := e.repo.Shift.FindByKey(e.ctx, repository.ShiftKey{UserID: userID, StartDate: day(date)})
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return nil
	}
	return rec
}

func actorOf(u model.User) Actor {
	return Actor{UserID: u.UserID, Role: u.Role}
}

func day(s string) time.Time {
	t, ok := schedule.ParseDate(s)
	if !ok {
		panic("bad date " + s)
	}
	return t
}

func strp(s string) *string { return &s }

func userSlot(level int, u model.User) dto.ApprovalSlotInput {
	return dto.ApprovalSlotInput{Level: level, ApproverUserID: strp(u.UserID)}
}

func roleSlot(level int, role string) dto.ApprovalSlotInput {
	return dto.ApprovalSlotInput{Level: level, ApproverRole: strp(role)}
}

// keepSlot 以已有节点 ID 提交，用于编辑审批链
func keepSlot(s model.ApprovalSlot, level int) dto.ApprovalSlotInput {
	return dto.ApprovalSlotInput{
		ID:             strp(s.ApprovalSlotID),
		Level:          level,
		ApproverUserID: s.ApproverUserID,
		ApproverRole:   s.ApproverRole,
		Note:           s.Note,
	}
}

// submitLeave 员工本人提交请假
func (e *testEnv) submitLeave(t *testing.T, category model.LeaveCategory, dates []string, returnDate *string, approvals ...dto.ApprovalSlotInput) *dto.SubmissionDetail[model.LeaveRequest] {
	t.Helper()
	req := &dto.CreateLeaveRequest{
		CategoryID: category.LeaveCategoryID,
		Dates:      dates,
		ReturnDate: returnDate,
		Reason:     "keperluan keluarga",
	}
	req.Approvals = approvals
	detail, err := e.svc.Leave.Create(e.ctx, actorOf(e.employee), req)
	require.NoError(t, err)
	return detail
}

func (e *testEnv) decide(kind model.SubmissionKind, slot model.ApprovalSlot, actor model.User, decision model.Decision, req *dto.DecisionRequest) (*dto.DecisionResponse, error) {
	if req == nil {
		req = &dto.DecisionRequest{}
	}
	req.Decision = string(decision)
	return e.svc.Workflow.Decide(e.ctx, kind, slot.ApprovalSlotID, actorOf(actor), req)
}

func slotAt(slots []model.ApprovalSlot, level int) model.ApprovalSlot {
	for _, s := range slots {
		if s.Level == level {
			return s
		}
	}
	panic(fmt.Sprintf("no slot at level %d", level))
}
