package service

import (
	"go.uber.org/zap"

	"e-hrm/backend/config"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/pkg/jwt"
	"e-hrm/backend/pkg/notify"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Workflow     WorkflowService
	Shift        ShiftService
	Reference    ReferenceService
	Notification NotificationService

	// 各类申请
	Leave         LeaveService
	HourPermit    HourPermitService
	DaySwap       DaySwapService
	Payment       PaymentService
	Reimbursement ReimbursementService
	PocketMoney   PocketMoneyService

	Policy AuthorizationPolicy
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	notifier notify.Publisher,
	logger *zap.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	policy := NewAuthorizationPolicy(cfg.Approval)
	shifts := NewShiftLedger(logger)
	engine := newWorkflowEngine(NewQuotaLedger(logger), shifts, policy, notifier, logger)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		Workflow:     NewWorkflowService(repo, engine, logger),
		Shift:        NewShiftService(repo, shifts, policy, notifier, logger),
		Reference:    NewReferenceService(repo, policy, logger),
		Notification: NewNotificationService(repo, logger),

		Leave:         newSubmissionService[model.LeaveRequest, *model.LeaveRequest](repo, engine, leaveSpec(), logger),
		HourPermit:    newSubmissionService[model.HourPermit, *model.HourPermit](repo, engine, hourPermitSpec(), logger),
		DaySwap:       newSubmissionService[model.DaySwapRequest, *model.DaySwapRequest](repo, engine, daySwapSpec(), logger),
		Payment:       newSubmissionService[model.Payment, *model.Payment](repo, engine, paymentSpec(), logger),
		Reimbursement: newSubmissionService[model.Reimbursement, *model.Reimbursement](repo, engine, reimbursementSpec(), logger),
		PocketMoney:   newSubmissionService[model.PocketMoneyRequest, *model.PocketMoneyRequest](repo, engine, pocketMoneySpec(), logger),

		Policy: policy,
	}
}
