package handler

import (
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/storage"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Workflow     *WorkflowHandler
	Shift        *ShiftHandler
	Reference    *ReferenceHandler
	Notification *NotificationHandler
	Attachment   *AttachmentHandler

	// Submissions 路径段 → 对应类型的申请路由
	Submissions map[string]SubmissionRoutes
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, store storage.Store) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.Auth),
		Workflow:     NewWorkflowHandler(svc.Workflow, store),
		Shift:        NewShiftHandler(svc.Shift),
		Reference:    NewReferenceHandler(svc.Reference),
		Notification: NewNotificationHandler(svc.Notification),
		Attachment:   NewAttachmentHandler(store),
		Submissions: map[string]SubmissionRoutes{
			"leaves":         NewSubmissionHandler(svc.Leave),
			"hour-permits":   NewSubmissionHandler(svc.HourPermit),
			"day-swaps":      NewSubmissionHandler(svc.DaySwap),
			"payments":       NewSubmissionHandler(svc.Payment),
			"reimbursements": NewSubmissionHandler(svc.Reimbursement),
			"pocket-money":   NewSubmissionHandler(svc.PocketMoney),
		},
	}
}
