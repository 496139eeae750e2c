package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/pkg/notify"
	pkgerrors "e-hrm/backend/pkg/errors"
)

// NotificationService 站内通知与通知偏好
type NotificationService interface {
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	GetPreference(ctx context.Context, userID string) (*model.NotificationPreference, error)
	UpdatePreference(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*model.NotificationPreference, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]model.Notification, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, pkgerrors.Internal("查询通知", err)
	}
	return list, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error) {
	n, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Internal("统计未读通知", err)
	}
	return &dto.UnreadCountResponse{Unread: n}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, id, userID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Internal("标记通知已读", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Internal("标记全部已读", err)
	}
	return n, nil
}

func (s *notificationService) GetPreference(ctx context.Context, userID string) (*model.NotificationPreference, error) {
	pref, err := s.repo.Notification.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultPreference(userID), nil
		}
		return nil, pkgerrors.Internal("查询通知偏好", err)
	}
	return pref, nil
}

func (s *notificationService) UpdatePreference(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*model.NotificationPreference, error) {
	pref, err := s.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.EmailEnabled != nil {
		pref.EmailEnabled = *req.EmailEnabled
	}
	if req.InAppEnabled != nil {
		pref.InAppEnabled = *req.InAppEnabled
	}
	pref.UpdatedBy = &userID
	if err := s.repo.Notification.SavePreference(ctx, pref); err != nil {
		s.logger.Error("保存通知偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.Internal("保存通知偏好", err)
	}
	return pref, nil
}

// defaultPreference 未设置偏好时两个通道都开启
func defaultPreference(userID string) *model.NotificationPreference {
	return &model.NotificationPreference{UserID: userID, EmailEnabled: true, InAppEnabled: true}
}

// ── 投递通道 ──

// recipients 解析事件接收用户：UserID 优先，否则按角色展开
func recipients(ctx context.Context, repo *repository.Repository, ev notify.Event) ([]model.User, error) {
	if ev.UserID != "" {
		u, err := repo.User.GetByID(ctx, ev.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return []model.User{*u}, nil
	}
	if ev.Role != "" {
		return repo.User.ListByRole(ctx, normalizeRole(ev.Role))
	}
	return nil, nil
}

// filterByPreference 按通道偏好过滤接收人，无偏好记录视为开启
func filterByPreference(ctx context.Context, repo *repository.Repository, users []model.User, enabled func(*model.NotificationPreference) bool) ([]model.User, error) {
	if len(users) == 0 {
		return nil, nil
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.UserID
	}
	prefs, err := repo.Notification.ListPreferences(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*model.NotificationPreference, len(prefs))
	for i := range prefs {
		byUser[prefs[i].UserID] = &prefs[i]
	}

	out := users[:0:0]
	for _, u := range users {
		if p, ok := byUser[u.UserID]; ok && !enabled(p) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// InAppSink 将事件写入 notifications 表
type InAppSink struct {
	repo *repository.Repository
}

// NewInAppSink 创建站内通知通道
func NewInAppSink(repo *repository.Repository) *InAppSink {
	return &InAppSink{repo: repo}
}

func (s *InAppSink) Name() string { return "in_app" }

func (s *InAppSink) Deliver(ctx context.Context, ev notify.Event) error {
	users, err := recipients(ctx, s.repo, ev)
	if err != nil {
		return err
	}
	users, err = filterByPreference(ctx, s.repo, users, func(p *model.NotificationPreference) bool { return p.InAppEnabled })
	if err != nil || len(users) == 0 {
		return err
	}

	var payload datatypes.JSON
	if len(ev.Payload) > 0 {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		payload = raw
	}

	rows := make([]model.Notification, 0, len(users))
	for _, u := range users {
		n := model.Notification{
			UserID:      u.UserID,
			Type:        ev.Type,
			Title:       ev.Title,
			Content:     ev.Body,
			RelatedType: optional(ev.RelatedKind),
			RelatedID:   optional(ev.RelatedID),
			Payload:     payload,
		}
		n.CreatedBy = optional(ev.ActorID)
		rows = append(rows, n)
	}
	return s.repo.Notification.BatchCreate(ctx, rows)
}

// MailRecipients 邮件通道的收件人解析
func MailRecipients(repo *repository.Repository) notify.RecipientResolver {
	return func(ctx context.Context, ev notify.Event) ([]string, error) {
		users, err := recipients(ctx, repo, ev)
		if err != nil {
			return nil, err
		}
		users, err = filterByPreference(ctx, repo, users, func(p *model.NotificationPreference) bool { return p.EmailEnabled })
		if err != nil {
			return nil, err
		}
		to := make([]string, 0, len(users))
		for _, u := range users {
			if u.Email != "" {
				to = append(to, u.Email)
			}
		}
		return to, nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
