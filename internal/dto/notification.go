package dto

// ── 站内通知 DTO ──

// NotificationListRequest 通知列表查询
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	PaginationRequest
}

// UpdatePreferenceRequest 更新通知偏好
type UpdatePreferenceRequest struct {
	EmailEnabled *bool `json:"email_enabled"`
	InAppEnabled *bool `json:"in_app_enabled"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
