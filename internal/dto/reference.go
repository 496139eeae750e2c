package dto

// ── 基础数据 DTO ──

// CreateWorkPatternRequest 创建工作时间模板
type CreateWorkPatternRequest struct {
	Name         string `json:"name"          binding:"required,max=100"`
	StartTime    string `json:"start_time"    binding:"required"`
	EndTime      string `json:"end_time"      binding:"required"`
	BreakMinutes int    `json:"break_minutes" binding:"omitempty,min=0,max=600"`
}

// CreateLeaveCategoryRequest 创建请假类别
type CreateLeaveCategoryRequest struct {
	Name         string `json:"name"          binding:"required,max=100"`
	QuotaEnabled bool   `json:"quota_enabled"`
}

// UpsertQuotaRequest 设置月度请假额度
type UpsertQuotaRequest struct {
	UserID    string `json:"user_id"    binding:"required,uuid"`
	Month     string `json:"month"      binding:"required"` // YYYY-MM
	QuotaDays int    `json:"quota_days" binding:"min=0"`
}

// QuotaListRequest 额度查询
type QuotaListRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}
