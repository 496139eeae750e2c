package handler

import (
	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/response"
)

// ReferenceHandler 工作时间模板、请假类别与月度额度
type ReferenceHandler struct {
	svc service.ReferenceService
}

// NewReferenceHandler 创建 ReferenceHandler
func NewReferenceHandler(svc service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// ── 工作时间模板 ──

// CreateWorkPattern 创建工作时间模板
// POST /api/v1/work-patterns
func (h *ReferenceHandler) CreateWorkPattern(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateWorkPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.CreateWorkPattern(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// ListWorkPatterns 工作时间模板列表
// GET /api/v1/work-patterns
func (h *ReferenceHandler) ListWorkPatterns(c *gin.Context) {
	list, err := h.svc.ListWorkPatterns(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ── 请假类别 ──

// CreateLeaveCategory 创建请假类别
// POST /api/v1/leave-categories
func (h *ReferenceHandler) CreateLeaveCategory(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateLeaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.CreateLeaveCategory(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// ListLeaveCategories 请假类别列表
// GET /api/v1/leave-categories
func (h *ReferenceHandler) ListLeaveCategories(c *gin.Context) {
	list, err := h.svc.ListLeaveCategories(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ── 月度额度 ──

// UpsertQuota 设置月度请假额度
// POST /api/v1/quotas
func (h *ReferenceHandler) UpsertQuota(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpsertQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.UpsertQuota(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListQuotas 月度额度列表，非管理员只能查看本人
// GET /api/v1/quotas
func (h *ReferenceHandler) ListQuotas(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.QuotaListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.svc.ListQuotas(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
