package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/response"
)

// ShiftHandler 排班台账 HTTP 处理器
type ShiftHandler struct {
	svc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(svc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{svc: svc}
}

// PreviewWeekly 预览每周排班模式的归一化结果
// POST /api/v1/shifts/weekly/preview
func (h *ShiftHandler) PreviewWeekly(c *gin.Context) {
	var req dto.WeeklyPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.PreviewWeekly(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// CreateWeekly 按每周模式写入排班记录
// POST /api/v1/shifts/weekly
func (h *ShiftHandler) CreateWeekly(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateWeeklyShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.CreateWeekly(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// Adjust 手动调整某日排班状态
// POST /api/v1/shifts/adjust
func (h *ShiftHandler) Adjust(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.AdjustShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Adjust(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// List 排班记录列表
// GET /api/v1/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	records, err := h.svc.List(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// Calendar 导出排班日历
// GET /api/v1/shifts/calendar.ics
func (h *ShiftHandler) Calendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	raw, err := h.svc.Calendar(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="jadwal.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", raw)
}
