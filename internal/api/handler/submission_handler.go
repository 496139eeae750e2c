package handler

import (
	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/response"
)

// SubmissionRoutes 单类申请的 CRUD 路由
type SubmissionRoutes interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// SubmissionHandler 申请 HTTP 处理器，六类申请共用
type SubmissionHandler[E any, C any, U any] struct {
	svc service.SubmissionService[E, C, U]
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler[E any, C any, U any](svc service.SubmissionService[E, C, U]) *SubmissionHandler[E, C, U] {
	return &SubmissionHandler[E, C, U]{svc: svc}
}

// Create 新建申请（含审批链）
// POST /api/v1/{kind}
func (h *SubmissionHandler[E, C, U]) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// List 申请列表，非管理员只能看到本人申请
// GET /api/v1/{kind}
func (h *SubmissionHandler[E, C, U]) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.svc.List(c.Request.Context(), actor, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 申请详情
// GET /api/v1/{kind}/:id
func (h *SubmissionHandler[E, C, U]) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// Update 编辑申请，可同时同步审批链
// PUT /api/v1/{kind}/:id
func (h *SubmissionHandler[E, C, U]) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req U
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除待审批申请
// DELETE /api/v1/{kind}/:id
func (h *SubmissionHandler[E, C, U]) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
