package handler

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/response"
	"e-hrm/backend/pkg/storage"
)

// WorkflowHandler 审批决策、审批链与待办
type WorkflowHandler struct {
	svc   service.WorkflowService
	store storage.Store
}

// NewWorkflowHandler 创建 WorkflowHandler，store 为 nil 时不接受决策凭证文件
func NewWorkflowHandler(svc service.WorkflowService, store storage.Store) *WorkflowHandler {
	return &WorkflowHandler{svc: svc, store: store}
}

// Decide 对审批节点作出决策
// PATCH /api/v1/approvals/:kind/:slot_id
//
// 支持两种方式：
//   - application/json
//   - multipart/form-data，字段同 JSON，可附 proof 文件
func (h *WorkflowHandler) Decide(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	kind := kindParam(c)

	var (
		req   dto.DecisionRequest
		saved *string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			bindError(c, err)
			return
		}
		url, err := h.saveProof(c, kind)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		if url != nil {
			req.ProofURL, saved = url, url
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Decide(c.Request.Context(), kind, c.Param("slot_id"), actor, &req)
	if err != nil {
		// 决策未落库，凭证文件随之作废
		if saved != nil {
			_ = h.store.Remove(c.Request.Context(), *saved)
		}
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// Chain 查看申请审批链
// GET /api/v1/approvals/:kind/submissions/:id
func (h *WorkflowHandler) Chain(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Chain(c.Request.Context(), kindParam(c), c.Param("id"), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// Inbox 当前用户的待审批节点
// GET /api/v1/approvals/inbox
func (h *WorkflowHandler) Inbox(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.svc.Inbox(c.Request.Context(), actor, page.GetOffset(), page.GetPageSize())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, items, total, page.GetPage(), page.GetPageSize())
}

// saveProof 保存决策凭证，未上传文件时返回 nil
func (h *WorkflowHandler) saveProof(c *gin.Context, kind model.SubmissionKind) (*string, error) {
	fh, err := c.FormFile("proof")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if h.store == nil {
		return nil, service.ErrInvalidParam.WithMessage("未启用附件存储")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	url, err := h.store.Save(c.Request.Context(), path.Join("proofs", string(kind)), fh.Filename, f)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// kindParam 路径中的申请类型，允许 hour-permit 与 hour_permit 两种写法
func kindParam(c *gin.Context) model.SubmissionKind {
	return model.SubmissionKind(strings.ReplaceAll(strings.ToLower(c.Param("kind")), "-", "_"))
}
