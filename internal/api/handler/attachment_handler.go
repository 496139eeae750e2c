package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/response"
	"e-hrm/backend/pkg/storage"
)

// AttachmentHandler 申请附件上传，返回的 URL 写入 attachment_url
type AttachmentHandler struct {
	store storage.Store
}

// NewAttachmentHandler 创建 AttachmentHandler
func NewAttachmentHandler(store storage.Store) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// Upload 上传附件
// POST /api/v1/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if h.store == nil {
		handleServiceError(c, service.ErrInvalidParam.WithMessage("未启用附件存储"))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleServiceError(c, err)
			return
		}
		response.BadRequest(c, 10001, "请上传附件文件")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	url, err := h.store.Save(c.Request.Context(), "attachments/"+userID, fh.Filename, f)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, gin.H{"url": url})
}
