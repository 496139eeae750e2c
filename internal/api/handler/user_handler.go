package handler

import (
	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/dto"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/response"
)

// UserHandler 用户管理 HTTP 处理器（管理员）
type UserHandler struct {
	authSvc service.AuthService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(authSvc service.AuthService) *UserHandler {
	return &UserHandler{authSvc: authSvc}
}

// CreateUser 创建用户
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.authSvc.CreateUser(c.Request.Context(), &req, &callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, user)
}

// ListUsers 用户列表
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	users, total, err := h.authSvc.ListUsers(c.Request.Context(), page.GetOffset(), page.GetPageSize())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, users, total, page.GetPage(), page.GetPageSize())
}
