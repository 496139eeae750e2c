package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/jwt"
	"e-hrm/backend/pkg/response"
	"e-hrm/backend/pkg/storage"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxUserID)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, ctxRole)
}

// MustGetActor 提取当前操作人
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: role}, true
}

// MustGetClaims 提取完整 JWT 声明（登出时需要 jti 与过期时间）
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// ── 错误输出 ──

// handleServiceError 业务错误按分类映射状态码，其余一律 500
func handleServiceError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, err.Error())
	case errors.Is(err, storage.ErrFileTypeInvalid):
		response.BadRequest(c, 10006, err.Error())
	default:
		response.FromError(c, err)
	}
}

// bindError 参数绑定失败；请求体被 BodyLimit 截断时返回 413
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		handleServiceError(c, err)
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}
