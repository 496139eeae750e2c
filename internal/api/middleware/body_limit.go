package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"e-hrm/backend/pkg/response"
)

// BodyLimit 请求体大小上限
//
// 声明了 Content-Length 且超限的请求直接返回 413；其余请求体包一层
// http.MaxBytesReader，读取越界时绑定/取文件返回 *http.MaxBytesError，
// 由 handler 统一映射为 413。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
