package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"e-hrm/backend/pkg/metrics"
)

// Metrics 记录请求计数与耗时，路径取路由模板避免标签膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}
