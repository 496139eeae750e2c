package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"e-hrm/backend/pkg/metrics"
)

// Pinger 可选依赖的健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 存活与依赖检查
type HealthHandler struct {
	db    *gorm.DB
	cache Pinger
}

// NewHealthHandler 创建 HealthHandler，cache 为 nil 表示未启用 Redis
func NewHealthHandler(db *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		_ = metrics.UpdateDatabaseConnections(h.db)
	}

	switch {
	case h.cache == nil:
		checks["redis"] = "disabled"
	case h.cache.Ping(ctx) != nil:
		// Redis 故障时限流与黑名单降级，不影响存活
		checks["redis"] = "degraded"
	default:
		checks["redis"] = "ok"
	}

	if status == http.StatusOK {
		c.JSON(status, gin.H{"status": "ok", "checks": checks})
		return
	}
	c.JSON(status, gin.H{"status": "unavailable", "checks": checks})
}
