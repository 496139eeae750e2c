package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"e-hrm/backend/config"
	"e-hrm/backend/internal/api/handler"
	"e-hrm/backend/internal/api/middleware"
	"e-hrm/backend/pkg/jwt"
	"e-hrm/backend/pkg/metrics"
	"e-hrm/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎，rdb 为 nil 时黑名单与限流降级
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 避免把 nil *redis.Client 装进接口
	var (
		blacklist middleware.TokenChecker
		limiter   middleware.WindowLimiter
		cache     handler.Pinger
	)
	if rdb != nil {
		blacklist, limiter, cache = rdb, rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// ── 运维 ──
	health := handler.NewHealthHandler(db, cache)
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ── 上传文件 ──
	if cfg.Storage.UploadDir != "" {
		r.Static("/uploads", cfg.Storage.UploadDir)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户管理
			users := authorized.Group("/users", middleware.RoleAuth(cfg.Approval.AdminRoles...))
			{
				users.POST("", h.User.CreateUser)
				users.GET("", h.User.ListUsers)
			}

			// 附件
			authorized.POST("/attachments", h.Attachment.Upload)

			// 各类申请
			for segment, routes := range h.Submissions {
				g := authorized.Group("/" + segment)
				g.POST("", routes.Create)
				g.GET("", routes.List)
				g.GET("/:id", routes.Get)
				g.PUT("/:id", routes.Update)
				g.DELETE("/:id", routes.Delete)
			}

			// 审批
			approvals := authorized.Group("/approvals")
			{
				approvals.GET("/inbox", h.Workflow.Inbox)
				approvals.GET("/:kind/submissions/:id", h.Workflow.Chain)
				approvals.PATCH("/:kind/:slot_id", h.Workflow.Decide)
			}

			// 排班台账（管理员校验在 Service 层）
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("", h.Shift.List)
				shifts.GET("/calendar.ics", h.Shift.Calendar)
				shifts.POST("/weekly/preview", h.Shift.PreviewWeekly)
				shifts.POST("/weekly", h.Shift.CreateWeekly)
				shifts.POST("/adjust", h.Shift.Adjust)
			}

			// 基础数据
			authorized.GET("/work-patterns", h.Reference.ListWorkPatterns)
			authorized.POST("/work-patterns", h.Reference.CreateWorkPattern)
			authorized.GET("/leave-categories", h.Reference.ListLeaveCategories)
			authorized.POST("/leave-categories", h.Reference.CreateLeaveCategory)
			authorized.GET("/quotas", h.Reference.ListQuotas)
			authorized.POST("/quotas", h.Reference.UpsertQuota)

			// 站内通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
				notifications.GET("/preference", h.Notification.GetPreference)
				notifications.PUT("/preference", h.Notification.UpdatePreference)
			}
		}
	}

	logger.Info("路由初始化完成", zap.Int("routes", len(r.Routes())))

	return r
}
