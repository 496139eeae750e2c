package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"e-hrm/backend/internal/api/handler"
	"e-hrm/backend/internal/api/router"
	"e-hrm/backend/internal/model"
	"e-hrm/backend/internal/repository"
	"e-hrm/backend/internal/service"
	"e-hrm/backend/pkg/database"
	"e-hrm/backend/pkg/jwt"
	applogger "e-hrm/backend/pkg/logger"
	"e-hrm/backend/pkg/notify"
	"e-hrm/backend/pkg/redis"
	"e-hrm/backend/pkg/storage"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.Close()
		return serve(rt)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
}

func serve(rt *app) error {
	cfg, logger, db := rt.cfg, rt.logger, rt.db

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// 1. 数据库迁移
	if !skipMigrate {
		if err := database.RunMigrations(db, cfg.Database.Driver, logger, model.All()...); err != nil {
			logger.Error("数据库迁移失败", zap.Error(err))
			return err
		}
	}

	// 2. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	var blacklist service.TokenBlacklist
	if cfg.Redis.Enabled {
		c, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与分布式限流将不可用", zap.Error(err))
		} else {
			rdb, blacklist = c, c
			defer rdb.Close()
		}
	}

	// 3. 附件存储
	store, err := storage.NewLocalStore(&cfg.Storage)
	if err != nil {
		logger.Error("初始化附件存储失败", zap.Error(err))
		return err
	}

	// 4. 通知分发：站内 + NATS + 邮件
	repo := repository.NewRepository(db)
	sinks := []notify.Sink{service.NewInAppSink(repo)}
	natsSink, err := notify.NewNATSSink(cfg.NATS.URL, cfg.NATS.SubjectPrefix, applogger.Named(logger, "nats"))
	if err != nil {
		logger.Warn("NATS 不可用，跳过事件发布", zap.Error(err))
	} else if natsSink != nil {
		sinks = append(sinks, natsSink)
		defer natsSink.Close()
	}
	if mailSink := notify.NewMailSink(&cfg.Mail, service.MailRecipients(repo)); mailSink != nil {
		sinks = append(sinks, mailSink)
	}
	dispatcher := notify.NewDispatcher(cfg.Notify.QueueSize, cfg.Notify.Workers, applogger.Named(logger, "notify"), sinks...)
	dispatcher.Start()

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, dispatcher, logger)
	h := handler.NewHandler(svc, store)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("HTTP 服务器异常", zap.Error(serveErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 先停 HTTP 再排空通知队列
	if err := dispatcher.Close(ctx); err != nil {
		logger.Warn("通知队列未排空", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return serveErr
}
