package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/api"
	"github.com/qs3c/notemeet_server/internal/api/handler"
	"github.com/qs3c/notemeet_server/internal/database"
	"github.com/qs3c/notemeet_server/internal/pkg/cron"
	"github.com/qs3c/notemeet_server/internal/pkg/email"
	"github.com/qs3c/notemeet_server/internal/pkg/logger"
	"github.com/qs3c/notemeet_server/internal/pkg/metrics"
	"github.com/qs3c/notemeet_server/internal/pkg/oauth"
	"github.com/qs3c/notemeet_server/internal/pkg/twofactor"
	"github.com/qs3c/notemeet_server/internal/repository"
	"github.com/qs3c/notemeet_server/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	log.Info("database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	log.Info("redis connected")

	m := metrics.New()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// 初始化 Service
	github := oauth.NewGithubOAuth(
		cfg.OAuth.Github.ClientID,
		cfg.OAuth.Github.ClientSecret,
		cfg.OAuth.Github.RedirectURI,
	)
	authService := service.NewAuthService(
		userRepo,
		twofactor.NewStore(rdb),
		oauth.NewStateStore(rdb),
		github,
		email.NewService(&cfg.Email),
		cfg,
	)
	planService := service.NewPlanService(planRepo)
	entitlementService := service.NewEntitlementService(subRepo, usageRepo, cfg, service.WithMetrics(m))
	subscriptionService := service.NewSubscriptionService(subRepo, userRepo, planRepo)

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAuthHandler(authService, cfg.OAuth.Github.SuccessURI),
		handler.NewUserHandler(authService),
		handler.NewPlanHandler(planService),
		handler.NewSubscriptionHandler(entitlementService, subscriptionService),
		authService,
		m,
		log,
		cfg,
	)

	// 定时任务
	sweeper := cron.NewService(subscriptionService, cfg.Cron.ExpirySchedule, log)
	if err := sweeper.Start(); err != nil {
		log.Error("failed to start expiry sweeper", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	sweeper.Stop(ctx)
	if err := rdb.Close(); err != nil {
		log.Warn("close redis failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
