package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/api/handler"
	"github.com/qs3c/notemeet_server/internal/api/middleware"
	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/pkg/logger"
	"github.com/qs3c/notemeet_server/internal/pkg/metrics"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	planHandler         *handler.PlanHandler
	subscriptionHandler *handler.SubscriptionHandler
	users               middleware.UserLoader
	metrics             *metrics.Metrics
	logger              *slog.Logger
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	planHandler *handler.PlanHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	users middleware.UserLoader,
	m *metrics.Metrics,
	l *slog.Logger,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		planHandler:         planHandler,
		subscriptionHandler: subscriptionHandler,
		users:               users,
		metrics:             m,
		logger:              l,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(r.metrics.Middleware())
	engine.Use(logger.Middleware(r.logger, middleware.GetUserID))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", r.metrics.Handler())

	requireAuth := middleware.Auth(r.cfg.JWT.Secret, r.users)
	requireAdmin := middleware.RequireRole(model.RoleAdmin)

	api := engine.Group("/api")
	{
		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/github", r.authHandler.GithubAuth)
			auth.GET("/github/callback", r.authHandler.GithubCallback)
			auth.GET("/session", requireAuth, r.authHandler.Session)
		}

		// 套餐
		plan := api.Group("/plan")
		{
			plan.GET("", r.planHandler.List)
			plan.GET("/:id", r.planHandler.Get)
			plan.POST("", requireAuth, requireAdmin, r.planHandler.Create)
		}

		// 需要认证的接口
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/subscriptions/me", r.subscriptionHandler.Me)
			users.PUT("/me/two-factor", r.userHandler.SetTwoFactor)
		}

		// 管理员
		admin := api.Group("/admin")
		admin.Use(requireAuth, requireAdmin)
		{
			admin.POST("/subscriptions", r.subscriptionHandler.Grant)
			admin.DELETE("/subscriptions/:id", r.subscriptionHandler.Cancel)
		}
	}

	return engine
}
