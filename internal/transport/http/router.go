package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtpkg "nordmail/backend/internal/auth/jwt"
	"nordmail/backend/internal/config"
	"nordmail/backend/internal/health"
	"nordmail/backend/internal/middleware"
	"nordmail/backend/internal/monitoring"
	"nordmail/backend/internal/service"
	"nordmail/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	AccountService *service.AccountService
	EmailService   *service.EmailService
	SyncService    *service.SyncService
	AdminService   *service.AdminService
	JWTManager     *jwtpkg.Manager
	WebSocketHub   *websocket.Hub        // 可为 nil
	HealthChecker  *health.HealthChecker // 可为 nil
	Metrics        *monitoring.Metrics   // 可为 nil
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	if deps.Metrics != nil {
		monitoringMW := middleware.NewMonitoringMiddleware(deps.Metrics, log)
		router.Use(monitoringMW.PanicRecovery())
		router.Use(monitoringMW.HTTPMetrics())
	} else {
		router.Use(gin.Recovery())
	}
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	accountHandler := NewAccountHandler(deps.AccountService)
	emailHandler := NewEmailHandler(deps.EmailService)
	messageHandler := NewMessageHandler(deps.SyncService)
	adminHandler := NewAdminHandler(deps.AdminService)

	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)

	// 健康检查
	if deps.HealthChecker != nil {
		healthHandler := deps.HealthChecker.Handler()
		router.GET("/health", gin.WrapH(healthHandler))
		router.GET("/health/live", gin.WrapH(healthHandler))
		router.GET("/health/ready", gin.WrapH(healthHandler))
	} else {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	api := router.Group("/api")
	{
		// ========== Public Routes ==========
		api.GET("/domains", emailHandler.ListDomains)

		// ========== Account Routes ==========
		accountRoutes := api.Group("/accounts")
		{
			accountRoutes.POST("", accountHandler.Register)
			accountRoutes.POST("/login", accountHandler.Login)
			accountRoutes.GET("/:accountId", accountHandler.Get)
			accountRoutes.PATCH("/:accountId", accountHandler.Update)

			// 账户名下的邮箱地址
			accountRoutes.GET("/:accountId/emails", emailHandler.List)
			accountRoutes.POST("/:accountId/emails", emailHandler.Create)
		}

		// ========== Email Routes ==========
		emailRoutes := api.Group("/emails")
		{
			emailRoutes.GET("/:emailId", emailHandler.Get)
			emailRoutes.GET("/:emailId/messages", messageHandler.List)
		}

		// ========== Message Routes ==========
		messageRoutes := api.Group("/messages")
		{
			messageRoutes.GET("/:messageId", messageHandler.Get)
			messageRoutes.PATCH("/:messageId/read", messageHandler.MarkRead)
			messageRoutes.DELETE("/:messageId", messageHandler.Delete)
		}

		// ========== Admin Routes ==========
		adminRoutes := api.Group("/admin")
		{
			adminRoutes.POST("/login", adminHandler.Login)
			adminRoutes.POST("/refresh", adminHandler.Refresh)

			protected := adminRoutes.Group("")
			protected.Use(jwtAuth.RequireAdmin())
			{
				protected.GET("/stats", adminHandler.Stats)
				protected.GET("/activity", adminHandler.Activity)
				protected.GET("/settings", adminHandler.GetSettings)
				protected.PATCH("/settings", adminHandler.UpdateSettings)
			}
		}
	}

	// ========== WebSocket Routes ==========
	if deps.WebSocketHub != nil {
		router.GET("/ws/emails/:emailId", websocket.Handler(deps.WebSocketHub))
	}

	return router
}
