package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	jwtpkg "nordmail/backend/internal/auth/jwt"
	"nordmail/backend/internal/config"
	"nordmail/backend/internal/health"
	"nordmail/backend/internal/logger"
	"nordmail/backend/internal/monitoring"
	"nordmail/backend/internal/pool"
	"nordmail/backend/internal/provider/mailtm"
	"nordmail/backend/internal/service"
	"nordmail/backend/internal/storage"
	"nordmail/backend/internal/storage/memory"
	redisstore "nordmail/backend/internal/storage/redis"
	sqlstore "nordmail/backend/internal/storage/sql"
	httptransport "nordmail/backend/internal/transport/http"
	"nordmail/backend/internal/websocket"
)

// main 启动 HTTP API 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting nordmail server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	store, err := initializeStorage(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// 初始化 Redis 旁路缓存（可选）
	var cache *redisstore.Cache
	if cfg.Redis.Enabled {
		cache, err = redisstore.NewCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
			log.Info("redis cache enabled", zap.String("address", cfg.Redis.Address))
		}
	}

	// 初始化监控
	metrics := monitoring.NewMetrics()

	// 初始化供应商客户端
	provider := mailtm.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, cfg.Provider.QPS)
	log.Info("provider client initialized",
		zap.String("base_url", cfg.Provider.BaseURL),
		zap.Float64("qps", cfg.Provider.QPS),
	)

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, cache, health.ProviderHealthCheck(provider), log)

	// 共享协程池，限制对供应商的并发详情拉取
	fetchPool := pool.New(cfg.Provider.FetchWorkers, cfg.Provider.FetchWorkers*4, log)

	// WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, store, log)

	// 初始化服务层
	accountService := service.NewAccountService(store, log, metrics)
	emailService := service.NewEmailService(store, provider, cache, cfg.Provider.DomainCacheTTL, log, metrics)
	syncService := service.NewSyncService(store, provider, fetchPool, wsHub, cache, log, metrics)

	jwtManager := jwtpkg.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	adminService := service.NewAdminService(store, jwtManager, log)

	// 初始化后台配置，首次启动时使用环境变量提供的初始口令
	if password := os.Getenv("NORDMAIL_ADMIN_PASSWORD"); password != "" {
		if err := adminService.EnsureDefaults(password); err != nil {
			log.Error("failed to initialize admin settings", zap.Error(err))
		}
	}

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		AccountService: accountService,
		EmailService:   emailService,
		SyncService:    syncService,
		AdminService:   adminService,
		JWTManager:     jwtManager,
		WebSocketHub:   wsHub,
		HealthChecker:  healthChecker,
		Metrics:        metrics,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// 协程池
	fetchPool.Start(groupCtx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// WebSocket Hub goroutine
	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		fetchPool.Stop()
		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// initializeStorage 根据配置选择存储实现。
func initializeStorage(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	if cfg.Database.Type == "" {
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil
	}

	store, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	log.Info("using database storage", zap.String("type", cfg.Database.Type))
	return store, nil
}
