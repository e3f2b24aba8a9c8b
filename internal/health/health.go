package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"nordmail/backend/internal/provider/mailtm"
	"nordmail/backend/internal/storage"
	redisstore "nordmail/backend/internal/storage/redis"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器。
//
// cache 和 providerCheck 可以为 nil，对应的检查会被跳过。
func NewHealthChecker(store storage.Store, cache *redisstore.Cache, providerCheck healthcheck.Check, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	hc.addChecks(cache, providerCheck)

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks(cache *redisstore.Cache, providerCheck healthcheck.Check) {
	// 存储检查
	hc.health.AddLivenessCheck("store", func() error {
		return hc.store.Health()
	})

	// goroutine 数量检查
	hc.health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(1000))

	// Redis 连接检查（启用时）
	if cache != nil {
		hc.health.AddReadinessCheck("redis", RedisHealthCheck(cache))
	}

	// 供应商可达性检查，异步执行避免每次探测都请求外部 API
	if providerCheck != nil {
		hc.health.AddReadinessCheck("provider", healthcheck.Async(providerCheck, 30*time.Second))
	}
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// CheckHealth 执行健康检查
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.store.Health(); err != nil {
		results["store"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["store"] = "OK"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}

// ProviderHealthCheck 供应商 API 可达性检查
func ProviderHealthCheck(client *mailtm.Client) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := client.GetDomains(ctx)
		return err
	}
}

// RedisHealthCheck Redis 健康检查
func RedisHealthCheck(cache *redisstore.Cache) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		return cache.Ping(ctx)
	}
}
