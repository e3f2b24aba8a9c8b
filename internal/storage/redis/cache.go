package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nordmail/backend/internal/domain"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Cache Redis 缓存实现，用作邮件列表与供应商域名列表的旁路缓存。
//
// 缓存只是加速层：未命中或 Redis 故障时调用方直接回源，
// 任何缓存错误都不应阻断主流程。
type Cache struct {
	client *redis.Client
}

// NewCache 创建 Redis 缓存实例。
func NewCache(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// ========== 邮件列表缓存 ==========

// CacheMessageList 缓存某地址的邮件列表。
func (c *Cache) CacheMessageList(ctx context.Context, emailAddressID string, messages []domain.Message, ttl time.Duration) error {
	key := fmt.Sprintf("messages:%s", emailAddressID)
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetCachedMessageList 获取缓存的邮件列表。
func (c *Cache) GetCachedMessageList(ctx context.Context, emailAddressID string) ([]domain.Message, error) {
	key := fmt.Sprintf("messages:%s", emailAddressID)
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var messages []domain.Message
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteCachedMessageList 删除缓存的邮件列表（写入后失效）。
func (c *Cache) DeleteCachedMessageList(ctx context.Context, emailAddressID string) error {
	key := fmt.Sprintf("messages:%s", emailAddressID)
	return c.client.Del(ctx, key).Err()
}

// ========== 供应商域名缓存 ==========

// CacheDomainList 缓存供应商可用域名列表。
func (c *Cache) CacheDomainList(ctx context.Context, domains []domain.MailDomain, ttl time.Duration) error {
	data, err := json.Marshal(domains)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "provider:domains", data, ttl).Err()
}

// GetCachedDomainList 获取缓存的域名列表。
func (c *Cache) GetCachedDomainList(ctx context.Context) ([]domain.MailDomain, error) {
	data, err := c.client.Get(ctx, "provider:domains").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var domains []domain.MailDomain
	if err := json.Unmarshal([]byte(data), &domains); err != nil {
		return nil, err
	}
	return domains, nil
}

// ========== 工具方法 ==========

// Ping 测试 Redis 连接。
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭 Redis 连接。
func (c *Cache) Close() error {
	return c.client.Close()
}
