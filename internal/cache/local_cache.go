package cache

import (
	"sync"
	"time"
)

// TTLCache 进程内 TTL 缓存（L1 缓存）。
//
// 用于缓存变化缓慢的小数据，例如供应商域名列表，
// 避免每次建新地址都打到供应商 API。
type TTLCache[V any] struct {
	mu   sync.RWMutex
	data map[string]entry[V]
	ttl  time.Duration
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache 创建缓存实例。
//
// 参数:
//   - ttl: 默认过期时间
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		data: make(map[string]entry[V]),
		ttl:  ttl,
	}
}

// Get 获取缓存值，过期视为未命中并惰性清除。
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set 设置缓存值，ttl 为 0 时使用默认过期时间。
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.data[key] = entry[V]{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete 删除缓存值。
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}
