package cache

import (
	"context"
	"time"
)

// LayeredOption configures NewLayeredCache.
type LayeredOption func(*LayeredCache)

// WithLayeredMemorySize caps the number of L1 entries.
func WithLayeredMemorySize(size int) LayeredOption {
	return func(lc *LayeredCache) {
		if size > 0 {
			lc.memSize = size
		}
	}
}

// WithLayeredMemoryTTL bounds how long an L1 copy may lag behind Redis.
func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(lc *LayeredCache) {
		if ttl > 0 {
			lc.memTTL = ttl
		}
	}
}

// LayeredCache reads through a small in-process LRU (L1) in front of
// Redis (L2). Writes go to Redis first.
type LayeredCache struct {
	mem     *MemoryCache
	redis   *RedisCache
	memSize int
	memTTL  time.Duration
}

func NewLayeredCache(rc *RedisCache, opts ...LayeredOption) *LayeredCache {
	lc := &LayeredCache{redis: rc, memSize: 1000, memTTL: time.Minute}
	for _, opt := range opts {
		opt(lc)
	}
	lc.mem = NewMemoryCache(WithMemoryMaxSize(lc.memSize))
	return lc
}

func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.memTTL {
		return expiration
	}
	return lc.memTTL
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, lc.l1TTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}

	var raw []byte
	if err := lc.redis.Get(ctx, key, &raw); err != nil {
		return err
	}

	_ = lc.mem.Set(ctx, key, raw, lc.memTTL)
	return assign(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.redis.Exists(ctx, keys...)
}

func (lc *LayeredCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	_, _ = lc.mem.Expire(ctx, key, lc.l1TTL(expiration))
	return lc.redis.Expire(ctx, key, expiration)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
