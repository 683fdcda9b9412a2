package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures NewRedisCache.
type RedisOption func(*redisSettings)

type redisSettings struct {
	opts   redis.Options
	host   string
	port   int
	prefix string
}

func WithRedisHost(host string) RedisOption {
	return func(s *redisSettings) { s.host = host }
}

func WithRedisPort(port int) RedisOption {
	return func(s *redisSettings) { s.port = port }
}

func WithRedisPassword(password string) RedisOption {
	return func(s *redisSettings) { s.opts.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(s *redisSettings) { s.opts.DB = db }
}

// WithRedisPool sets the pool size, idle floor and wait timeout. Zero keeps
// the current value.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(s *redisSettings) {
		if poolSize > 0 {
			s.opts.PoolSize = poolSize
		}
		if minIdleConns > 0 {
			s.opts.MinIdleConns = minIdleConns
		}
		if timeout > 0 {
			s.opts.PoolTimeout = timeout
		}
	}
}

// WithRedisPrefix namespaces every key as "<prefix>:<key>".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *redisSettings) { s.prefix = prefix }
}

// RedisCache implements Service on Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and pings it once.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	s := &redisSettings{
		opts: redis.Options{
			PoolSize:     10,
			PoolTimeout:  30 * time.Second,
			MinIdleConns: 2,
		},
		host:   "localhost",
		port:   6379,
		prefix: "ganttgen",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.opts.Addr = net.JoinHostPort(s.host, strconv.Itoa(s.port))

	client := redis.NewClient(&s.opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", s.opts.Addr, err)
	}

	return NewRedisCacheFromClient(client, s.prefix), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}
	return assign(data, dest)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Unlink(ctx, c.keys(keys)...).Err()
}

func (c *RedisCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}
	n, err := c.client.Exists(ctx, c.keys(keys)...).Result()
	return n > 0, err
}

func (c *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return c.client.Expire(ctx, c.key(key), expiration).Result()
}

func (c *RedisCache) key(k string) string {
	return GenerateKey(c.prefix, k)
}

func (c *RedisCache) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = c.key(k)
	}
	return out
}
