// Package cache holds short-lived badge counters. Redis is optional; when it is
// not configured or unreachable every lookup falls through to the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/club-management/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPendingCount = "caisse:pending-count"
	KeyUnreadPrefix = "notifications:unread:"
	KeyRecentPrefix = "activities:recent:"
)

type Cache interface {
	// Get reports whether key was present and decoded into dst.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Connect returns nil when addr is empty or the server does not answer a ping.
func Connect(ctx context.Context, addr, password string, db int, logger *slog.Logger) *redis.Client {
	if addr == "" {
		logger.Info("redis address not set, badge caching disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, badge caching disabled", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("connected to redis", "addr", addr)
	return client
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}

// Noop never holds anything.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error)         { return false, nil }
func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                       { return nil }

// Remember returns the cached value for key or calls load and stores its
// result. Cache errors are logged and never surface to the caller.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, logger *slog.Logger, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	found, err := c.Get(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.Warn("cache read failed", "key", key, "error", err)
	case found:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	}
	return value, nil
}

// Forget drops keys, logging failures.
func Forget(ctx context.Context, c Cache, logger *slog.Logger, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}
