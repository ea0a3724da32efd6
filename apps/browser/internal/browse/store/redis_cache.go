package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Compile-time check: *RedisCache implements browse.Cache.
var _ browse.Cache = (*RedisCache)(nil)

// RedisCache implements browse.Cache using go-redis directly. Expiry is
// delegated to Redis key TTLs, so entries can be shared between replicas.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates a new RedisCache.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Get returns the value stored under key, or ok=false when it is absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with the given ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}
