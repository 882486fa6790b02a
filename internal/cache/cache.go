package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a JSON read-through cache over redis. A nil Cache is valid and
// always misses, so handlers can take one unconditionally.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func New(client *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, log: log}
}

// Get unmarshals the cached value for key into dest. The second return is
// false on a miss or any redis error.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("cache get", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warnw("cache decode", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key for the configured ttl. Failures are logged
// and ignored: the cache is an accelerator, not a source of truth.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warnw("cache encode", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warnw("cache set", "key", key, "error", err)
	}
}

// Invalidate drops every key matching pattern. Used after writes so stale
// pages do not outlive the data they were built from.
func (c *Cache) Invalidate(ctx context.Context, pattern string) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warnw("cache scan", "pattern", pattern, "error", err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.log.Warnw("cache invalidate", "pattern", pattern, "error", err)
		}
	}
}
