// Package cache is a small JSON read-through cache on Redis. A nil *Cache is valid and never hits.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"grocerly/internal/config"
	applog "grocerly/internal/log"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns nil when no address is configured.
func New(cfg config.Redis) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.CacheTTL)
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// GetJSON decodes key into dst and reports a hit. Redis failures count as misses.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			applog.Error(nil, "cache.get.fail", err, map[string]any{"key": key})
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		applog.Error(nil, "cache.decode.fail", err, map[string]any{"key": key})
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		applog.Error(nil, "cache.set.fail", err, map[string]any{"key": key})
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		applog.Error(nil, "cache.del.fail", err, map[string]any{"keys": keys})
	}
}

// Ping checks connectivity. A nil cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func CategoryKey(category string) string { return "catalog:category:" + category }

func ProductKey(id int64) string { return "catalog:product:" + strconv.FormatInt(id, 10) }
