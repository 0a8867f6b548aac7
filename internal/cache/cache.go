// Package cache is a thin JSON-over-Redis layer for read-heavy
// aggregates. A nil *Cache is a valid no-op, so callers never branch on
// whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrMiss = errors.New("cache: miss")

type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr. An empty addr disables caching.
func New(ctx context.Context, addr string) *Cache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, caching disabled")
		return nil
	}
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, key string, dst any) error {
	if c == nil {
		return ErrMiss
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("cache delete failed")
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
