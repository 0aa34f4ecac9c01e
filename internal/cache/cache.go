// Package cache wraps Redis for short-lived read caching. The dashboard
// aggregates are the main consumer. A nil *Cache is a valid no-op cache.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Cache is a thin JSON cache over Redis.
type Cache struct {
	rdb *redis.Client
	log zerolog.Logger
}

// Connect opens a Redis client for url. An empty url disables caching and
// returns a nil cache.
func Connect(ctx context.Context, url string, log zerolog.Logger) (*Cache, error) {
	if url == "" {
		log.Debug().Msg("caching disabled")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &Cache{rdb: rdb, log: log}, nil
}

// Close releases the client.
func (c *Cache) Close() {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Close()
}

// Get unmarshals the cached value for key into dest. Returns false on miss
// or any cache failure; the caller falls through to the source of truth.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

// Set stores v under key for ttl. Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Delete drops keys. Failures are logged and swallowed.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("cache delete failed")
	}
}
