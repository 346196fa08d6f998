package adstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// RedisClient interface for the Redis commands the cache uses (for testing)
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// CachedStore is a read-through Redis cache in front of another store.
// Entries are keyed by a generation counter; Invalidate bumps the generation
// so every older entry is orphaned and expires on its own.
type CachedStore struct {
	next   Store
	redis  RedisClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewCachedStore(next Store, client RedisClient, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{
		next:   next,
		redis:  client,
		ttl:    ttl,
		prefix: "classifieds:ads:",
		logger: logger.With("component", "ads_cache"),
	}
}

// List serves q from the cache when possible. Redis errors are logged and
// the underlying store is used instead.
func (c *CachedStore) List(ctx context.Context, q Query) ([]models.Ad, error) {
	if q.Fresh {
		if err := c.Invalidate(ctx); err != nil {
			c.logger.Warn("cache invalidation failed", "error", err)
		}
	}

	key, err := c.key(ctx, q)
	if err != nil {
		c.logger.Warn("cache unavailable", "error", err)
		return c.next.List(ctx, q)
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ads []models.Ad
		if err := json.Unmarshal(raw, &ads); err == nil {
			c.logger.Debug("cache hit", "key", key, "count", len(ads))
			return ads, nil
		}
		c.logger.Warn("discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	ads, err := c.next.List(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ads); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return ads, nil
}

// Invalidate drops every cached listing, e.g. after a scrape run appended ads.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	if err := c.redis.Incr(ctx, c.prefix+"gen").Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

func (c *CachedStore) key(ctx context.Context, q Query) (string, error) {
	gen, err := c.redis.Get(ctx, c.prefix+"gen").Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return c.prefix + "list:" + gen + ":" + restParams(q).Encode(), nil
}
