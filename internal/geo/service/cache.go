package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadmarket_backend/internal/geo/repository"
	"leadmarket_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a read-through cache for zone resolution. Postal-code sets
// are read-heavy and written rarely, so a short TTL plus explicit
// invalidation on zone edits keeps it honest.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache creates a resolution cache on the given Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func cacheKey(countryISO, postalCode string) string {
	return fmt.Sprintf("geo:resolve:%s:%s", countryISO, postalCode)
}

// Get returns a cached match. Any Redis or decode error counts as a miss.
func (c *RedisCache) Get(ctx context.Context, countryISO, postalCode string) (repository.ZoneMatch, bool) {
	raw, err := c.client.Get(ctx, cacheKey(countryISO, postalCode)).Bytes()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.Debug("geo cache read failed", "error", err.Error())
		}
		return repository.ZoneMatch{}, false
	}

	var match repository.ZoneMatch
	if err := json.Unmarshal(raw, &match); err != nil {
		return repository.ZoneMatch{}, false
	}
	return match, true
}

// Set stores a match; failures are logged and ignored.
func (c *RedisCache) Set(ctx context.Context, countryISO, postalCode string, match repository.ZoneMatch) {
	raw, err := json.Marshal(match)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(countryISO, postalCode), raw, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Debug("geo cache write failed", "error", err.Error())
	}
}

// Invalidate drops cache entries for the given codes in one country scope.
func (c *RedisCache) Invalidate(ctx context.Context, countryISO string, postalCodes []string) {
	if len(postalCodes) == 0 {
		return
	}
	keys := make([]string, 0, len(postalCodes))
	for _, code := range postalCodes {
		keys = append(keys, cacheKey(countryISO, code))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && c.log != nil {
		c.log.Debug("geo cache invalidate failed", "error", err.Error())
	}
}

// Compile-time check that RedisCache implements MatchCache.
var _ MatchCache = (*RedisCache)(nil)

// NoopCache disables caching; every resolve goes to the store.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string) (repository.ZoneMatch, bool) {
	return repository.ZoneMatch{}, false
}

func (NoopCache) Set(context.Context, string, string, repository.ZoneMatch) {}

func (NoopCache) Invalidate(context.Context, string, []string) {}

// Compile-time check that NoopCache implements MatchCache.
var _ MatchCache = NoopCache{}
