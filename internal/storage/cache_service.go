package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService serializes values into Redis under typed keys with a TTL.
// The cached stores layer league, team and player lookups on top of it, and
// the usage endpoint caches counters for past dates.
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyLeague is for league records
	CacheKeyLeague CacheKeyType = "league"
	// CacheKeyTeam is for team records
	CacheKeyTeam CacheKeyType = "team"
	// CacheKeyPlayer is for player records
	CacheKeyPlayer CacheKeyType = "player"
	// CacheKeyUsage is for usage counter reads
	CacheKeyUsage CacheKeyType = "usage"
)

// GenerateCacheKey generates a cache key for a given type and parameters.
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	normalizedParams := make([]string, len(params))
	for i, param := range params {
		normalizedParams[i] = strings.ToLower(param)
	}

	parts := append([]string{string(keyType)}, normalizedParams...)
	return strings.Join(parts, ":")
}

// EntityKey generates a cache key for an entity natural-key lookup.
// Format: <type>:<provider>:<externalID>
func (c *CacheService) EntityKey(keyType CacheKeyType, provider string, externalID int) string {
	return c.GenerateCacheKey(keyType, provider, strconv.Itoa(externalID))
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redis.Set(ctx, key, data, ttl)
}

// Get retrieves a value from cache and deserializes it. Returns false on a
// cache miss; a miss is not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// Invalidate removes one or more keys from the cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// InvalidateEntity removes a single entity's cache entry
func (c *CacheService) InvalidateEntity(ctx context.Context, keyType CacheKeyType, provider string, externalID int) error {
	return c.Invalidate(ctx, c.EntityKey(keyType, provider, externalID))
}
