package apikeys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a resolved key stays cached.
const DefaultCacheTTL = 5 * time.Minute

// Cache holds resolved keys by hash in front of the repository.
type Cache interface {
	Get(ctx context.Context, hash string) (*APIKey, error)
	Set(ctx context.Context, key *APIKey, now time.Time) error
	Delete(ctx context.Context, hash string) error
}

// RedisCache stores keys as JSON under apikey:<hash>.
type RedisCache struct {
	redis redis.Cmdable
	ttl   time.Duration
}

// NewRedisCache creates a key cache. ttl <= 0 uses DefaultCacheTTL.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) key(hash string) string {
	return "apikey:" + hash
}

// cachedKey carries the fields APIKey keeps out of API responses.
type cachedKey struct {
	*APIKey
	KeyHash string `json:"keyHash"`
}

// Get returns nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, hash string) (*APIKey, error) {
	data, err := c.redis.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apikeys: cache get: %w", err)
	}
	entry := cachedKey{APIKey: &APIKey{}}
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("apikeys: cache decode: %w", err)
	}
	entry.APIKey.KeyHash = entry.KeyHash
	return entry.APIKey, nil
}

// Set caches key until the earlier of the cache TTL and its expiry. Keys
// already expired at now are not cached.
func (c *RedisCache) Set(ctx context.Context, key *APIKey, now time.Time) error {
	ttl := c.ttl
	if untilExpiry := key.ExpiresAt.Sub(now); untilExpiry < ttl {
		ttl = untilExpiry
	}
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedKey{APIKey: key, KeyHash: key.KeyHash})
	if err != nil {
		return fmt.Errorf("apikeys: cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(key.KeyHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("apikeys: cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, hash string) error {
	if err := c.redis.Del(ctx, c.key(hash)).Err(); err != nil {
		return fmt.Errorf("apikeys: cache delete: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
