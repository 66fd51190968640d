package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// listingTTL keeps public directory pages fresh without hammering Postgres.
const listingTTL = 60 * time.Second

// DirectoryCache caches rendered public directory listings. Keys are scoped
// by listing kind and the full query (category, substring filter, featured),
// and invalidated wholesale whenever moderation or a write changes what the
// public can see.
type DirectoryCache struct {
	redis *RedisClient
}

// NewDirectoryCache creates a new DirectoryCache.
func NewDirectoryCache(redis *RedisClient) *DirectoryCache {
	return &DirectoryCache{redis: redis}
}

func (c *DirectoryCache) key(kind, query string) string {
	return fmt.Sprintf("directory:%s:%s", kind, query)
}

// Get loads a cached listing into dest. The second return is false on a miss.
func (c *DirectoryCache) Get(ctx context.Context, kind, query string, dest any) (bool, error) {
	raw, err := c.redis.Get(ctx, c.key(kind, query))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s listing: %w", kind, err)
	}
	return true, nil
}

// Set stores a listing under the kind/query key with the standard TTL.
func (c *DirectoryCache) Set(ctx context.Context, kind, query string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s listing: %w", kind, err)
	}
	return c.redis.Set(ctx, c.key(kind, query), string(raw), listingTTL)
}

// Invalidate drops every cached listing of the given kind.
func (c *DirectoryCache) Invalidate(ctx context.Context, kind string) error {
	return c.redis.DeleteByPattern(ctx, c.key(kind, "*"))
}
