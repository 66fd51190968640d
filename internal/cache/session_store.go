package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks revoked session token ids. JWTs are otherwise
// stateless, so signout works by denylisting the token id until the token
// would have expired anyway.
type SessionStore struct {
	redis *RedisClient
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(redis *RedisClient) *SessionStore {
	return &SessionStore{redis: redis}
}

func (s *SessionStore) key(tokenID string) string {
	return fmt.Sprintf("session:revoked:%s", tokenID)
}

// Revoke marks a token id as signed out for the remaining token lifetime.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, s.key(tokenID), "1", ttl)
}

// IsRevoked reports whether a token id has been signed out.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.redis.Get(ctx, s.key(tokenID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
