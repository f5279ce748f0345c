package geocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the serialized cache under a single Redis key with a
// session-length TTL, so every dashboard instance behind the same Redis
// shares one geocode cache.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client. The TTL is refreshed on
// every save; a zero TTL means the entry never expires.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return blob, nil
}

func (s *RedisStore) Save(ctx context.Context, blob []byte) error {
	if err := s.client.Set(ctx, s.key, blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
