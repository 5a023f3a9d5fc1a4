package selectendpoint

import (
	"context"
	"errors"

	"infactory-workers/internal/endpoint"

	"github.com/redis/go-redis/v9"
)

// PreferenceStore owns each user's current endpoint mode.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (endpoint.Mode, error)
	Set(ctx context.Context, userID string, mode endpoint.Mode) error
}

type RedisPreferenceStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisPreferenceStore(rdb redis.Cmdable, prefix string) *RedisPreferenceStore {
	return &RedisPreferenceStore{rdb: rdb, prefix: prefix}
}

func (s *RedisPreferenceStore) key(userID string) string {
	return s.prefix + userID
}

// Get returns endpoint.Unified for users without a stored mode, and for
// stored values that are no longer a valid mode.
func (s *RedisPreferenceStore) Get(ctx context.Context, userID string) (endpoint.Mode, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return endpoint.Unified, nil
	}
	if err != nil {
		return "", err
	}

	mode := endpoint.Mode(val)
	if !mode.Valid() {
		return endpoint.Unified, nil
	}
	return mode, nil
}

// Set stores mode without expiry.
func (s *RedisPreferenceStore) Set(ctx context.Context, userID string, mode endpoint.Mode) error {
	return s.rdb.Set(ctx, s.key(userID), string(mode), 0).Err()
}
