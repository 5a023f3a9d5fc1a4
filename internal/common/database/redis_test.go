package database

import (
	"context"
	"testing"

	"infactory-workers/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	var rdb redis.Cmdable = client.Client
	require.NoError(t, rdb.Set(ctx, "endpoint:mode:user-1", "direct", 0).Err())
	got, err := mr.Get("endpoint:mode:user-1")
	require.NoError(t, err)
	assert.Equal(t, "direct", got)
	assert.Zero(t, mr.TTL("endpoint:mode:user-1"))

	require.NoError(t, client.Close())
	assert.Error(t, rdb.Get(ctx, "endpoint:mode:user-1").Err())
}

func TestRedisClient_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()

	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}
