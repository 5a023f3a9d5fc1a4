package main

import (
	"context"
	"testing"
	"time"

	"infactory-workers/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConnectRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("connects on first attempt", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := connectRedis(ctx, config.RedisConfig{Address: mr.Addr()}, 3, time.Millisecond, zaptest.NewLogger(t))

		require.NoError(t, err)
		require.NotNil(t, client)
		defer client.Close()
		assert.NoError(t, client.Ping(ctx))
	})

	t.Run("gives up when redis is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		client, err := connectRedis(ctx, config.RedisConfig{Address: addr}, 2, time.Millisecond, zaptest.NewLogger(t))

		require.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "Redis connection failed after 2 attempts")
	})

	t.Run("empty address", func(t *testing.T) {
		client, err := connectRedis(ctx, config.RedisConfig{}, 1, time.Millisecond, zaptest.NewLogger(t))

		require.Error(t, err)
		assert.Nil(t, client)
	})
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(func() error {
		attempts++
		if attempts < 3 {
			return assert.AnError
		}
		return nil
	}, 5, time.Millisecond, zaptest.NewLogger(t), "op")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
