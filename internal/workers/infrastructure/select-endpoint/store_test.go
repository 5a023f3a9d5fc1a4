package selectendpoint

import (
	"context"
	"encoding/json"
	"testing"

	"infactory-workers/internal/endpoint"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toDocument(t *testing.T, v interface{}) interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var doc interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRedisPreferenceStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key defaults to unified", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("endpoint:mode:u-1").RedisNil()

		mode, err := NewRedisPreferenceStore(db, "endpoint:mode:").Get(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, endpoint.Unified, mode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored mode is returned", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("endpoint:mode:u-1").SetVal("conversation")

		mode, err := NewRedisPreferenceStore(db, "endpoint:mode:").Get(ctx, "u-1")

		require.NoError(t, err)
		assert.Equal(t, endpoint.Conversation, mode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set has no expiry", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectSet("endpoint:mode:u-1", "direct", 0).SetVal("OK")

		err := NewRedisPreferenceStore(db, "endpoint:mode:").Set(ctx, "u-1", endpoint.Direct)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
