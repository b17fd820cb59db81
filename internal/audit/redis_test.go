// internal/audit/redis_test.go
package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ratscrew/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalKeepsValidRaw(t *testing.T) {
	id := uuid.New()
	data, err := Marshal(Entry{
		SessionID: id,
		LobbyID:   "L1",
		Player:    "Alice",
		Kind:      KindUnknown,
		Type:      "mystery",
		Raw:       json.RawMessage(`{"type":"mystery"}`),
		Timestamp: 42,
	})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, id.String(), got["session_id"])
	assert.Equal(t, "unknown", got["kind"])
	assert.Equal(t, map[string]interface{}{"type": "mystery"}, got["raw"])
	assert.EqualValues(t, 42, got["timestamp"])
}

func TestMarshalMovesInvalidRawIntoError(t *testing.T) {
	data, err := Marshal(Entry{
		Kind:  KindMalformed,
		Raw:   json.RawMessage(`not json`),
		Error: "decode: malformed_message",
	})
	require.NoError(t, err)

	var got Entry
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got.Raw)
	assert.Contains(t, got.Error, "decode: malformed_message")
	assert.Contains(t, got.Error, `"not json"`)
	assert.NotZero(t, got.Timestamp)
}

func TestNewRedisSinkDisabledWithoutAddr(t *testing.T) {
	sink, closeFn, err := NewRedisSink(context.Background(), config.Audit{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, sink)
	assert.NoError(t, sink.Record(context.Background(), Entry{Kind: KindUnknown}))
	assert.NoError(t, closeFn())
}

// TestRedisSinkRecord needs a local Redis and is skipped without one.
func TestRedisSinkRecord(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	probe := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer probe.Close()
	if err := probe.Ping(ctx).Err(); err != nil {
		t.Skipf("no local redis: %v", err)
	}

	list := "ratscrew_audit_test_" + uuid.NewString()
	sink, closeFn, err := NewRedisSink(ctx, config.Audit{RedisAddr: "localhost:6379", List: list})
	require.NoError(t, err)
	defer closeFn()
	defer probe.Del(context.Background(), list)

	require.NoError(t, sink.Record(ctx, Entry{LobbyID: "L1", Player: "Alice", Kind: KindUnknown, Type: "mystery"}))

	items, err := probe.LRange(ctx, list, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 1)

	var got Entry
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	assert.Equal(t, "mystery", got.Type)
	assert.Equal(t, "Alice", got.Player)
}
