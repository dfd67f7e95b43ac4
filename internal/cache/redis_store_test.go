package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	entry := &Entry{
		Key:        "k1",
		Payload:    json.RawMessage(`{"value":7}`),
		ComputedAt: time.Now().Truncate(time.Millisecond),
		TTL:        time.Minute,
	}
	require.NoError(t, store.Set(ctx, entry))

	got, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry.Key, got.Key)
	assert.JSONEq(t, `{"value":7}`, string(got.Payload))
	assert.Equal(t, entry.TTL, got.TTL)
	assert.True(t, got.Fresh(time.Now()))
}

func TestRedisStoreMissingKey(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, found, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	entry := &Entry{Key: "k1", Payload: json.RawMessage(`1`), ComputedAt: time.Now(), TTL: time.Minute}
	require.NoError(t, store.Set(ctx, entry))
	require.NoError(t, store.Delete(ctx, "k1"))

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreRetainsExpiredForStaleFallback(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	entry := &Entry{Key: "k1", Payload: json.RawMessage(`1`), ComputedAt: time.Now(), TTL: time.Minute}
	require.NoError(t, store.Set(ctx, entry))

	// One logical TTL past expiry the envelope is still present.
	mr.FastForward(2 * time.Minute)
	got, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.Fresh(time.Now().Add(2*time.Minute)))

	// Past the retention multiple Redis drops the key.
	mr.FastForward(3 * time.Minute)
	_, found, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	store, mr := newTestRedisStore(t)

	require.NoError(t, mr.Set("result_cache:k1", "not json"))
	_, _, err := store.Get(context.Background(), "k1")
	require.Error(t, err)
}
