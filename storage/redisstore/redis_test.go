package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/predict-client/predict"
)

var _ predict.Storage = (*Store)(nil)

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "predict:advertisingId", New(nil, "").buildKey(predict.AdvertisingIDKey))
	assert.Equal(t, "app:advertisingId", New(nil, "app").buildKey(predict.AdvertisingIDKey))
}

// Requires a running Redis; skipped otherwise.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Skipping Redis integration test: redis not available")
	}
	s := New(client, "predict-test-"+t.Name())
	t.Cleanup(func() {
		s.Clear(context.Background())
		s.Close()
	})
	return s
}

func TestStore_Integration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, predict.AdvertisingIDKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, predict.AdvertisingIDKey, "cdv-1"))
	v, ok, err := s.Get(ctx, predict.AdvertisingIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cdv-1", v)

	require.NoError(t, s.Put(ctx, predict.AdvertisingIDKey, "cdv-2"))
	v, _, err = s.Get(ctx, predict.AdvertisingIDKey)
	require.NoError(t, err)
	assert.Equal(t, "cdv-2", v)

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx, predict.AdvertisingIDKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
