package settings

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to SCRIPTD_TEST_REDIS or skips the test.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("SCRIPTD_TEST_REDIS")
	if addr == "" {
		t.Skip("SCRIPTD_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	backend := NewRedisBackend(rdb, "test.scriptd.RedisRoundTrip")
	t.Cleanup(func() { _ = backend.Remove(ctx) })

	store := Open(ctx, backend, nil)
	store.Set("a", "1")
	store.Set("b", "2")
	require.NoError(t, store.Flush(ctx))

	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, Open(ctx, backend, nil).Snapshot())

	store.Delete("a")
	require.NoError(t, store.Flush(ctx))
	assert.Equal(t, map[string]string{"b": "2"}, Open(ctx, backend, nil).Snapshot())

	store.Clear()
	require.NoError(t, store.Flush(ctx))
	n, err := rdb.Exists(ctx, backend.Key()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
