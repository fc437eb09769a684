package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachable points at a port nothing listens on so every command fails fast.
func unreachable(t *testing.T) *RedisCache {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return NewFromClient(client)
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache("http://not-redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing redis url")
}

func TestCommandsSurfaceConnectionErrors(t *testing.T) {
	rc := unreachable(t)
	ctx := context.Background()

	var dst map[string]int
	found, err := rc.GetJSON(ctx, "leaders", &dst)
	assert.Error(t, err)
	assert.False(t, found)

	assert.Error(t, rc.SetJSON(ctx, "leaders", map[string]int{"a": 1}, time.Minute))

	_, err = rc.DeletePrefix(ctx, "dashboard:")
	assert.Error(t, err)

	_, ok, err := rc.TryLock(ctx, "lock:ingest", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, rc.HealthCheck(ctx))
}

func TestSetJSONRejectsUnencodable(t *testing.T) {
	rc := unreachable(t)
	err := rc.SetJSON(context.Background(), "bad", make(chan int), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache encode")
}
