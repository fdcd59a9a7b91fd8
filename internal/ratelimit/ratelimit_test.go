package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(Config{Limit: 3, Window: time.Minute})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d", i+1)
	}

	allowed, retry, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.InDelta(t, 20*time.Second, retry, float64(time.Second))

	allowed, _, _ = l.Allow(ctx, "b")
	assert.True(t, allowed, "keys are independent")

	now = now.Add(20 * time.Second)
	allowed, _, _ = l.Allow(ctx, "a")
	assert.True(t, allowed, "one token refilled")
	allowed, _, _ = l.Allow(ctx, "a")
	assert.False(t, allowed)
}

func TestLocalLimiter_Sweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(Config{Limit: 1, Window: time.Minute})
	l.now = func() time.Time { return now }

	_, _, _ = l.Allow(context.Background(), "a")
	l.sweep(now.Add(time.Minute))
	assert.Len(t, l.buckets, 1)

	l.sweep(now.Add(idleTTL + time.Second))
	assert.Empty(t, l.buckets)
}

func TestNew_WithoutRedisIsLocal(t *testing.T) {
	l := New(nil, Config{Limit: 1, Window: time.Minute})
	_, ok := l.(*LocalLimiter)
	assert.True(t, ok)
	_, ok = l.(Runner)
	assert.True(t, ok)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	l := NewRedisLimiter(rdb, Config{Limit: 2, Window: time.Minute})
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, "rate:"+key) })

	for i := 0; i < 2; i++ {
		allowed, _, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, retry, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)
}

func TestFallbackUsesLocalWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	l := New(rdb, Config{Limit: 1, Window: time.Minute})
	allowed, _, err := l.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = l.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, allowed)
}
