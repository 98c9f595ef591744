package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, 2, time.Minute)

	assert.True(t, l.Allow(ctx, "10.0.0.1").Allowed)
	d := l.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d = l.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Count)

	assert.True(t, l.Allow(ctx, "10.0.0.2").Allowed)
	assert.True(t, mr.Exists("service-center:rl:10.0.0.1"))

	mr.FastForward(61 * time.Second)
	assert.True(t, l.Allow(ctx, "10.0.0.1").Allowed)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)
	a := NewRedisLimiter(client, 1, time.Minute)
	b := NewRedisLimiter(client, 1, time.Minute)

	assert.True(t, a.Allow(ctx, "k").Allowed)
	assert.False(t, b.Allow(ctx, "k").Allowed)
}

func TestRedisLimiter_FallbackOnError(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, 1, time.Minute)
	l.timeout = 200 * time.Millisecond
	mr.Close()

	assert.True(t, l.Allow(ctx, "k").Allowed)
	assert.False(t, l.Allow(ctx, "k").Allowed)
}

func TestRedisLimiter_NilClient(t *testing.T) {
	l := NewRedisLimiter(nil, 0, 0)
	assert.Equal(t, 1, l.limit)
	assert.Equal(t, time.Minute, l.window)
	assert.True(t, l.Allow(context.Background(), "k").Allowed)
}
