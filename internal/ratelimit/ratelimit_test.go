package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	r, err := l.Allow(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, r.OK)
	require.Equal(t, int64(1), r.Remaining)

	r, _ = l.Allow(ctx, "k", 2, time.Minute)
	require.True(t, r.OK)
	require.Equal(t, int64(0), r.Remaining)

	r, _ = l.Allow(ctx, "k", 2, time.Minute)
	require.False(t, r.OK)

	// Счётчик не растёт сверх лимита.
	require.Equal(t, int64(2), l.entries["k"].count)
}

func TestMemoryLimiter_PeekDoesNotConsume(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r, err := l.Peek(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, r.OK)
		require.Equal(t, int64(3), r.Remaining)
	}

	r, _ := l.Allow(ctx, "k", 3, time.Minute)
	require.True(t, r.OK)
	require.Equal(t, int64(2), r.Remaining)

	p, _ := l.Peek(ctx, "k", 3, time.Minute)
	require.True(t, p.OK)
	require.Equal(t, int64(2), p.Remaining)
}

func TestMemoryLimiter_WindowExpiry(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, _ = l.Allow(ctx, "k", 3, time.Minute)
	}
	r, _ := l.Allow(ctx, "k", 3, time.Minute)
	require.False(t, r.OK)

	// После окончания окна — свежее окно с count=1.
	l.now = func() time.Time { return now.Add(61 * time.Second) }
	r, _ = l.Allow(ctx, "k", 3, time.Minute)
	require.True(t, r.OK)
	require.Equal(t, int64(2), r.Remaining)
}

func TestRedisLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRedisLimiter(mr.Addr())
	ctx := context.Background()

	r, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, r.OK)
	require.Equal(t, int64(1), r.Remaining)

	r, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, r.OK)

	r, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, r.OK)
	require.Equal(t, int64(0), r.Remaining)
}

func TestRedisLimiter_Peek(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRedisLimiter(mr.Addr())
	ctx := context.Background()

	p, err := rl.Peek(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, p.OK)
	require.Equal(t, int64(2), p.Remaining)

	_, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	_, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)

	p, _ = rl.Peek(ctx, "rl:test", 2, time.Minute)
	require.False(t, p.OK)
}
