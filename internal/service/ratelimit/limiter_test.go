package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllow(t *testing.T) {
	l := New()
	require.True(t, l.Allow("coingecko", 2, 0.001))
	require.True(t, l.Allow("coingecko", 2, 0.001))
	require.False(t, l.Allow("coingecko", 2, 0.001))
	require.True(t, l.Allow("other", 1, 0.001))
}

func TestLimiterDisabled(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("coingecko", 0, 0))
	}
	require.NoError(t, l.Wait(context.Background(), "coingecko", 0, 0))
}

func TestLimiterWaitRefills(t *testing.T) {
	l := New()
	require.NoError(t, l.Wait(context.Background(), "k", 1, 100))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "k", 1, 100))
	require.Less(t, time.Since(start), time.Second)
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	l := New()
	require.True(t, l.Allow("k", 1, 0.0001))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Wait(ctx, "k", 1, 0.0001), context.DeadlineExceeded)
}
