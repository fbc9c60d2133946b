package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "watchlist:alice", []string{"bitcoin", "ethereum"}, 0))

	var ids []string
	require.NoError(t, mc.Get(ctx, "watchlist:alice", &ids))
	require.Equal(t, []string{"bitcoin", "ethereum"}, ids)

	require.NoError(t, mc.Set(ctx, "plain", "value", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "plain", &s))
	require.Equal(t, "value", s)

	var missing []string
	require.ErrorIs(t, mc.Get(ctx, "watchlist:bob", &missing), ErrCacheMiss)
}

func TestMemoryCacheStoresCopies(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ids := []string{"bitcoin"}
	require.NoError(t, mc.Set(ctx, "k", ids, 0))
	ids[0] = "mutated"

	var got []string
	require.NoError(t, mc.Get(ctx, "k", &got))
	require.Equal(t, []string{"bitcoin"}, got)
}

func TestMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "short", 1, 10*time.Millisecond))
	ok, err := mc.Exists(ctx, "short")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	var v int
	require.ErrorIs(t, mc.Get(ctx, "short", &v), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	time.Sleep(time.Millisecond)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	require.Equal(t, 2, mc.Len())
	require.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	key := LockKey("watchlist:alice")
	ok, err := mc.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mc.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, key))
	ok, err = mc.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryCacheLockExpires(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, _ := mc.TryLock(ctx, "lock:k", 10*time.Millisecond)
	require.True(t, ok)
	time.Sleep(20 * time.Millisecond)
	ok, _ = mc.TryLock(ctx, "lock:k", 10*time.Millisecond)
	require.True(t, ok)
}

func TestLayeredCache(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Hour))
	defer lc.Close()

	require.NoError(t, lc.Set(ctx, "k", []string{"bitcoin"}, 0))

	var fromRemote []string
	require.NoError(t, remote.Get(ctx, "k", &fromRemote))
	require.Equal(t, []string{"bitcoin"}, fromRemote)

	// L1 serves until its TTL even if L2 changed underneath
	require.NoError(t, remote.Set(ctx, "k", []string{"ethereum"}, 0))
	var got []string
	require.NoError(t, lc.Get(ctx, "k", &got))
	require.Equal(t, []string{"bitcoin"}, got)

	require.NoError(t, lc.Delete(ctx, "k"))
	require.ErrorIs(t, lc.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestLayeredCacheReadsThroughOnMiss(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "k", []string{"solana"}, 0))
	var got []string
	require.NoError(t, lc.Get(ctx, "k", &got))
	require.Equal(t, []string{"solana"}, got)

	ok, err := lc.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	exists, _ := remote.Exists(ctx, "lock:k")
	require.True(t, exists)
}

func TestLayeredCacheRefillKeepsRawStrings(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Hour))
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "watchlist:alice", `["bitcoin"]`, 0))

	var first, second string
	require.NoError(t, lc.Get(ctx, "watchlist:alice", &first))
	require.NoError(t, lc.Get(ctx, "watchlist:alice", &second))
	require.Equal(t, `["bitcoin"]`, first)
	require.Equal(t, first, second)

	var ids []string
	require.NoError(t, lc.Get(ctx, "watchlist:alice", &ids))
	require.Equal(t, []string{"bitcoin"}, ids)

	require.NoError(t, remote.Set(ctx, "raw", []byte("payload"), 0))
	var b1, b2 []byte
	require.NoError(t, lc.Get(ctx, "raw", &b1))
	require.NoError(t, lc.Get(ctx, "raw", &b2))
	require.Equal(t, []byte("payload"), b2)
}

// Runs against a real Redis when REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rc := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: addr}), "coinverge-test")
	defer rc.Close()
	require.NoError(t, rc.Client().Ping(ctx).Err())

	require.NoError(t, rc.Set(ctx, "k", []string{"bitcoin"}, time.Minute))
	var got []string
	require.NoError(t, rc.Get(ctx, "k", &got))
	require.Equal(t, []string{"bitcoin"}, got)

	require.NoError(t, rc.Delete(ctx, "k"))
	require.ErrorIs(t, rc.Get(ctx, "k", &got), ErrCacheMiss)

	ok, err := rc.TryLock(ctx, "lock:k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, rc.Unlock(ctx, "lock:k"))
}
