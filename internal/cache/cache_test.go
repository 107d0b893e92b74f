package cache

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCacheSuite checks behavior both backends must share.
func runCacheSuite(t *testing.T, c Cache, prefix string) {
	ctx := context.Background()

	t.Run("get_missing_is_empty", func(t *testing.T) {
		v, err := c.Get(ctx, prefix+"missing")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("set_get_delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, prefix+"k", 42, 0))
		v, err := c.Get(ctx, prefix+"k")
		require.NoError(t, err)
		assert.Equal(t, "42", v)
		require.NoError(t, c.Delete(ctx, prefix+"k"))
		v, err = c.Get(ctx, prefix+"k")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("increment_and_drain", func(t *testing.T) {
		keys := Keys{Prefix: prefix}
		for i := 0; i < 3; i++ {
			_, err := c.Increment(ctx, keys.PostViews(1))
			require.NoError(t, err)
		}
		n, err := c.Increment(ctx, keys.PostViews(2))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		found, err := c.Scan(ctx, keys.PostViewsPattern())
		require.NoError(t, err)
		sort.Strings(found)
		assert.Equal(t, []string{keys.PostViews(1), keys.PostViews(2)}, found)

		got, err := c.GetAndDeleteMany(ctx, found)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{keys.PostViews(1): 3, keys.PostViews(2): 1}, got)

		left, err := c.Scan(ctx, keys.PostViewsPattern())
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("drain_skips_missing", func(t *testing.T) {
		got, err := c.GetAndDeleteMany(ctx, []string{prefix + "nope"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryCache(t *testing.T) {
	m := NewMemory(0)
	t.Cleanup(m.Close)
	runCacheSuite(t, m, "test:")
	assert.Equal(t, KindMemory, KindOf(m))
}

func TestMemoryCache_Expiry(t *testing.T) {
	m := NewMemory(0)
	t.Cleanup(m.Close)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, _ := m.Get(ctx, "k")
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	v, _ = m.Get(ctx, "k")
	assert.Empty(t, v)
}

func TestMemoryCache_ConcurrentIncrement(t *testing.T) {
	m := NewMemory(0)
	t.Cleanup(m.Close)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Increment(ctx, "n")
		}()
	}
	wg.Wait()
	v, _ := m.Get(ctx, "n")
	assert.Equal(t, "50", v)
}

func TestMemoryCache_IncrementNonInteger(t *testing.T) {
	m := NewMemory(0)
	t.Cleanup(m.Close)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "abc", 0))
	_, err := m.Increment(ctx, "k")
	assert.Error(t, err)
}

func TestNewWithFallback_NilClient(t *testing.T) {
	c := NewWithFallback(context.Background(), nil, zerolog.Nop())
	assert.Equal(t, KindMemory, KindOf(c))
}

func TestNewWithFallback_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	c := NewWithFallback(context.Background(), client, zerolog.Nop())
	assert.Equal(t, KindMemory, KindOf(c))
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "af:"}
	id, ok := k.PostIDFromViews(k.PostViews(77))
	assert.True(t, ok)
	assert.EqualValues(t, 77, id)
	_, ok = k.PostIDFromViews("af:post:views:abc")
	assert.False(t, ok)
	_, ok = k.PostIDFromViews("other:post:views:1")
	assert.False(t, ok)
	author := uuid.MustParse("3f1c7a52-1111-4c1e-9a50-0c7f3d0b2a10")
	assert.Equal(t, "af:author:followers:3f1c7a52-1111-4c1e-9a50-0c7f3d0b2a10", k.Followers(author))
}

// TestRedisCache runs against a real server when REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	c := NewWithFallback(context.Background(), client, zerolog.Nop())
	require.Equal(t, KindRedis, KindOf(c))
	prefix := "test:" + uuid.NewString() + ":"
	runCacheSuite(t, c, prefix)
}
