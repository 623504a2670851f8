package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shooterstats/core"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 7)
	assert.False(t, ok, "empty cache must miss")

	want := core.UserStats{UserID: 7, BestScore: 300, GamesPlayed: 3, AvgAccuracy: 80}
	c.Put(ctx, 7, want)

	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, want, got)

	c.Invalidate(ctx, 7)
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok, "invalidated entry must miss")
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, 7, core.UserStats{UserID: 7, BestScore: 300})
	ttl := mr.TTL("stats:7")
	assert.Equal(t, 30*time.Second, ttl)

	mr.FastForward(31 * time.Second)
	_, ok := c.Get(ctx, 7)
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestRedisDownReadsAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	_, ok := c.Get(context.Background(), 7)
	assert.False(t, ok)
}
