package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisUnreadCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := NewRedisUnreadCache("redis://"+s.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func TestRedisUnreadCache_SetGet(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, 7, 3))
	n, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestRedisUnreadCache_Expires(t *testing.T) {
	c, s := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 5))
	s.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnreadCache_Invalidate(t *testing.T) {
	c, s := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 1))
	require.NoError(t, c.Set(ctx, 2, 2))
	require.NoError(t, c.Set(ctx, 3, 3))

	require.NoError(t, c.Invalidate(ctx, 1, 2, 42))
	require.NoError(t, c.Invalidate(ctx))

	assert.False(t, s.Exists("notifications:unread:1"))
	assert.False(t, s.Exists("notifications:unread:2"))
	assert.True(t, s.Exists("notifications:unread:3"))
}

func TestNewRedisUnreadCache_BadURL(t *testing.T) {
	_, err := NewRedisUnreadCache("not a url", time.Minute)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c UnreadCache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 1, 9))
	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, 1))
}
