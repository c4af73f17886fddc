package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, ttl), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return empty on a miss", func(t *testing.T) {
		c, _ := newTestCache(t, time.Hour)
		v, err := c.GetLocator(ctx, "LeBron James")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Should round trip a locator under a normalized key", func(t *testing.T) {
		c, mr := newTestCache(t, time.Hour)
		require.NoError(t, c.SetLocator(ctx, "LeBron James", "/players/j/jamesle01.html"))

		v, err := c.GetLocator(ctx, "  lebron   JAMES ")
		require.NoError(t, err)
		assert.Equal(t, "/players/j/jamesle01.html", v)
		assert.True(t, mr.Exists("vesta:locator:lebron james"))
	})

	t.Run("Should expire entries after the ttl", func(t *testing.T) {
		c, mr := newTestCache(t, time.Hour)
		require.NoError(t, c.SetLocator(ctx, "Tim Duncan", "/players/d/duncati01.html"))
		assert.Equal(t, time.Hour, mr.TTL("vesta:locator:tim duncan"))

		mr.FastForward(2 * time.Hour)
		v, err := c.GetLocator(ctx, "Tim Duncan")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Should forget entries", func(t *testing.T) {
		c, _ := newTestCache(t, 0)
		require.NoError(t, c.SetLocator(ctx, "Tim Duncan", "/players/d/duncati01.html"))
		require.NoError(t, c.Forget(ctx, "Tim Duncan"))
		v, err := c.GetLocator(ctx, "Tim Duncan")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Should report errors once redis is gone", func(t *testing.T) {
		c, mr := newTestCache(t, time.Hour)
		mr.Close()
		_, err := c.GetLocator(ctx, "Tim Duncan")
		assert.Error(t, err)
		assert.Error(t, c.HealthCheck(ctx))
	})

	t.Run("Should connect and ping from a url", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := Connect(ctx, "redis://"+mr.Addr())
		require.NoError(t, err)
		defer client.Close()

		_, err = Connect(ctx, "not a url")
		assert.Error(t, err)
	})
}
