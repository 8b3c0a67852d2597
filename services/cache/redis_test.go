package cachesvc

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/testutil"
)

func TestRedisCache_breakerOpensOnFailures(t *testing.T) {
	ctx := context.Background()
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := newRedisCache(rdb, testutil.Config(), testutil.Logger(), nil)

	var dest string
	var failures int
	for i := 0; i < 10; i++ {
		if _, err := cache.Get(ctx, "key", &dest); err != nil {
			failures++
		}
	}
	assert.GreaterOrEqual(t, failures, 5)
	assert.Less(t, failures, 10, "breaker should open and fail fast")
	assert.True(t, cache.cb.IsOpen())

	found, err := cache.Get(ctx, "key", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, "key", "val", 0))
	assert.NoError(t, cache.Delete(ctx, "key"))
}
