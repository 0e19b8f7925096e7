package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *RedisCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis unavailable: %v", err)
	}

	c := NewRedisCacheWithClient(client, ttl)
	require.NoError(t, c.InvalidateTiers(context.Background()))
	t.Cleanup(func() {
		_ = c.InvalidateTiers(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, time.Minute)

	miss, err := c.GetTiers(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)

	entries := []domain.CatalogEntry{{TierID: "t1", Name: domain.TierVIP, Price: 100, QuantityAvailable: 7}}
	require.NoError(t, c.SetTiers(ctx, entries))

	got, err := c.GetTiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	require.NoError(t, c.InvalidateTiers(ctx))
	got, err = c.GetTiers(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_ZeroTTLDisablesWrites(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	require.NoError(t, c.SetTiers(ctx, []domain.CatalogEntry{{Name: domain.TierGA}}))
	got, err := c.GetTiers(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
