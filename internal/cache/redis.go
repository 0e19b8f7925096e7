package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const tiersKey = "cache:ticket_tiers"

type RedisCache struct {
	client   redis.UniversalClient
	tiersTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, tiersTTL time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return NewRedisCacheWithClient(client, tiersTTL)
}

func NewRedisCacheWithClient(client redis.UniversalClient, tiersTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, tiersTTL: tiersTTL}
}

// GetTiers returns nil, nil on a miss.
func (c *RedisCache) GetTiers(ctx context.Context) ([]domain.CatalogEntry, error) {
	data, err := c.client.Get(ctx, tiersKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tiers: %w", err)
	}

	var entries []domain.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cached tiers: %w", err)
	}
	return entries, nil
}

func (c *RedisCache) SetTiers(ctx context.Context, entries []domain.CatalogEntry) error {
	if c.tiersTTL <= 0 {
		return nil
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tiersKey, payload, c.tiersTTL).Err()
}

func (c *RedisCache) InvalidateTiers(ctx context.Context) error {
	return c.client.Del(ctx, tiersKey).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
