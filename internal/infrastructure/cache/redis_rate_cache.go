package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/currency"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const rateKeyPrefix = "pricing:rate:"

// RedisRateCache is a Redis-backed rate cache shared across instances.
// TTL handling is delegated to Redis key expiry.
type RedisRateCache struct {
	client *redis.Client
}

// NewRedisRateCache creates a new RedisRateCache
func NewRedisRateCache(client *redis.Client) *RedisRateCache {
	return &RedisRateCache{client: client}
}

// Get returns the cached rate, or (nil, nil) on a miss
func (c *RedisRateCache) Get(ctx context.Context, key currency.RateCacheKey) (*decimal.Decimal, error) {
	value, err := c.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt cached rate %q: %w", value, err)
	}
	return &rate, nil
}

// Set stores the rate with the given TTL
func (c *RedisRateCache) Set(ctx context.Context, key currency.RateCacheKey, rate decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, redisKey(key), rate.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// InvalidateTenant drops every cached rate of the tenant using a SCAN,
// never KEYS, so large keyspaces are not blocked
func (c *RedisRateCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	pattern := rateKeyPrefix + tenantID.String() + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

func redisKey(key currency.RateCacheKey) string {
	return rateKeyPrefix + cacheKey(key)
}
