package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/pricing/internal/domain/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rateEntry is one cached rate with its expiry
type rateEntry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// InMemoryRateCache is a TTL cache for resolved exchange rates backed by a
// map. A background goroutine evicts expired entries. Suitable for
// single-instance deployments; use RedisRateCache when instances share state.
type InMemoryRateCache struct {
	mu      sync.RWMutex
	entries map[string]rateEntry

	hits   atomic.Int64
	misses atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// NewInMemoryRateCache creates the cache and starts its cleanup loop
func NewInMemoryRateCache(cleanupInterval time.Duration) *InMemoryRateCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &InMemoryRateCache{
		entries: make(map[string]rateEntry),
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

// Get returns the cached rate, or (nil, nil) on a miss
func (c *InMemoryRateCache) Get(ctx context.Context, key currency.RateCacheKey) (*decimal.Decimal, error) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(key)]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.misses.Add(1)
		return nil, nil
	}
	c.hits.Add(1)
	rate := entry.rate
	return &rate, nil
}

// Set stores the rate with the given TTL
func (c *InMemoryRateCache) Set(ctx context.Context, key currency.RateCacheKey, rate decimal.Decimal, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[cacheKey(key)] = rateEntry{rate: rate, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// InvalidateTenant drops every cached rate of the tenant
func (c *InMemoryRateCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	prefix := tenantID.String() + ":"
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Stats returns the hit and miss counters
func (c *InMemoryRateCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the cleanup loop. Idempotent.
func (c *InMemoryRateCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *InMemoryRateCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// cacheKey flattens the composite key, tenant first so tenant-wide
// invalidation is a prefix scan
func cacheKey(key currency.RateCacheKey) string {
	return key.TenantID.String() + ":" + string(key.Source) + ":" + string(key.Target) + ":" + string(key.RateType)
}
