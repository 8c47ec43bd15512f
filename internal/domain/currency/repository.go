package currency

import (
	"context"
	"time"

	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRateRepository defines the persistence contract for exchange rates
type ExchangeRateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ExchangeRate, error)
	// FindRate returns the most recent active rate for the directional pair
	// whose window covers asOf, or shared.ErrNotFound
	FindRate(ctx context.Context, tenantID uuid.UUID, source, target valueobject.Currency, rateType RateType, asOf time.Time) (*ExchangeRate, error)
	Save(ctx context.Context, rate *ExchangeRate) error
}

// RateCacheKey identifies a cached resolved rate
type RateCacheKey struct {
	TenantID uuid.UUID
	Source   valueobject.Currency
	Target   valueobject.Currency
	RateType RateType
}

// RateCache caches resolved rates with a fixed TTL. A nil result with a nil
// error means a cache miss. Any write to a tenant's exchange rates must call
// InvalidateTenant; coarse invalidation is favored over fine-grained
// correctness risk.
type RateCache interface {
	Get(ctx context.Context, key RateCacheKey) (*decimal.Decimal, error)
	Set(ctx context.Context, key RateCacheKey, rate decimal.Decimal, ttl time.Duration) error
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}
