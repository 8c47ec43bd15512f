package currency

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/currency"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRateTTL is the fixed TTL for cached resolved rates
const DefaultRateTTL = 15 * time.Minute

// Converter resolves exchange rates via direct lookup, inverse, or
// triangulation through the tenant's base currency, caching resolved rates
type Converter struct {
	rateRepo     currency.ExchangeRateRepository
	cache        currency.RateCache
	baseCurrency valueobject.Currency
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewConverter creates a new Converter. The base currency is used for
// triangulation when no direct or inverse rate exists.
func NewConverter(
	rateRepo currency.ExchangeRateRepository,
	cache currency.RateCache,
	baseCurrency valueobject.Currency,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Converter {
	if baseCurrency == "" {
		baseCurrency = valueobject.DefaultCurrency
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultRateTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		rateRepo:     rateRepo,
		cache:        cache,
		baseCurrency: baseCurrency,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Rate resolves the exchange rate from source to target at asOf.
// Resolution order: same-currency short-circuit, direct row, inverse row,
// triangulation through the base currency. Fails with RATE_NOT_FOUND when
// no path resolves.
func (c *Converter) Rate(ctx context.Context, tenantID uuid.UUID, source, target valueobject.Currency, rateType currency.RateType, asOf time.Time) (decimal.Decimal, error) {
	if source == target {
		return decimal.NewFromInt(1), nil
	}

	key := currency.RateCacheKey{TenantID: tenantID, Source: source, Target: target, RateType: rateType}
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil && cached != nil {
			return *cached, nil
		}
	}

	rate, err := c.resolve(ctx, tenantID, source, target, rateType, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, rate, c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache resolved rate",
				zap.String("source", string(source)),
				zap.String("target", string(target)),
				zap.Error(err),
			)
		}
	}
	return rate, nil
}

// Convert converts the amount from source to target currency.
// Returns the converted amount and the rate used.
func (c *Converter) Convert(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal, source, target valueobject.Currency, rateType currency.RateType, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := c.Rate(ctx, tenantID, source, target, rateType, asOf)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return amount.Mul(rate), rate, nil
}

// resolve walks the lookup paths without consulting the cache
func (c *Converter) resolve(ctx context.Context, tenantID uuid.UUID, source, target valueobject.Currency, rateType currency.RateType, asOf time.Time) (decimal.Decimal, error) {
	// Direct row.
	if rate, ok, err := c.directOrInverse(ctx, tenantID, source, target, rateType, asOf); err != nil {
		return decimal.Zero, err
	} else if ok {
		return rate, nil
	}

	// Triangulation through the base currency, each leg resolved
	// direct-then-inverse independently.
	if source != c.baseCurrency && target != c.baseCurrency {
		sourceToBase, okSource, err := c.directOrInverse(ctx, tenantID, source, c.baseCurrency, rateType, asOf)
		if err != nil {
			return decimal.Zero, err
		}
		baseToTarget, okTarget, err := c.directOrInverse(ctx, tenantID, c.baseCurrency, target, rateType, asOf)
		if err != nil {
			return decimal.Zero, err
		}
		if okSource && okTarget {
			c.logger.Debug("rate resolved via triangulation",
				zap.String("source", string(source)),
				zap.String("target", string(target)),
				zap.String("base", string(c.baseCurrency)),
			)
			return sourceToBase.Mul(baseToTarget), nil
		}
	}

	return decimal.Zero, shared.ErrRateNotFound
}

// directOrInverse tries the direct row, then the reciprocal of the reverse row
func (c *Converter) directOrInverse(ctx context.Context, tenantID uuid.UUID, source, target valueobject.Currency, rateType currency.RateType, asOf time.Time) (decimal.Decimal, bool, error) {
	direct, err := c.rateRepo.FindRate(ctx, tenantID, source, target, rateType, asOf)
	if err == nil {
		return direct.Rate, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, false, err
	}

	reverse, err := c.rateRepo.FindRate(ctx, tenantID, target, source, rateType, asOf)
	if err == nil {
		return reverse.Inverse(), true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, false, err
	}
	return decimal.Zero, false, nil
}
