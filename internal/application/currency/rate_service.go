package currency

import (
	"context"
	"time"

	"github.com/erp/pricing/internal/domain/currency"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateService is the write path for exchange rates. Every write invalidates
// the tenant's entire rate cache; coarse invalidation is favored over
// fine-grained correctness risk.
type RateService struct {
	rateRepo currency.ExchangeRateRepository
	cache    currency.RateCache
	logger   *zap.Logger
}

// NewRateService creates a new RateService
func NewRateService(rateRepo currency.ExchangeRateRepository, cache currency.RateCache, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{rateRepo: rateRepo, cache: cache, logger: logger}
}

// UpsertRate stores a new exchange rate row and invalidates the tenant cache
func (s *RateService) UpsertRate(
	ctx context.Context,
	tenantID uuid.UUID,
	source, target valueobject.Currency,
	rateType currency.RateType,
	rate decimal.Decimal,
	effectiveFrom time.Time,
	effectiveTo *time.Time,
) (*currency.ExchangeRate, error) {
	row, err := currency.NewExchangeRate(tenantID, source, target, rateType, rate, effectiveFrom)
	if err != nil {
		return nil, err
	}
	row.EffectiveTo = effectiveTo

	if err := s.rateRepo.Save(ctx, row); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)

	s.logger.Info("exchange rate upserted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.String("rate", rate.String()),
	)
	return row, nil
}

// DeactivateRate disables a rate row and invalidates the tenant cache
func (s *RateService) DeactivateRate(ctx context.Context, tenantID, rateID uuid.UUID) error {
	row, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		return err
	}
	row.Deactivate()
	if err := s.rateRepo.Save(ctx, row); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

func (s *RateService) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTenant(ctx, tenantID); err != nil {
		s.logger.Warn("failed to invalidate tenant rate cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
}
