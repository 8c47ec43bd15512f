package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/currency"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExchangeRateRepository implements ExchangeRateRepository using GORM
type GormExchangeRateRepository struct {
	db *gorm.DB
}

// NewGormExchangeRateRepository creates a new GormExchangeRateRepository
func NewGormExchangeRateRepository(db *gorm.DB) *GormExchangeRateRepository {
	return &GormExchangeRateRepository{db: db}
}

// FindByID finds an exchange rate by its ID
func (r *GormExchangeRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*currency.ExchangeRate, error) {
	var rate currency.ExchangeRate
	if err := r.db.WithContext(ctx).First(&rate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rate, nil
}

// FindRate returns the most recent active rate for the directional pair
// whose window covers asOf
func (r *GormExchangeRateRepository) FindRate(ctx context.Context, tenantID uuid.UUID, source, target valueobject.Currency, rateType currency.RateType, asOf time.Time) (*currency.ExchangeRate, error) {
	var rate currency.ExchangeRate
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_currency = ? AND target_currency = ? AND rate_type = ? AND is_active = ?",
			tenantID, source, target, rateType, true).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to >= ?", asOf).
		Order("effective_from DESC").
		First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rate, nil
}

// Save creates or updates an exchange rate
func (r *GormExchangeRateRepository) Save(ctx context.Context, rate *currency.ExchangeRate) error {
	return r.db.WithContext(ctx).Save(rate).Error
}

// Ensure GormExchangeRateRepository implements ExchangeRateRepository
var _ currency.ExchangeRateRepository = (*GormExchangeRateRepository)(nil)
