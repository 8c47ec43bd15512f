package currency

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateType categorizes exchange rates by their origin and cadence
type RateType string

const (
	RateSpot     RateType = "spot"
	RateDaily    RateType = "daily"
	RateMonthly  RateType = "monthly"
	RateContract RateType = "contract"
)

// IsValid checks if the rate type is valid
func (t RateType) IsValid() bool {
	switch t {
	case RateSpot, RateDaily, RateMonthly, RateContract:
		return true
	}
	return false
}

// ExchangeRate is a directional currency rate for a tenant, rate type and window.
// Multiple rows may exist per pair across time; resolution picks the most
// recent row whose window covers the requested date.
type ExchangeRate struct {
	shared.TenantAggregateRoot
	SourceCurrency valueobject.Currency `gorm:"type:varchar(3);not null;index:idx_rate_pair,priority:1"`
	TargetCurrency valueobject.Currency `gorm:"type:varchar(3);not null;index:idx_rate_pair,priority:2"`
	RateType       RateType             `gorm:"type:varchar(10);not null;default:'spot'"`
	Rate           decimal.Decimal      `gorm:"type:decimal(18,8);not null"`
	EffectiveFrom  time.Time            `gorm:"not null;index"`
	EffectiveTo    *time.Time
	IsActive       bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ExchangeRate) TableName() string {
	return "currency_exchange_rates"
}

// NewExchangeRate creates a new active exchange rate
func NewExchangeRate(
	tenantID uuid.UUID,
	source, target valueobject.Currency,
	rateType RateType,
	rate decimal.Decimal,
	effectiveFrom time.Time,
) (*ExchangeRate, error) {
	if !source.IsValid() || !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Source and target must be valid currency codes")
	}
	if source == target {
		return nil, shared.NewDomainError("INVALID_INPUT", "Source and target currency must differ")
	}
	if !rateType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid rate type: "+string(rateType))
	}
	if !rate.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Exchange rate must be positive")
	}

	return &ExchangeRate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SourceCurrency:      source,
		TargetCurrency:      target,
		RateType:            rateType,
		Rate:                rate,
		EffectiveFrom:       effectiveFrom,
		IsActive:            true,
	}, nil
}

// Deactivate disables the rate row
func (r *ExchangeRate) Deactivate() {
	r.IsActive = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// IsEffectiveAt reports whether the rate is active and its window covers t
func (r *ExchangeRate) IsEffectiveAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if t.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && t.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// Inverse returns the reciprocal rate
func (r *ExchangeRate) Inverse() decimal.Decimal {
	return decimal.NewFromInt(1).Div(r.Rate)
}
