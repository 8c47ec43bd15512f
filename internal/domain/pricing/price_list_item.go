package pricing

import (
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceListItem holds the pricing of one SKU within a price list
type PriceListItem struct {
	shared.TenantAggregateRoot
	PriceListID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_item_list_sku,priority:1"`
	SKU                string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_item_list_sku,priority:2"`
	BasePrice          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ListPrice          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MinPrice           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MaxPrice           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Cost               *decimal.Decimal `gorm:"type:decimal(18,4)"`
	QuantityBreaks     QuantityBreaks   `gorm:"type:jsonb"`
	MaxDiscountPercent *decimal.Decimal `gorm:"type:decimal(8,4)"`
	EffectiveFrom      *time.Time       `gorm:"index"`
	EffectiveTo        *time.Time
	IsActive           bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PriceListItem) TableName() string {
	return "price_list_items"
}

// NewPriceListItem creates a new active price list item
func NewPriceListItem(
	tenantID, priceListID uuid.UUID,
	sku string,
	basePrice, listPrice decimal.Decimal,
) (*PriceListItem, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return nil, shared.NewDomainError("INVALID_INPUT", "SKU cannot exceed 50 characters")
	}
	if basePrice.IsNegative() || listPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Prices cannot be negative")
	}
	if listPrice.IsZero() {
		listPrice = basePrice
	}

	return &PriceListItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PriceListID:         priceListID,
		SKU:                 sku,
		BasePrice:           basePrice,
		ListPrice:           listPrice,
		QuantityBreaks:      QuantityBreaks{},
		IsActive:            true,
	}, nil
}

// UpdatePrices replaces base and list price
func (i *PriceListItem) UpdatePrices(basePrice, listPrice decimal.Decimal) error {
	if basePrice.IsNegative() || listPrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Prices cannot be negative")
	}
	if listPrice.IsZero() {
		listPrice = basePrice
	}
	i.BasePrice = basePrice
	i.ListPrice = listPrice
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// SetBounds sets the min/max price clamps
func (i *PriceListItem) SetBounds(minPrice, maxPrice *decimal.Decimal) error {
	if minPrice != nil && maxPrice != nil && maxPrice.LessThan(*minPrice) {
		return shared.NewDomainError("INVALID_INPUT", "Max price cannot be below min price")
	}
	i.MinPrice = minPrice
	i.MaxPrice = maxPrice
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// SetCost sets the cost used for margin calculations
func (i *PriceListItem) SetCost(cost *decimal.Decimal) error {
	if cost != nil && cost.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Cost cannot be negative")
	}
	i.Cost = cost
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// SetQuantityBreaks replaces the quantity tiers after validating invariants
func (i *PriceListItem) SetQuantityBreaks(breaks QuantityBreaks) error {
	sorted := breaks.Sorted()
	if err := sorted.Validate(); err != nil {
		return err
	}
	i.QuantityBreaks = sorted
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// SetEffectiveWindow sets the item's own effective window
func (i *PriceListItem) SetEffectiveWindow(from, to *time.Time) error {
	if from != nil && to != nil && !to.After(*from) {
		return shared.NewDomainError("INVALID_INPUT", "Effective-to must be after effective-from")
	}
	i.EffectiveFrom = from
	i.EffectiveTo = to
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// Deactivate soft-deletes the item
func (i *PriceListItem) Deactivate() {
	i.IsActive = false
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// Reactivate re-enables the item
func (i *PriceListItem) Reactivate() {
	i.IsActive = true
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// IsEffectiveAt reports whether the item is active and effective at t.
// A nil window bound is open-ended.
func (i *PriceListItem) IsEffectiveAt(t time.Time) bool {
	if !i.IsActive {
		return false
	}
	if i.EffectiveFrom != nil && t.Before(*i.EffectiveFrom) {
		return false
	}
	if i.EffectiveTo != nil && t.After(*i.EffectiveTo) {
		return false
	}
	return true
}

// PriceChangeType classifies a list price movement
type PriceChangeType string

const (
	PriceIncreased PriceChangeType = "increased"
	PriceDecreased PriceChangeType = "decreased"
	PriceUnchanged PriceChangeType = "unchanged"
)

// ClassifyPriceChange compares a previous and new list price and returns the
// movement class and the change percent relative to the previous price.
// A zero previous price with a non-zero new price counts as an increase of 100%.
func ClassifyPriceChange(previous, next decimal.Decimal) (PriceChangeType, decimal.Decimal) {
	if previous.Equal(next) {
		return PriceUnchanged, decimal.Zero
	}
	if previous.IsZero() {
		return PriceIncreased, decimal.NewFromInt(100)
	}
	percent := next.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(4)
	if next.GreaterThan(previous) {
		return PriceIncreased, percent
	}
	return PriceDecreased, percent
}
