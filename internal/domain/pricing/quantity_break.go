package pricing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuantityBreak is a quantity-tier pricing rule on a price list item.
// Price is authoritative when present; DiscountPercent is only applied
// against the item's base price when Price is absent.
type QuantityBreak struct {
	MinQuantity     decimal.Decimal  `json:"min_quantity"`
	MaxQuantity     *decimal.Decimal `json:"max_quantity,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

// Matches reports whether the given quantity falls within this tier
func (b QuantityBreak) Matches(quantity decimal.Decimal) bool {
	if quantity.LessThan(b.MinQuantity) {
		return false
	}
	if b.MaxQuantity != nil && quantity.GreaterThan(*b.MaxQuantity) {
		return false
	}
	return true
}

// UnitPrice computes the tier's per-unit price against the given base price
func (b QuantityBreak) UnitPrice(basePrice decimal.Decimal) decimal.Decimal {
	if b.Price != nil {
		return *b.Price
	}
	if b.DiscountPercent != nil {
		multiplier := decimal.NewFromInt(100).Sub(*b.DiscountPercent).Div(decimal.NewFromInt(100))
		return basePrice.Mul(multiplier)
	}
	return basePrice
}

// QuantityBreaks is an ordered set of non-overlapping quantity tiers,
// stored as a JSON column on the price list item
type QuantityBreaks []QuantityBreak

// Validate checks ordering and non-overlap invariants:
// sorted ascending by MinQuantity, each tier's MaxQuantity < next.MinQuantity
func (q QuantityBreaks) Validate() error {
	for i, b := range q {
		if b.MinQuantity.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: min quantity cannot be negative", i))
		}
		if b.MaxQuantity != nil && b.MaxQuantity.LessThan(b.MinQuantity) {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: max quantity below min quantity", i))
		}
		if b.Price != nil && b.Price.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: price cannot be negative", i))
		}
		if b.DiscountPercent != nil && (b.DiscountPercent.IsNegative() || b.DiscountPercent.GreaterThan(decimal.NewFromInt(100))) {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: discount percent must be between 0 and 100", i))
		}
		if i > 0 {
			prev := q[i-1]
			if !prev.MinQuantity.LessThan(b.MinQuantity) {
				return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: tiers must be sorted ascending by min quantity", i))
			}
			if prev.MaxQuantity == nil {
				return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: previous tier is unbounded", i))
			}
			if !prev.MaxQuantity.LessThan(b.MinQuantity) {
				return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Quantity break %d: tiers overlap", i))
			}
		}
	}
	return nil
}

// Sorted returns a copy sorted ascending by MinQuantity
func (q QuantityBreaks) Sorted() QuantityBreaks {
	sorted := make(QuantityBreaks, len(q))
	copy(sorted, q)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity.LessThan(sorted[j].MinQuantity)
	})
	return sorted
}

// Value implements driver.Valuer for JSON storage
func (q QuantityBreaks) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (q *QuantityBreaks) Scan(value interface{}) error {
	if value == nil {
		*q = QuantityBreaks{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for QuantityBreaks")
	}
	if len(data) == 0 {
		*q = QuantityBreaks{}
		return nil
	}
	return json.Unmarshal(data, q)
}
