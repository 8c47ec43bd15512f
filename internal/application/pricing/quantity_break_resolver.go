package pricing

import (
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// BreakPricingMode selects how quantity tiers price the requested units
type BreakPricingMode string

const (
	// BreakModeAllUnits prices every unit at the matched tier's price
	BreakModeAllUnits BreakPricingMode = "all_units"
	// BreakModeIncremental prices units tier-by-tier and sums the segments
	BreakModeIncremental BreakPricingMode = "incremental"
)

// IsValid checks if the pricing mode is valid
func (m BreakPricingMode) IsValid() bool {
	return m == BreakModeAllUnits || m == BreakModeIncremental
}

// TierResolution is the outcome of resolving quantity breaks for a request
type TierResolution struct {
	UnitPrice     decimal.Decimal
	ExtendedPrice decimal.Decimal
	AppliedBreak  *pricing.QuantityBreak
}

// QuantityBreakResolver selects the applicable quantity tier and computes
// per-unit or incremental pricing
type QuantityBreakResolver struct {
	mode BreakPricingMode
}

// NewQuantityBreakResolver creates a resolver for the given pricing mode
func NewQuantityBreakResolver(mode BreakPricingMode) *QuantityBreakResolver {
	if !mode.IsValid() {
		mode = BreakModeAllUnits
	}
	return &QuantityBreakResolver{mode: mode}
}

// Mode returns the resolver's pricing mode
func (r *QuantityBreakResolver) Mode() BreakPricingMode {
	return r.mode
}

// Resolve picks the applicable tier for the quantity and computes pricing.
// Falls back to the item's list price when no tier matches or no tiers exist.
func (r *QuantityBreakResolver) Resolve(item *pricing.PriceListItem, quantity decimal.Decimal) TierResolution {
	basePrice := item.ListPrice
	if basePrice.IsZero() {
		basePrice = item.BasePrice
	}

	matched := findApplicableBreak(item.QuantityBreaks, quantity)
	if matched == nil {
		return TierResolution{
			UnitPrice:     basePrice,
			ExtendedPrice: basePrice.Mul(quantity),
		}
	}

	if r.mode == BreakModeIncremental {
		extended := r.incrementalTotal(item.QuantityBreaks, basePrice, quantity)
		return TierResolution{
			UnitPrice:     extended.Div(quantity),
			ExtendedPrice: extended,
			AppliedBreak:  matched,
		}
	}

	unitPrice := matched.UnitPrice(basePrice)
	return TierResolution{
		UnitPrice:     unitPrice,
		ExtendedPrice: unitPrice.Mul(quantity),
		AppliedBreak:  matched,
	}
}

// findApplicableBreak selects the tier with the greatest MinQuantity <= quantity
// that also covers the quantity. Breaks are pre-sorted ascending by MinQuantity.
func findApplicableBreak(breaks pricing.QuantityBreaks, quantity decimal.Decimal) *pricing.QuantityBreak {
	var matched *pricing.QuantityBreak
	for i := range breaks {
		if breaks[i].Matches(quantity) {
			matched = &breaks[i]
		}
		if breaks[i].MinQuantity.GreaterThan(quantity) {
			break
		}
	}
	return matched
}

// incrementalTotal prices units segment-by-segment. Units below the first
// tier's minimum (or beyond a bounded final tier) are priced at the item's
// base price.
func (r *QuantityBreakResolver) incrementalTotal(breaks pricing.QuantityBreaks, basePrice, quantity decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	covered := decimal.Zero

	for i := range breaks {
		if covered.GreaterThanOrEqual(quantity) {
			break
		}
		b := breaks[i]

		// Units between the previous segment and this tier's minimum
		// fall back to the base price.
		if b.MinQuantity.GreaterThan(covered) {
			gapUpper := decimal.Min(b.MinQuantity, quantity)
			total = total.Add(basePrice.Mul(gapUpper.Sub(covered)))
			covered = gapUpper
			if covered.GreaterThanOrEqual(quantity) {
				break
			}
		}

		segmentUpper := quantity
		if b.MaxQuantity != nil {
			segmentUpper = decimal.Min(*b.MaxQuantity, quantity)
		}
		if segmentUpper.GreaterThan(covered) {
			total = total.Add(b.UnitPrice(basePrice).Mul(segmentUpper.Sub(covered)))
			covered = segmentUpper
		}
	}

	if quantity.GreaterThan(covered) {
		total = total.Add(basePrice.Mul(quantity.Sub(covered)))
	}
	return total
}
