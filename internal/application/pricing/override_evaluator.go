package pricing

import (
	"context"
	"sort"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverrideEvaluator filters and ranks price overrides for one price list item
type OverrideEvaluator struct {
	overrideRepo pricing.PriceOverrideRepository
}

// NewOverrideEvaluator creates a new OverrideEvaluator
func NewOverrideEvaluator(overrideRepo pricing.PriceOverrideRepository) *OverrideEvaluator {
	return &OverrideEvaluator{overrideRepo: overrideRepo}
}

// Applicable returns the winning override for the item, or nil if none applies.
// Only approved, currently effective overrides whose quantity range and scope
// match the request participate. The most specific scope wins; remaining ties
// are broken by the most recent effective-from, then by ID for determinism.
func (e *OverrideEvaluator) Applicable(
	ctx context.Context,
	tenantID, priceListItemID uuid.UUID,
	scope RequestScope,
	quantity decimal.Decimal,
	asOf time.Time,
) (*pricing.PriceOverride, error) {
	overrides, err := e.overrideRepo.FindApprovedForItem(ctx, tenantID, priceListItemID)
	if err != nil {
		return nil, err
	}

	qualified := make([]pricing.PriceOverride, 0, len(overrides))
	for _, o := range overrides {
		if o.Status != pricing.OverrideApproved {
			continue
		}
		if !o.IsEffectiveAt(asOf) {
			continue
		}
		if !o.CoversQuantity(quantity) {
			continue
		}
		if !scopeMatches(&o, scope) {
			continue
		}
		qualified = append(qualified, o)
	}

	if len(qualified) == 0 {
		return nil, nil
	}

	sort.Slice(qualified, func(i, j int) bool {
		si, sj := qualified[i].ScopeType.Specificity(), qualified[j].ScopeType.Specificity()
		if si != sj {
			return si > sj
		}
		if !qualified[i].EffectiveFrom.Equal(qualified[j].EffectiveFrom) {
			return qualified[i].EffectiveFrom.After(qualified[j].EffectiveFrom)
		}
		return qualified[i].ID.String() < qualified[j].ID.String()
	})

	return &qualified[0], nil
}

// scopeMatches reports whether the override's scope covers the request.
// Broader scope types generalize: an organization-level override applies to
// every customer under that organization.
func scopeMatches(o *pricing.PriceOverride, scope RequestScope) bool {
	switch o.ScopeType {
	case pricing.ScopeGlobal:
		return true
	case pricing.ScopeCustomer:
		return o.ScopeID != nil && scope.CustomerID != nil && *o.ScopeID == *scope.CustomerID
	case pricing.ScopeContract:
		return o.ScopeID != nil && scope.ContractID != nil && *o.ScopeID == *scope.ContractID
	case pricing.ScopeOrganization:
		return o.ScopeID != nil && scope.OrganizationID != nil && *o.ScopeID == *scope.OrganizationID
	}
	return false
}
