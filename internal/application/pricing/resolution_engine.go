package pricing

import (
	"context"
	"time"

	"github.com/erp/pricing/internal/domain/currency"
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrencyConverter converts an amount between currencies for a tenant.
// Returns the converted amount and the rate used.
type CurrencyConverter interface {
	Convert(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal, source, target valueobject.Currency, rateType currency.RateType, asOf time.Time) (decimal.Decimal, decimal.Decimal, error)
}

// EngineConfig carries the tenant-independent resolution settings,
// validated at load time rather than at use time
type EngineConfig struct {
	ResolutionOrder       []pricing.PriceSource
	BreakMode             BreakPricingMode
	MinimumMarginPercent  decimal.Decimal // zero disables margin protection
	AllowBelowCostPricing bool
	DefaultRounding       pricing.RoundingRule
	DefaultPrecision      int32
	RateType              currency.RateType
}

// Validate checks the configuration invariants
func (c *EngineConfig) Validate() error {
	for _, source := range c.ResolutionOrder {
		if !source.IsValid() {
			return shared.NewDomainError("INVALID_INPUT", "Invalid price source in resolution order: "+string(source))
		}
	}
	if c.BreakMode != "" && !c.BreakMode.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid quantity break mode: "+string(c.BreakMode))
	}
	if c.MinimumMarginPercent.IsNegative() || c.MinimumMarginPercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_INPUT", "Minimum margin percent must be in [0, 100)")
	}
	if c.DefaultRounding != "" && !c.DefaultRounding.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid default rounding rule: "+string(c.DefaultRounding))
	}
	return nil
}

// DefaultEngineConfig returns the engine defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ResolutionOrder:  pricing.DefaultResolutionOrder(),
		BreakMode:        BreakModeAllUnits,
		DefaultRounding:  pricing.RoundNearest,
		DefaultPrecision: 2,
		RateType:         currency.RateSpot,
	}
}

// ResolutionEngine orchestrates override evaluation, source aggregation,
// quantity break resolution, bounds, margin protection, rounding and
// currency conversion into a single calculation result
type ResolutionEngine struct {
	aggregator *SourceAggregator
	overrides  *OverrideEvaluator
	breaks     *QuantityBreakResolver
	converter  CurrencyConverter
	clock      shared.Clock
	cfg        EngineConfig
	logger     *zap.Logger
}

// NewResolutionEngine creates a new ResolutionEngine
func NewResolutionEngine(
	aggregator *SourceAggregator,
	overrides *OverrideEvaluator,
	breaks *QuantityBreakResolver,
	converter CurrencyConverter,
	clock shared.Clock,
	cfg EngineConfig,
	logger *zap.Logger,
) *ResolutionEngine {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPrecision == 0 {
		cfg.DefaultPrecision = 2
	}
	if cfg.RateType == "" {
		cfg.RateType = currency.RateSpot
	}
	return &ResolutionEngine{
		aggregator: aggregator,
		overrides:  overrides,
		breaks:     breaks,
		converter:  converter,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Calculate resolves the single correct unit price for the request and
// explains why it won. It never silently defaults to zero: when no source
// yields a candidate and no override applies it returns PRICE_NOT_FOUND.
func (e *ResolutionEngine) Calculate(ctx context.Context, req PriceCalculationRequest) (*PriceCalculationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	asOf := e.clock.Now()
	if req.PriceDate != nil {
		asOf = *req.PriceDate
	}

	trace := make([]ResolutionStep, 0, 8)
	candidate, err := e.aggregator.Select(ctx, req.TenantID, req.SKU, req.Scope(), asOf, &trace)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		e.logger.Debug("no price source matched",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("sku", req.SKU),
		)
		return nil, shared.ErrPriceNotFound
	}

	item, list := candidate.Item, candidate.List
	result := &PriceCalculationResult{
		SKU:            item.SKU,
		Quantity:       req.Quantity,
		Currency:       list.Currency,
		PriceSource:    candidate.Source,
		PriceListID:    &list.ID,
		PriceListCode:  list.Code,
		BasePrice:      item.ListPrice,
		MinPrice:       item.MinPrice,
		MaxPrice:       item.MaxPrice,
		Cost:           item.Cost,
		EffectiveFrom:  list.EffectiveFrom,
		EffectiveTo:    list.EffectiveTo,
		ResolutionPath: trace,
	}

	// Approved overrides pre-empt the aggregated source.
	override, err := e.overrides.Applicable(ctx, req.TenantID, item.ID, req.Scope(), req.Quantity, asOf)
	if err != nil {
		return nil, err
	}

	var unitPrice decimal.Decimal
	var segmentTotal *decimal.Decimal
	if override != nil {
		unitPrice = override.ComputeUnitPrice(item.ListPrice)
		result.OverrideApplied = true
		result.OverrideID = &override.ID
		result.PriceSource = pricing.SourceOverride
		result.ResolutionPath = append(result.ResolutionPath, ResolutionStep{
			Source:   pricing.SourceOverride,
			Selected: true,
			Reason:   "approved override pre-empts aggregated source",
		})
	} else {
		result.ResolutionPath = append(result.ResolutionPath, ResolutionStep{
			Source: pricing.SourceOverride,
			Reason: "no approved override matched",
		})
		tier := e.breaks.Resolve(item, req.Quantity)
		unitPrice = tier.UnitPrice
		if e.breaks.Mode() == BreakModeIncremental && tier.AppliedBreak != nil {
			total := tier.ExtendedPrice
			segmentTotal = &total
		}
		if tier.AppliedBreak != nil {
			result.QuantityBreakApplied = &QuantityBreakApplied{
				MinQuantity: tier.AppliedBreak.MinQuantity,
				MaxQuantity: tier.AppliedBreak.MaxQuantity,
				UnitPrice:   tier.AppliedBreak.UnitPrice(item.ListPrice),
			}
		}
	}

	clamped := e.applyMarginFloor(e.applyBounds(unitPrice, item, result), item, result)
	rounded := e.round(clamped, list)

	result.UnitPrice = rounded
	result.ExtendedPrice = rounded.Mul(req.Quantity)
	if segmentTotal != nil && clamped.Equal(unitPrice) {
		// The incremental segment sum is exact; the unit price is only its
		// rounded average. A clamp reprices every unit and voids the sum.
		result.ExtendedPrice = *segmentTotal
	}
	e.fillDiscount(result, item)
	e.fillMargin(result, item, rounded)

	if req.Currency != "" && req.Currency != list.Currency {
		if err := e.convertCurrency(ctx, req, list.Currency, asOf, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// applyBounds clamps the price to the item's [minPrice, maxPrice] window
func (e *ResolutionEngine) applyBounds(price decimal.Decimal, item *pricing.PriceListItem, result *PriceCalculationResult) decimal.Decimal {
	if item.MinPrice != nil && price.LessThan(*item.MinPrice) {
		result.IsAtMinPrice = true
		return *item.MinPrice
	}
	if item.MaxPrice != nil && price.GreaterThan(*item.MaxPrice) {
		result.IsAtMaxPrice = true
		return *item.MaxPrice
	}
	return price
}

// applyMarginFloor raises the price to the margin floor when margin
// protection is configured and the cost is known, unless below-cost pricing
// is explicitly allowed, in which case the violation is only recorded.
func (e *ResolutionEngine) applyMarginFloor(price decimal.Decimal, item *pricing.PriceListItem, result *PriceCalculationResult) decimal.Decimal {
	if e.cfg.MinimumMarginPercent.IsZero() || item.Cost == nil {
		return price
	}
	floor := item.Cost.Div(decimal.NewFromInt(1).Sub(e.cfg.MinimumMarginPercent.Div(decimal.NewFromInt(100))))
	if price.GreaterThanOrEqual(floor) {
		return price
	}

	result.MarginViolated = true
	if e.cfg.AllowBelowCostPricing {
		result.ResolutionPath = append(result.ResolutionPath, ResolutionStep{
			Source:   result.PriceSource,
			Selected: true,
			Reason:   "margin floor violated; below-cost pricing allowed",
		})
		return price
	}
	result.ResolutionPath = append(result.ResolutionPath, ResolutionStep{
		Source:   result.PriceSource,
		Selected: true,
		Reason:   "price raised to margin floor",
	})
	return floor
}

// round applies the list's rounding configuration. Engine defaults apply only
// when the list carries no rule at all; a configured rule brings its own
// precision, including zero for whole-unit rounding.
func (e *ResolutionEngine) round(price decimal.Decimal, list *pricing.PriceList) decimal.Decimal {
	if list.RoundingRule == "" {
		return e.cfg.DefaultRounding.Apply(price, e.cfg.DefaultPrecision)
	}
	return list.RoundingRule.Apply(price, list.RoundingPrecision)
}

// fillDiscount computes the discount math relative to the item's list price
func (e *ResolutionEngine) fillDiscount(result *PriceCalculationResult, item *pricing.PriceListItem) {
	listPrice := item.ListPrice
	if listPrice.IsZero() {
		return
	}
	discountUnit := listPrice.Sub(result.UnitPrice)
	if discountUnit.IsNegative() {
		discountUnit = decimal.Zero
	}
	result.DiscountAmount = discountUnit.Mul(result.Quantity)
	result.DiscountPercent = discountUnit.Div(listPrice).Mul(decimal.NewFromInt(100)).Round(2)
}

// fillMargin computes margin figures when the cost is known
func (e *ResolutionEngine) fillMargin(result *PriceCalculationResult, item *pricing.PriceListItem, unitPrice decimal.Decimal) {
	if item.Cost == nil || unitPrice.IsZero() {
		return
	}
	margin := unitPrice.Sub(*item.Cost)
	marginPercent := margin.Div(unitPrice).Mul(decimal.NewFromInt(100)).Round(2)
	result.Margin = &margin
	result.MarginPercent = &marginPercent
}

// convertCurrency converts the result into the requested currency,
// recording the original currency and the exchange rate used
func (e *ResolutionEngine) convertCurrency(ctx context.Context, req PriceCalculationRequest, listCurrency valueobject.Currency, asOf time.Time, result *PriceCalculationResult) error {
	convertedUnit, rate, err := e.converter.Convert(ctx, req.TenantID, result.UnitPrice, listCurrency, req.Currency, e.cfg.RateType, asOf)
	if err != nil {
		return err
	}
	result.OriginalCurrency = listCurrency
	result.ExchangeRate = &rate
	result.Currency = req.Currency
	result.UnitPrice = convertedUnit
	// Scale the extended price by the rate rather than recomputing it from
	// the unit price, so incremental segment totals survive conversion.
	result.ExtendedPrice = result.ExtendedPrice.Mul(rate)
	return nil
}
