package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceCalculationRequest asks the engine for the price of one SKU
type PriceCalculationRequest struct {
	TenantID       uuid.UUID            `json:"tenant_id"`
	SKU            string               `json:"sku"`
	Quantity       decimal.Decimal      `json:"quantity"`
	CustomerID     *uuid.UUID           `json:"customer_id,omitempty"`
	OrganizationID *uuid.UUID           `json:"organization_id,omitempty"`
	ContractID     *uuid.UUID           `json:"contract_id,omitempty"`
	Currency       valueobject.Currency `json:"currency,omitempty"`
	PriceDate      *time.Time           `json:"price_date,omitempty"`
	WarehouseID    *uuid.UUID           `json:"warehouse_id,omitempty"`
}

// Validate checks the request invariants
func (r *PriceCalculationRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Tenant ID is required")
	}
	if r.SKU == "" {
		return shared.NewDomainError("INVALID_INPUT", "SKU is required")
	}
	if !r.Quantity.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	if r.Currency != "" && !r.Currency.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid currency code: "+string(r.Currency))
	}
	return nil
}

// Scope returns the request's scope identifiers
func (r *PriceCalculationRequest) Scope() RequestScope {
	return RequestScope{
		CustomerID:     r.CustomerID,
		OrganizationID: r.OrganizationID,
		ContractID:     r.ContractID,
	}
}

// RequestScope carries the identifiers an override or assignment can match on
type RequestScope struct {
	CustomerID     *uuid.UUID
	OrganizationID *uuid.UUID
	ContractID     *uuid.UUID
}

// TargetIDs returns the non-nil scope identifiers
func (s RequestScope) TargetIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 3)
	if s.CustomerID != nil {
		ids = append(ids, *s.CustomerID)
	}
	if s.OrganizationID != nil {
		ids = append(ids, *s.OrganizationID)
	}
	if s.ContractID != nil {
		ids = append(ids, *s.ContractID)
	}
	return ids
}

// ResolutionStep is one entry in the audit trace of a calculation
type ResolutionStep struct {
	Source        pricing.PriceSource `json:"source"`
	PriceListID   *uuid.UUID          `json:"price_list_id,omitempty"`
	PriceListCode string              `json:"price_list_code,omitempty"`
	Selected      bool                `json:"selected"`
	Reason        string              `json:"reason"`
}

// QuantityBreakApplied reports which tier priced the request
type QuantityBreakApplied struct {
	MinQuantity decimal.Decimal  `json:"min_quantity"`
	MaxQuantity *decimal.Decimal `json:"max_quantity,omitempty"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
}

// PriceCalculationResult is the engine's output, including the full
// resolution trace explaining why the winning price won
type PriceCalculationResult struct {
	SKU                  string                `json:"sku"`
	Quantity             decimal.Decimal       `json:"quantity"`
	UnitPrice            decimal.Decimal       `json:"unit_price"`
	ExtendedPrice        decimal.Decimal       `json:"extended_price"`
	Currency             valueobject.Currency  `json:"currency"`
	PriceSource          pricing.PriceSource   `json:"price_source"`
	PriceListID          *uuid.UUID            `json:"price_list_id,omitempty"`
	PriceListCode        string                `json:"price_list_code,omitempty"`
	BasePrice            decimal.Decimal       `json:"base_price"`
	DiscountAmount       decimal.Decimal       `json:"discount_amount"`
	DiscountPercent      decimal.Decimal       `json:"discount_percent"`
	QuantityBreakApplied *QuantityBreakApplied `json:"quantity_break_applied,omitempty"`
	OverrideApplied      bool                  `json:"override_applied"`
	OverrideID           *uuid.UUID            `json:"override_id,omitempty"`
	MinPrice             *decimal.Decimal      `json:"min_price,omitempty"`
	MaxPrice             *decimal.Decimal      `json:"max_price,omitempty"`
	IsAtMinPrice         bool                  `json:"is_at_min_price"`
	IsAtMaxPrice         bool                  `json:"is_at_max_price"`
	Cost                 *decimal.Decimal      `json:"cost,omitempty"`
	Margin               *decimal.Decimal      `json:"margin,omitempty"`
	MarginPercent        *decimal.Decimal      `json:"margin_percent,omitempty"`
	MarginViolated       bool                  `json:"margin_violated"`
	EffectiveFrom        time.Time             `json:"effective_from"`
	EffectiveTo          *time.Time            `json:"effective_to,omitempty"`
	OriginalCurrency     valueobject.Currency  `json:"original_currency,omitempty"`
	ExchangeRate         *decimal.Decimal      `json:"exchange_rate,omitempty"`
	ResolutionPath       []ResolutionStep      `json:"resolution_path"`
}
