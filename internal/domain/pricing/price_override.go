package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverrideType determines how an override value is interpreted
type OverrideType string

const (
	OverrideFixedPrice      OverrideType = "fixed_price"      // value is the unit price
	OverridePercentDiscount OverrideType = "percent_discount" // value is a percent off the resolved base
)

// IsValid checks if the override type is valid
func (t OverrideType) IsValid() bool {
	return t == OverrideFixedPrice || t == OverridePercentDiscount
}

// OverrideScope is the scope an override targets
type OverrideScope string

const (
	ScopeCustomer     OverrideScope = "customer"
	ScopeContract     OverrideScope = "contract"
	ScopeOrganization OverrideScope = "organization"
	ScopeGlobal       OverrideScope = "global"
)

// IsValid checks if the scope type is valid
func (s OverrideScope) IsValid() bool {
	switch s {
	case ScopeCustomer, ScopeContract, ScopeOrganization, ScopeGlobal:
		return true
	}
	return false
}

// Specificity ranks scopes; higher is more specific
func (s OverrideScope) Specificity() int {
	switch s {
	case ScopeCustomer:
		return 4
	case ScopeContract:
		return 3
	case ScopeOrganization:
		return 2
	case ScopeGlobal:
		return 1
	}
	return 0
}

// OverrideStatus is the approval state of an override
type OverrideStatus string

const (
	OverridePending  OverrideStatus = "pending"
	OverrideApproved OverrideStatus = "approved"
	OverrideRejected OverrideStatus = "rejected"
	OverrideRevoked  OverrideStatus = "revoked"
)

// PriceOverride targets one price list item and, once approved and effective,
// pre-empts every aggregated price source
type PriceOverride struct {
	shared.TenantAggregateRoot
	PriceListItemID uuid.UUID        `gorm:"type:uuid;not null;index"`
	OverrideType    OverrideType     `gorm:"type:varchar(20);not null"`
	Value           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ScopeType       OverrideScope    `gorm:"type:varchar(20);not null"`
	ScopeID         *uuid.UUID       `gorm:"type:uuid;index"` // nil for global scope
	MinQuantity     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MaxQuantity     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EffectiveFrom   time.Time        `gorm:"not null"`
	EffectiveTo     *time.Time
	Status          OverrideStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Reason          string         `gorm:"type:varchar(500)"`
	ApprovedBy      *uuid.UUID     `gorm:"type:uuid"`
	ApprovedAt      *time.Time
}

// TableName returns the table name for GORM
func (PriceOverride) TableName() string {
	return "price_overrides"
}

// NewPriceOverride creates a pending price override
func NewPriceOverride(
	tenantID, priceListItemID uuid.UUID,
	overrideType OverrideType,
	value decimal.Decimal,
	scopeType OverrideScope,
	scopeID *uuid.UUID,
	effectiveFrom time.Time,
) (*PriceOverride, error) {
	if !overrideType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid override type: "+string(overrideType))
	}
	if !scopeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid override scope: "+string(scopeType))
	}
	if scopeType != ScopeGlobal && scopeID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Scoped overrides require a scope ID")
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Override value cannot be negative")
	}
	if overrideType == OverridePercentDiscount && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Percent discount cannot exceed 100")
	}

	return &PriceOverride{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PriceListItemID:     priceListItemID,
		OverrideType:        overrideType,
		Value:               value,
		ScopeType:           scopeType,
		ScopeID:             scopeID,
		EffectiveFrom:       effectiveFrom,
		Status:              OverridePending,
	}, nil
}

// SetQuantityRange restricts the override to a quantity range
func (o *PriceOverride) SetQuantityRange(minQty, maxQty *decimal.Decimal) error {
	if minQty != nil && maxQty != nil && maxQty.LessThan(*minQty) {
		return shared.NewDomainError("INVALID_INPUT", "Max quantity cannot be below min quantity")
	}
	o.MinQuantity = minQty
	o.MaxQuantity = maxQty
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Approve transitions a pending override to approved
func (o *PriceOverride) Approve(approverID uuid.UUID) error {
	if o.Status != OverridePending {
		return shared.NewDomainError("INVALID_STATE", "Only pending overrides can be approved")
	}
	now := time.Now()
	o.Status = OverrideApproved
	o.ApprovedBy = &approverID
	o.ApprovedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Reject transitions a pending override to rejected
func (o *PriceOverride) Reject() error {
	if o.Status != OverridePending {
		return shared.NewDomainError("INVALID_STATE", "Only pending overrides can be rejected")
	}
	o.Status = OverrideRejected
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Revoke withdraws an approved override
func (o *PriceOverride) Revoke() error {
	if o.Status != OverrideApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved overrides can be revoked")
	}
	o.Status = OverrideRevoked
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// IsEffectiveAt reports whether the override window covers t
func (o *PriceOverride) IsEffectiveAt(t time.Time) bool {
	if t.Before(o.EffectiveFrom) {
		return false
	}
	if o.EffectiveTo != nil && t.After(*o.EffectiveTo) {
		return false
	}
	return true
}

// CoversQuantity reports whether the quantity falls in the override's range.
// Missing bounds are open-ended.
func (o *PriceOverride) CoversQuantity(quantity decimal.Decimal) bool {
	if o.MinQuantity != nil && quantity.LessThan(*o.MinQuantity) {
		return false
	}
	if o.MaxQuantity != nil && quantity.GreaterThan(*o.MaxQuantity) {
		return false
	}
	return true
}

// ComputeUnitPrice resolves the override against the given base unit price
func (o *PriceOverride) ComputeUnitPrice(baseUnitPrice decimal.Decimal) decimal.Decimal {
	if o.OverrideType == OverrideFixedPrice {
		return o.Value
	}
	multiplier := decimal.NewFromInt(100).Sub(o.Value).Div(decimal.NewFromInt(100))
	return baseUnitPrice.Mul(multiplier)
}
