package pricing

import (
	"regexp"
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceListType represents the category of a price list
type PriceListType string

const (
	TypeStandard    PriceListType = "standard"
	TypeContract    PriceListType = "contract"
	TypePromotional PriceListType = "promotional"
	TypeVolume      PriceListType = "volume"
	TypeCustomer    PriceListType = "customer"
	TypeChannel     PriceListType = "channel"
	TypeRegional    PriceListType = "regional"
)

// IsValid checks if the price list type is valid
func (t PriceListType) IsValid() bool {
	switch t {
	case TypeStandard, TypeContract, TypePromotional, TypeVolume,
		TypeCustomer, TypeChannel, TypeRegional:
		return true
	}
	return false
}

// PriceListStatus represents the lifecycle status of a price list
type PriceListStatus string

const (
	StatusDraft    PriceListStatus = "draft"
	StatusActive   PriceListStatus = "active"
	StatusInactive PriceListStatus = "inactive"
	StatusExpired  PriceListStatus = "expired"
	StatusArchived PriceListStatus = "archived"
)

// IsValid checks if the status is valid
func (s PriceListStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive, StatusExpired, StatusArchived:
		return true
	}
	return false
}

// RoundingRule defines how resolved prices are rounded
type RoundingRule string

const (
	RoundNearest RoundingRule = "nearest" // half away from zero
	RoundUp      RoundingRule = "up"
	RoundDown    RoundingRule = "down"
)

// IsValid checks if the rounding rule is valid
func (r RoundingRule) IsValid() bool {
	switch r {
	case RoundNearest, RoundUp, RoundDown:
		return true
	}
	return false
}

// Apply rounds the given price according to the rule at the given precision
func (r RoundingRule) Apply(price decimal.Decimal, precision int32) decimal.Decimal {
	switch r {
	case RoundUp:
		return price.RoundUp(precision)
	case RoundDown:
		return price.RoundDown(precision)
	default:
		return price.Round(precision)
	}
}

var priceListCodePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// PriceList is the aggregate root owning a set of price list items
type PriceList struct {
	shared.TenantAggregateRoot
	Code               string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_price_list_tenant_code,priority:2"`
	Name               string               `gorm:"type:varchar(200);not null"`
	Type               PriceListType        `gorm:"type:varchar(20);not null;index"`
	Status             PriceListStatus      `gorm:"type:varchar(20);not null;default:'draft'"`
	Currency           valueobject.Currency `gorm:"type:varchar(3);not null"`
	Priority           int                  `gorm:"not null;default:100"` // lower wins
	EffectiveFrom      time.Time            `gorm:"not null;index"`
	EffectiveTo        *time.Time           `gorm:"index"`
	BasePriceListID    *uuid.UUID           `gorm:"type:uuid;index"`
	PriceModifier      decimal.Decimal      `gorm:"type:decimal(8,4);not null;default:0"` // percent delta applied to the base list
	RoundingRule       RoundingRule         `gorm:"type:varchar(10);not null;default:'nearest'"`
	RoundingPrecision  int32                `gorm:"not null;default:2"`
	IsDefault          bool                 `gorm:"not null;default:false"`
	IsCustomerSpecific bool                 `gorm:"not null;default:false"`
	Metadata           string               `gorm:"type:jsonb"` // opaque, never consulted by resolution
}

// TableName returns the table name for GORM
func (PriceList) TableName() string {
	return "price_lists"
}

// NewPriceList creates a new price list in draft status
func NewPriceList(
	tenantID uuid.UUID,
	code, name string,
	listType PriceListType,
	currency valueobject.Currency,
	priority int,
	effectiveFrom time.Time,
) (*PriceList, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validatePriceListCode(code); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Price list name cannot be empty")
	}
	if !listType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid price list type: "+string(listType))
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid price list currency: "+string(currency))
	}

	return &PriceList{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Type:                listType,
		Status:              StatusDraft,
		Currency:            currency,
		Priority:            priority,
		EffectiveFrom:       effectiveFrom,
		RoundingRule:        RoundNearest,
		RoundingPrecision:   2,
		IsCustomerSpecific:  listType == TypeCustomer || listType == TypeContract,
		Metadata:            "{}",
	}, nil
}

func validatePriceListCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", "Price list code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Price list code cannot exceed 50 characters")
	}
	if !priceListCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_INPUT", "Price list code can only contain letters, digits, underscore and hyphen")
	}
	return nil
}

// Activate transitions the list to active
func (p *PriceList) Activate() error {
	if p.Status == StatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Cannot activate an archived price list")
	}
	p.Status = StatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Deactivate transitions the list to inactive
func (p *PriceList) Deactivate() error {
	if p.Status == StatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Cannot deactivate an archived price list")
	}
	p.Status = StatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Expire marks the list as expired
func (p *PriceList) Expire() error {
	if p.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active price lists can expire")
	}
	p.Status = StatusExpired
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetEffectiveWindow sets the effective window, validating ordering
func (p *PriceList) SetEffectiveWindow(from time.Time, to *time.Time) error {
	if to != nil && !to.After(from) {
		return shared.NewDomainError("INVALID_INPUT", "Effective-to must be after effective-from")
	}
	p.EffectiveFrom = from
	p.EffectiveTo = to
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetRounding configures the rounding behavior for resolved prices
func (p *PriceList) SetRounding(rule RoundingRule, precision int32) error {
	if !rule.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid rounding rule: "+string(rule))
	}
	if precision < 0 || precision > 6 {
		return shared.NewDomainError("INVALID_INPUT", "Rounding precision must be between 0 and 6")
	}
	p.RoundingRule = rule
	p.RoundingPrecision = precision
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// DeriveFrom links this list to a base list with a percent modifier.
// Items missing from this list fall back to the base list's item with the
// modifier applied.
func (p *PriceList) DeriveFrom(baseListID uuid.UUID, modifierPercent decimal.Decimal) error {
	if baseListID == p.ID {
		return shared.NewDomainError("INVALID_INPUT", "Price list cannot derive from itself")
	}
	p.BasePriceListID = &baseListID
	p.PriceModifier = modifierPercent
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsEffectiveAt reports whether the list is active and its window covers t
func (p *PriceList) IsEffectiveAt(t time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if t.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && t.After(*p.EffectiveTo) {
		return false
	}
	return true
}
