package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
)

// AssignmentTargetType is the kind of target a price list is assigned to
type AssignmentTargetType string

const (
	AssignCustomer     AssignmentTargetType = "customer"
	AssignOrganization AssignmentTargetType = "organization"
	AssignContract     AssignmentTargetType = "contract"
	AssignChannel      AssignmentTargetType = "channel"
)

// IsValid checks if the target type is valid
func (t AssignmentTargetType) IsValid() bool {
	switch t {
	case AssignCustomer, AssignOrganization, AssignContract, AssignChannel:
		return true
	}
	return false
}

// CustomerPriceAssignment binds a price list to an assignment target,
// gating which customer-scoped lists are candidates for a request
type CustomerPriceAssignment struct {
	shared.TenantAggregateRoot
	PriceListID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	TargetType    AssignmentTargetType `gorm:"type:varchar(20);not null"`
	TargetID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Priority      int                  `gorm:"not null;default:100"`
	EffectiveFrom time.Time            `gorm:"not null"`
	EffectiveTo   *time.Time
	IsActive      bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CustomerPriceAssignment) TableName() string {
	return "customer_price_assignments"
}

// NewCustomerPriceAssignment creates a new active assignment
func NewCustomerPriceAssignment(
	tenantID, priceListID uuid.UUID,
	targetType AssignmentTargetType,
	targetID uuid.UUID,
	priority int,
	effectiveFrom time.Time,
) (*CustomerPriceAssignment, error) {
	if !targetType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid assignment target type: "+string(targetType))
	}
	if targetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Assignment target ID cannot be empty")
	}

	return &CustomerPriceAssignment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PriceListID:         priceListID,
		TargetType:          targetType,
		TargetID:            targetID,
		Priority:            priority,
		EffectiveFrom:       effectiveFrom,
		IsActive:            true,
	}, nil
}

// Deactivate disables the assignment
func (a *CustomerPriceAssignment) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// IsEffectiveAt reports whether the assignment is active and covers t
func (a *CustomerPriceAssignment) IsEffectiveAt(t time.Time) bool {
	if !a.IsActive {
		return false
	}
	if t.Before(a.EffectiveFrom) {
		return false
	}
	if a.EffectiveTo != nil && t.After(*a.EffectiveTo) {
		return false
	}
	return true
}
