package persistence

import (
	"context"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerPriceAssignmentRepository implements CustomerPriceAssignmentRepository using GORM
type GormCustomerPriceAssignmentRepository struct {
	db *gorm.DB
}

// NewGormCustomerPriceAssignmentRepository creates a new GormCustomerPriceAssignmentRepository
func NewGormCustomerPriceAssignmentRepository(db *gorm.DB) *GormCustomerPriceAssignmentRepository {
	return &GormCustomerPriceAssignmentRepository{db: db}
}

// FindEffectiveForTargets returns active assignments for any of the given
// target IDs whose window covers asOf
func (r *GormCustomerPriceAssignmentRepository) FindEffectiveForTargets(ctx context.Context, tenantID uuid.UUID, targetIDs []uuid.UUID, asOf time.Time) ([]pricing.CustomerPriceAssignment, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	var assignments []pricing.CustomerPriceAssignment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND target_id IN ? AND is_active = ?", tenantID, targetIDs, true).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to >= ?", asOf).
		Order("priority ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindByPriceList returns all assignments of a price list
func (r *GormCustomerPriceAssignmentRepository) FindByPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) ([]pricing.CustomerPriceAssignment, error) {
	var assignments []pricing.CustomerPriceAssignment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ?", tenantID, priceListID).
		Order("priority ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// Save creates or updates an assignment
func (r *GormCustomerPriceAssignmentRepository) Save(ctx context.Context, assignment *pricing.CustomerPriceAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// Ensure GormCustomerPriceAssignmentRepository implements CustomerPriceAssignmentRepository
var _ pricing.CustomerPriceAssignmentRepository = (*GormCustomerPriceAssignmentRepository)(nil)
