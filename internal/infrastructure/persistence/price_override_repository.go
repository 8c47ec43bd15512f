package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPriceOverrideRepository implements PriceOverrideRepository using GORM
type GormPriceOverrideRepository struct {
	db *gorm.DB
}

// NewGormPriceOverrideRepository creates a new GormPriceOverrideRepository
func NewGormPriceOverrideRepository(db *gorm.DB) *GormPriceOverrideRepository {
	return &GormPriceOverrideRepository{db: db}
}

// FindByID finds an override by its ID
func (r *GormPriceOverrideRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceOverride, error) {
	var override pricing.PriceOverride
	if err := r.db.WithContext(ctx).First(&override, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &override, nil
}

// FindApprovedForItem returns approved overrides targeting the item
func (r *GormPriceOverrideRepository) FindApprovedForItem(ctx context.Context, tenantID, priceListItemID uuid.UUID) ([]pricing.PriceOverride, error) {
	var overrides []pricing.PriceOverride
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_item_id = ? AND status = ?",
			tenantID, priceListItemID, pricing.OverrideApproved).
		Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

// Save creates or updates an override
func (r *GormPriceOverrideRepository) Save(ctx context.Context, override *pricing.PriceOverride) error {
	return r.db.WithContext(ctx).Save(override).Error
}

// Ensure GormPriceOverrideRepository implements PriceOverrideRepository
var _ pricing.PriceOverrideRepository = (*GormPriceOverrideRepository)(nil)
