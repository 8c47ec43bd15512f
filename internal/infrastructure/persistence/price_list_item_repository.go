package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPriceListItemRepository implements PriceListItemRepository using GORM
type GormPriceListItemRepository struct {
	db *gorm.DB
}

// NewGormPriceListItemRepository creates a new GormPriceListItemRepository
func NewGormPriceListItemRepository(db *gorm.DB) *GormPriceListItemRepository {
	return &GormPriceListItemRepository{db: db}
}

// FindByID finds a price list item by its ID
func (r *GormPriceListItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceListItem, error) {
	var item pricing.PriceListItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindBySKU finds the item for a SKU within a price list
func (r *GormPriceListItemRepository) FindBySKU(ctx context.Context, tenantID, priceListID uuid.UUID, sku string) (*pricing.PriceListItem, error) {
	var item pricing.PriceListItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ? AND sku = ?", tenantID, priceListID, sku).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByList returns all items of a price list
func (r *GormPriceListItemRepository) FindByList(ctx context.Context, tenantID, priceListID uuid.UUID) ([]pricing.PriceListItem, error) {
	var items []pricing.PriceListItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ?", tenantID, priceListID).
		Order("sku ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert inserts or replaces the item keyed by (priceListID, sku)
func (r *GormPriceListItemRepository) Upsert(ctx context.Context, item *pricing.PriceListItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "price_list_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"base_price", "list_price", "min_price", "max_price", "cost",
				"quantity_breaks", "max_discount_percent",
				"effective_from", "effective_to", "is_active",
				"updated_at", "version",
			}),
		}).
		Create(item).Error
}

// Save creates or updates a price list item
func (r *GormPriceListItemRepository) Save(ctx context.Context, item *pricing.PriceListItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Ensure GormPriceListItemRepository implements PriceListItemRepository
var _ pricing.PriceListItemRepository = (*GormPriceListItemRepository)(nil)
