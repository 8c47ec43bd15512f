package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPriceListRepository implements PriceListRepository using GORM
type GormPriceListRepository struct {
	db *gorm.DB
}

// NewGormPriceListRepository creates a new GormPriceListRepository
func NewGormPriceListRepository(db *gorm.DB) *GormPriceListRepository {
	return &GormPriceListRepository{db: db}
}

// FindByID finds a price list by its ID
func (r *GormPriceListRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceList, error) {
	var list pricing.PriceList
	if err := r.db.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}

// FindByIDForTenant finds a price list by ID within a tenant
func (r *GormPriceListRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pricing.PriceList, error) {
	var list pricing.PriceList
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}

// FindByCode finds a price list by its code within a tenant
func (r *GormPriceListRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*pricing.PriceList, error) {
	var list pricing.PriceList
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}

// ExistsByCode checks if a price list with the given code exists in the tenant
func (r *GormPriceListRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&pricing.PriceList{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEffectiveByType returns active lists of the given type whose window covers asOf
func (r *GormPriceListRepository) FindEffectiveByType(ctx context.Context, tenantID uuid.UUID, listType pricing.PriceListType, asOf time.Time) ([]pricing.PriceList, error) {
	var lists []pricing.PriceList
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND type = ? AND status = ?", tenantID, listType, pricing.StatusActive).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to >= ?", asOf).
		Order("priority ASC, effective_from DESC").
		Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

// FindActiveForTenant returns all active price lists of a tenant
func (r *GormPriceListRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]pricing.PriceList, error) {
	var lists []pricing.PriceList
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, pricing.StatusActive).
		Order("priority ASC, code ASC").
		Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

// Save creates or updates a price list
func (r *GormPriceListRepository) Save(ctx context.Context, list *pricing.PriceList) error {
	return r.db.WithContext(ctx).Save(list).Error
}

// Ensure GormPriceListRepository implements PriceListRepository
var _ pricing.PriceListRepository = (*GormPriceListRepository)(nil)
