package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PriceListRepository defines the persistence contract for price lists
type PriceListRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PriceList, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PriceList, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*PriceList, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	// FindEffectiveByType returns active lists of the given type whose window covers asOf
	FindEffectiveByType(ctx context.Context, tenantID uuid.UUID, listType PriceListType, asOf time.Time) ([]PriceList, error)
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]PriceList, error)
	Save(ctx context.Context, list *PriceList) error
}

// PriceListItemRepository defines the persistence contract for price list items
type PriceListItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PriceListItem, error)
	FindBySKU(ctx context.Context, tenantID, priceListID uuid.UUID, sku string) (*PriceListItem, error)
	FindByList(ctx context.Context, tenantID, priceListID uuid.UUID) ([]PriceListItem, error)
	// Upsert inserts or replaces the item keyed by (priceListID, sku)
	Upsert(ctx context.Context, item *PriceListItem) error
	Save(ctx context.Context, item *PriceListItem) error
}

// PriceOverrideRepository defines the persistence contract for price overrides
type PriceOverrideRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PriceOverride, error)
	// FindApprovedForItem returns approved overrides targeting the item,
	// regardless of scope; effectiveness filtering happens in the evaluator
	FindApprovedForItem(ctx context.Context, tenantID, priceListItemID uuid.UUID) ([]PriceOverride, error)
	Save(ctx context.Context, override *PriceOverride) error
}

// CustomerPriceAssignmentRepository defines the persistence contract for assignments
type CustomerPriceAssignmentRepository interface {
	// FindEffectiveForTargets returns active assignments for any of the given
	// target IDs whose window covers asOf
	FindEffectiveForTargets(ctx context.Context, tenantID uuid.UUID, targetIDs []uuid.UUID, asOf time.Time) ([]CustomerPriceAssignment, error)
	FindByPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) ([]CustomerPriceAssignment, error)
	Save(ctx context.Context, assignment *CustomerPriceAssignment) error
}
