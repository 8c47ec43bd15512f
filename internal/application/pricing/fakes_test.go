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
)

// In-memory repository fakes shared by the aggregator and engine tests.

type fakeListRepo struct {
	lists []*pricing.PriceList
}

func (r *fakeListRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceList, error) {
	for _, list := range r.lists {
		if list.ID == id {
			return list, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeListRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pricing.PriceList, error) {
	list, err := r.FindByID(ctx, id)
	if err != nil || list.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return list, nil
}

func (r *fakeListRepo) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*pricing.PriceList, error) {
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Code == code {
			return list, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeListRepo) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	_, err := r.FindByCode(ctx, tenantID, code)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeListRepo) FindEffectiveByType(_ context.Context, tenantID uuid.UUID, listType pricing.PriceListType, asOf time.Time) ([]pricing.PriceList, error) {
	var result []pricing.PriceList
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Type == listType && list.IsEffectiveAt(asOf) {
			result = append(result, *list)
		}
	}
	return result, nil
}

func (r *fakeListRepo) FindActiveForTenant(_ context.Context, tenantID uuid.UUID) ([]pricing.PriceList, error) {
	var result []pricing.PriceList
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Status == pricing.StatusActive {
			result = append(result, *list)
		}
	}
	return result, nil
}

func (r *fakeListRepo) Save(_ context.Context, list *pricing.PriceList) error {
	for i, existing := range r.lists {
		if existing.ID == list.ID {
			r.lists[i] = list
			return nil
		}
	}
	r.lists = append(r.lists, list)
	return nil
}

type fakeItemRepo struct {
	items map[string]*pricing.PriceListItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[string]*pricing.PriceListItem)}
}

func itemKey(listID uuid.UUID, sku string) string {
	return listID.String() + "/" + sku
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceListItem, error) {
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeItemRepo) FindBySKU(_ context.Context, tenantID, priceListID uuid.UUID, sku string) (*pricing.PriceListItem, error) {
	item, ok := r.items[itemKey(priceListID, sku)]
	if !ok || item.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *fakeItemRepo) FindByList(_ context.Context, tenantID, priceListID uuid.UUID) ([]pricing.PriceListItem, error) {
	var result []pricing.PriceListItem
	for _, item := range r.items {
		if item.TenantID == tenantID && item.PriceListID == priceListID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fakeItemRepo) Upsert(_ context.Context, item *pricing.PriceListItem) error {
	r.items[itemKey(item.PriceListID, item.SKU)] = item
	return nil
}

func (r *fakeItemRepo) Save(ctx context.Context, item *pricing.PriceListItem) error {
	return r.Upsert(ctx, item)
}

type fakeAssignmentRepo struct {
	assignments []pricing.CustomerPriceAssignment
}

func (r *fakeAssignmentRepo) FindEffectiveForTargets(_ context.Context, tenantID uuid.UUID, targetIDs []uuid.UUID, asOf time.Time) ([]pricing.CustomerPriceAssignment, error) {
	targets := make(map[uuid.UUID]bool, len(targetIDs))
	for _, id := range targetIDs {
		targets[id] = true
	}
	var result []pricing.CustomerPriceAssignment
	for _, a := range r.assignments {
		if a.TenantID == tenantID && targets[a.TargetID] && a.IsEffectiveAt(asOf) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAssignmentRepo) FindByPriceList(_ context.Context, tenantID, priceListID uuid.UUID) ([]pricing.CustomerPriceAssignment, error) {
	var result []pricing.CustomerPriceAssignment
	for _, a := range r.assignments {
		if a.TenantID == tenantID && a.PriceListID == priceListID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAssignmentRepo) Save(_ context.Context, assignment *pricing.CustomerPriceAssignment) error {
	r.assignments = append(r.assignments, *assignment)
	return nil
}

type fakeOverrideRepo struct {
	overrides []pricing.PriceOverride
}

func (r *fakeOverrideRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceOverride, error) {
	for i := range r.overrides {
		if r.overrides[i].ID == id {
			return &r.overrides[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOverrideRepo) FindApprovedForItem(_ context.Context, tenantID, priceListItemID uuid.UUID) ([]pricing.PriceOverride, error) {
	var result []pricing.PriceOverride
	for _, o := range r.overrides {
		if o.TenantID == tenantID && o.PriceListItemID == priceListItemID && o.Status == pricing.OverrideApproved {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *fakeOverrideRepo) Save(_ context.Context, override *pricing.PriceOverride) error {
	r.overrides = append(r.overrides, *override)
	return nil
}

// fakeConverter converts with a single fixed rate
type fakeConverter struct {
	rate decimal.Decimal
	err  error
}

func (c *fakeConverter) Convert(_ context.Context, _ uuid.UUID, amount decimal.Decimal, _, _ valueobject.Currency, _ currency.RateType, _ time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if c.err != nil {
		return decimal.Zero, decimal.Zero, c.err
	}
	return amount.Mul(c.rate), c.rate, nil
}
