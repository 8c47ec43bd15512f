package handler

import (
	"context"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Minimal in-memory repository stubs backing the handler tests.

type stubListRepo struct {
	lists []*pricing.PriceList
}

func (r *stubListRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceList, error) {
	for _, list := range r.lists {
		if list.ID == id {
			return list, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubListRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pricing.PriceList, error) {
	list, err := r.FindByID(ctx, id)
	if err != nil || list.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return list, nil
}

func (r *stubListRepo) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*pricing.PriceList, error) {
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Code == code {
			return list, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubListRepo) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	_, err := r.FindByCode(ctx, tenantID, code)
	return err == nil, nil
}

func (r *stubListRepo) FindEffectiveByType(_ context.Context, tenantID uuid.UUID, listType pricing.PriceListType, asOf time.Time) ([]pricing.PriceList, error) {
	var result []pricing.PriceList
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Type == listType && list.IsEffectiveAt(asOf) {
			result = append(result, *list)
		}
	}
	return result, nil
}

func (r *stubListRepo) FindActiveForTenant(_ context.Context, tenantID uuid.UUID) ([]pricing.PriceList, error) {
	var result []pricing.PriceList
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Status == pricing.StatusActive {
			result = append(result, *list)
		}
	}
	return result, nil
}

func (r *stubListRepo) Save(_ context.Context, list *pricing.PriceList) error {
	r.lists = append(r.lists, list)
	return nil
}

type stubItemRepo struct {
	items []*pricing.PriceListItem
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceListItem, error) {
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubItemRepo) FindBySKU(_ context.Context, tenantID, priceListID uuid.UUID, sku string) (*pricing.PriceListItem, error) {
	for _, item := range r.items {
		if item.TenantID == tenantID && item.PriceListID == priceListID && item.SKU == sku {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubItemRepo) FindByList(_ context.Context, tenantID, priceListID uuid.UUID) ([]pricing.PriceListItem, error) {
	var result []pricing.PriceListItem
	for _, item := range r.items {
		if item.TenantID == tenantID && item.PriceListID == priceListID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *stubItemRepo) Upsert(_ context.Context, item *pricing.PriceListItem) error {
	r.items = append(r.items, item)
	return nil
}

func (r *stubItemRepo) Save(ctx context.Context, item *pricing.PriceListItem) error {
	return r.Upsert(ctx, item)
}

type stubAssignmentRepo struct{}

func (stubAssignmentRepo) FindEffectiveForTargets(context.Context, uuid.UUID, []uuid.UUID, time.Time) ([]pricing.CustomerPriceAssignment, error) {
	return nil, nil
}

func (stubAssignmentRepo) FindByPriceList(context.Context, uuid.UUID, uuid.UUID) ([]pricing.CustomerPriceAssignment, error) {
	return nil, nil
}

func (stubAssignmentRepo) Save(context.Context, *pricing.CustomerPriceAssignment) error {
	return nil
}

type stubOverrideRepo struct{}

func (stubOverrideRepo) FindByID(context.Context, uuid.UUID) (*pricing.PriceOverride, error) {
	return nil, shared.ErrNotFound
}

func (stubOverrideRepo) FindApprovedForItem(context.Context, uuid.UUID, uuid.UUID) ([]pricing.PriceOverride, error) {
	return nil, nil
}

func (stubOverrideRepo) Save(context.Context, *pricing.PriceOverride) error {
	return nil
}

type stubJobRepo struct {
	jobs []*syncdomain.SyncJob
}

func (r *stubJobRepo) FindByID(_ context.Context, id uuid.UUID) (*syncdomain.SyncJob, error) {
	for _, job := range r.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubJobRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*syncdomain.SyncJob, error) {
	job, err := r.FindByID(ctx, id)
	if err != nil || job.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return job, nil
}

func (r *stubJobRepo) FindActiveForPriceList(_ context.Context, tenantID, priceListID uuid.UUID) (*syncdomain.SyncJob, error) {
	for _, job := range r.jobs {
		if job.TenantID == tenantID && job.PriceListID == priceListID && !job.Status.IsTerminal() {
			return job, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubJobRepo) ClaimNextPending(context.Context) (*syncdomain.SyncJob, error) {
	return nil, shared.ErrNotFound
}

func (r *stubJobRepo) FindCompletedDeltaByPrevToken(context.Context, uuid.UUID, uuid.UUID, string) (*syncdomain.SyncJob, error) {
	return nil, shared.ErrNotFound
}

func (r *stubJobRepo) FindByPriceList(_ context.Context, tenantID, priceListID uuid.UUID) ([]syncdomain.SyncJob, error) {
	var result []syncdomain.SyncJob
	for _, job := range r.jobs {
		if job.TenantID == tenantID && job.PriceListID == priceListID {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (r *stubJobRepo) Save(_ context.Context, job *syncdomain.SyncJob) error {
	for i, existing := range r.jobs {
		if existing.ID == job.ID {
			r.jobs[i] = job
			return nil
		}
	}
	r.jobs = append(r.jobs, job)
	return nil
}
