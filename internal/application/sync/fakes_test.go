package syncapp

import (
	"context"
	"sync"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// In-memory repository fakes for the reconciliation and scheduler tests.

type fakeListRepo struct {
	mu    sync.Mutex
	lists []*pricing.PriceList
}

func (r *fakeListRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []pricing.PriceList
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Type == listType && list.IsEffectiveAt(asOf) {
			result = append(result, *list)
		}
	}
	return result, nil
}

func (r *fakeListRepo) FindActiveForTenant(_ context.Context, tenantID uuid.UUID) ([]pricing.PriceList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []pricing.PriceList
	for _, list := range r.lists {
		if list.TenantID == tenantID && list.Status == pricing.StatusActive {
			result = append(result, *list)
		}
	}
	return result, nil
}

func (r *fakeListRepo) Save(_ context.Context, list *pricing.PriceList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	mu    sync.Mutex
	items map[string]*pricing.PriceListItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[string]*pricing.PriceListItem)}
}

func itemKey(listID uuid.UUID, sku string) string {
	return listID.String() + "/" + sku
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PriceListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeItemRepo) FindBySKU(_ context.Context, tenantID, priceListID uuid.UUID, sku string) (*pricing.PriceListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemKey(priceListID, sku)]
	if !ok || item.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *fakeItemRepo) FindByList(_ context.Context, tenantID, priceListID uuid.UUID) ([]pricing.PriceListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []pricing.PriceListItem
	for _, item := range r.items {
		if item.TenantID == tenantID && item.PriceListID == priceListID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fakeItemRepo) Upsert(_ context.Context, item *pricing.PriceListItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[itemKey(item.PriceListID, item.SKU)] = item
	return nil
}

func (r *fakeItemRepo) Save(ctx context.Context, item *pricing.PriceListItem) error {
	return r.Upsert(ctx, item)
}

func (r *fakeItemRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// fakeJobRepo stores value copies so the service's in-memory job and the
// persisted row diverge the way they do against a real database. findHook
// runs against the stored row on every FindByID, letting tests flip a job
// to cancelled between checkpoints.
type fakeJobRepo struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*syncdomain.SyncJob
	order    []uuid.UUID
	findHook func(stored *syncdomain.SyncJob)
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*syncdomain.SyncJob)}
}

func (r *fakeJobRepo) FindByID(_ context.Context, id uuid.UUID) (*syncdomain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if r.findHook != nil {
		r.findHook(stored)
	}
	c := *stored
	return &c, nil
}

func (r *fakeJobRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*syncdomain.SyncJob, error) {
	job, err := r.FindByID(ctx, id)
	if err != nil || job.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) FindActiveForPriceList(_ context.Context, tenantID, priceListID uuid.UUID) (*syncdomain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		job := r.jobs[id]
		if job.TenantID != tenantID || job.PriceListID != priceListID {
			continue
		}
		if job.Status == syncdomain.JobStatusPending || job.Status == syncdomain.JobStatusRunning {
			c := *job
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeJobRepo) ClaimNextPending(_ context.Context) (*syncdomain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		job := r.jobs[id]
		if job.Status != syncdomain.JobStatusPending {
			continue
		}
		if err := job.Start(); err != nil {
			return nil, err
		}
		c := *job
		return &c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeJobRepo) FindCompletedDeltaByPrevToken(_ context.Context, tenantID, priceListID uuid.UUID, prevToken string) (*syncdomain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		job := r.jobs[id]
		if job.TenantID == tenantID && job.PriceListID == priceListID &&
			job.JobType == syncdomain.JobTypeDelta &&
			job.Status == syncdomain.JobStatusCompleted &&
			job.PrevDeltaToken == prevToken {
			c := *job
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeJobRepo) FindByPriceList(_ context.Context, tenantID, priceListID uuid.UUID) ([]syncdomain.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []syncdomain.SyncJob
	for i := len(r.order) - 1; i >= 0; i-- {
		job := r.jobs[r.order[i]]
		if job.TenantID == tenantID && job.PriceListID == priceListID {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (r *fakeJobRepo) Save(_ context.Context, job *syncdomain.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		r.order = append(r.order, job.ID)
	}
	c := *job
	r.jobs[job.ID] = &c
	return nil
}

func (r *fakeJobRepo) get(id uuid.UUID) *syncdomain.SyncJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *r.jobs[id]
	return &c
}

// fakePayloadSource serves a fixed payload per price list
type fakePayloadSource struct {
	mu       sync.Mutex
	payloads map[uuid.UUID]*ImportPayload
	err      error
}

func newFakePayloadSource() *fakePayloadSource {
	return &fakePayloadSource{payloads: make(map[uuid.UUID]*ImportPayload)}
}

func (s *fakePayloadSource) FetchPriceList(_ context.Context, _ uuid.UUID, priceListID uuid.UUID) (*ImportPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	payload, ok := s.payloads[priceListID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return payload, nil
}
