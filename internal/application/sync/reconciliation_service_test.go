package syncapp

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	tenantID uuid.UUID
	listRepo *fakeListRepo
	itemRepo *fakeItemRepo
	jobRepo  *fakeJobRepo
	source   *fakePayloadSource
}

func newSyncFixture() *syncFixture {
	return &syncFixture{
		tenantID: uuid.New(),
		listRepo: &fakeListRepo{},
		itemRepo: newFakeItemRepo(),
		jobRepo:  newFakeJobRepo(),
		source:   newFakePayloadSource(),
	}
}

func (f *syncFixture) service(cfg ReconciliationConfig, clock shared.Clock) *ReconciliationService {
	return NewReconciliationService(f.listRepo, f.itemRepo, f.jobRepo, f.source, clock, cfg, nil)
}

func payloadFor(code string, items ...ImportItem) *ImportPayload {
	return &ImportPayload{
		PriceList: ImportPriceList{Code: code, Name: code + " list", Currency: valueobject.USD},
		Items:     items,
	}
}

func itemRow(sku, price string) ImportItem {
	return ImportItem{SKU: sku, BasePrice: dec(price), ListPrice: dec(price)}
}

func TestImportFull(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the list and all items", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		job, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED",
			itemRow("WIDGET-1", "50"), itemRow("WIDGET-2", "60"), itemRow("WIDGET-3", "70")))
		require.NoError(t, err)

		assert.Equal(t, syncdomain.JobStatusCompleted, job.Status)
		assert.Equal(t, syncdomain.JobTypeFull, job.JobType)
		assert.Equal(t, 3, job.TotalItems)
		assert.Equal(t, 3, job.ProcessedItems)
		assert.Equal(t, 3, job.CreatedItems)
		assert.Equal(t, 0, job.ErrorCount)

		list, err := f.listRepo.FindByCode(ctx, f.tenantID, "FEED")
		require.NoError(t, err)
		assert.Equal(t, pricing.StatusActive, list.Status)
		assert.Equal(t, 3, f.itemRepo.count())

		// The persisted row reflects the completion.
		assert.Equal(t, syncdomain.JobStatusCompleted, f.jobRepo.get(job.ID).Status)
	})

	t.Run("reimporting the same payload leaves everything unchanged", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)
		payload := payloadFor("FEED", itemRow("WIDGET-1", "50"), itemRow("WIDGET-2", "60"))

		_, err := svc.ImportFull(ctx, f.tenantID, payload)
		require.NoError(t, err)
		job, err := svc.ImportFull(ctx, f.tenantID, payload)
		require.NoError(t, err)

		assert.Equal(t, 0, job.CreatedItems)
		assert.Equal(t, 0, job.UpdatedItems)
		assert.Equal(t, 2, job.UnchangedItems)
		require.NotNil(t, job.Summary)
		assert.Equal(t, 2, job.Summary.Unchanged)
	})

	t.Run("price movements are counted and the largest recorded", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		_, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED",
			itemRow("WIDGET-1", "50"), itemRow("WIDGET-2", "50"), itemRow("WIDGET-3", "50")))
		require.NoError(t, err)

		job, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED",
			itemRow("WIDGET-1", "55"), itemRow("WIDGET-2", "45"), itemRow("WIDGET-3", "50")))
		require.NoError(t, err)

		assert.Equal(t, 2, job.UpdatedItems)
		assert.Equal(t, 1, job.UnchangedItems)
		require.NotNil(t, job.Summary)
		assert.Equal(t, 1, job.Summary.Increased)
		assert.Equal(t, 1, job.Summary.Decreased)
		assert.Equal(t, 1, job.Summary.Unchanged)

		require.NotNil(t, job.Summary.LargestIncrease)
		assert.Equal(t, "WIDGET-1", job.Summary.LargestIncrease.SKU)
		assert.True(t, job.Summary.LargestIncrease.ChangePercent.Equal(dec("10")))
		require.NotNil(t, job.Summary.LargestDecrease)
		assert.Equal(t, "WIDGET-2", job.Summary.LargestDecrease.SKU)
		assert.True(t, job.Summary.LargestDecrease.ChangePercent.Equal(dec("-10")))
	})

	t.Run("invalid rows become soft errors, the job still completes", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		job, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED",
			itemRow("WIDGET-1", "50"), itemRow("BAD-1", "-5"), itemRow("WIDGET-2", "60")))
		require.NoError(t, err)

		assert.Equal(t, syncdomain.JobStatusCompleted, job.Status)
		assert.Equal(t, 2, job.ProcessedItems)
		assert.Equal(t, 2, job.CreatedItems)
		assert.Equal(t, 1, job.ErrorCount)
		require.Len(t, job.Errors, 1)
		assert.Equal(t, "BAD-1", job.Errors[0].SKU)
		assert.Equal(t, "INVALID_INPUT", job.Errors[0].Code)
	})

	t.Run("a second sync on a busy list is refused", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)
		payload := payloadFor("FEED", itemRow("WIDGET-1", "50"))

		first, err := svc.ImportFull(ctx, f.tenantID, payload)
		require.NoError(t, err)

		pending, err := syncdomain.NewSyncJob(f.tenantID, first.PriceListID, syncdomain.JobTypeFull)
		require.NoError(t, err)
		require.NoError(t, f.jobRepo.Save(ctx, pending))

		_, err = svc.ImportFull(ctx, f.tenantID, payload)
		require.Error(t, err)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "ALREADY_EXISTS", de.Code)
	})

	t.Run("rejects nil and malformed payloads", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		_, err := svc.ImportFull(ctx, f.tenantID, nil)
		require.Error(t, err)

		_, err = svc.ImportFull(ctx, f.tenantID, &ImportPayload{
			PriceList: ImportPriceList{Name: "no code", Currency: valueobject.USD},
		})
		require.Error(t, err)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_INPUT", de.Code)
	})

	t.Run("an external cancel is honored at the next batch boundary", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{BatchSize: 1}, nil)

		var checkpoints int
		f.jobRepo.findHook = func(stored *syncdomain.SyncJob) {
			checkpoints++
			if checkpoints == 2 {
				stored.Status = syncdomain.JobStatusCancelled
			}
		}

		job, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED",
			itemRow("WIDGET-1", "50"), itemRow("WIDGET-2", "60"), itemRow("WIDGET-3", "70")))
		require.NoError(t, err)

		assert.Equal(t, syncdomain.JobStatusCancelled, job.Status)
		assert.Equal(t, 1, f.itemRepo.count(), "only the first batch landed")
		assert.Nil(t, job.CompletedAt)
	})
}

func TestApplyDelta(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *syncFixture, svc *ReconciliationService) uuid.UUID {
		t.Helper()
		job, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED",
			itemRow("WIDGET-1", "50"), itemRow("WIDGET-2", "50"), itemRow("WIDGET-3", "50")))
		require.NoError(t, err)
		return job.PriceListID
	}

	t.Run("applies a mixed batch of entries", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)
		listID := seed(t, f, svc)

		update := itemRow("WIDGET-1", "55")
		create := itemRow("NEW-1", "10")
		job, err := svc.ApplyDelta(ctx, f.tenantID, listID, DeltaBatch{Entries: []DeltaEntry{
			{Action: DeltaCreate, SKU: "NEW-1", Data: &create},
			{Action: DeltaUpdate, SKU: "WIDGET-1", Data: &update},
			{Action: DeltaDelete, SKU: "WIDGET-2"},
			{Action: DeltaDelete, SKU: "GHOST-1"},
		}})
		require.NoError(t, err)

		assert.Equal(t, syncdomain.JobStatusCompleted, job.Status)
		assert.Equal(t, syncdomain.JobTypeDelta, job.JobType)
		assert.Equal(t, 4, job.TotalItems)
		assert.Equal(t, 4, job.ProcessedItems)
		assert.Equal(t, 1, job.CreatedItems)
		assert.Equal(t, 1, job.UpdatedItems)
		assert.Equal(t, 1, job.DeactivatedItems)
		assert.Equal(t, 1, job.UnchangedItems, "deleting an absent item is a counted no-op")

		created, err := f.itemRepo.FindBySKU(ctx, f.tenantID, listID, "NEW-1")
		require.NoError(t, err)
		assert.True(t, created.ListPrice.Equal(dec("10")))

		updated, err := f.itemRepo.FindBySKU(ctx, f.tenantID, listID, "WIDGET-1")
		require.NoError(t, err)
		assert.True(t, updated.ListPrice.Equal(dec("55")))

		deleted, err := f.itemRepo.FindBySKU(ctx, f.tenantID, listID, "WIDGET-2")
		require.NoError(t, err)
		assert.False(t, deleted.IsActive)
	})

	t.Run("entries without data and unknown actions are soft errors", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)
		listID := seed(t, f, svc)

		job, err := svc.ApplyDelta(ctx, f.tenantID, listID, DeltaBatch{Entries: []DeltaEntry{
			{Action: DeltaCreate, SKU: "NEW-1"},
			{Action: DeltaAction("merge"), SKU: "WIDGET-1"},
		}})
		require.NoError(t, err)

		assert.Equal(t, syncdomain.JobStatusCompleted, job.Status)
		assert.Equal(t, 2, job.ErrorCount)
		assert.Equal(t, 0, job.ProcessedItems)
	})

	t.Run("delta tokens carry lineage and stay monotonic under clock skew", func(t *testing.T) {
		f := newSyncFixture()
		instant := time.Now()
		svc := f.service(ReconciliationConfig{}, shared.FixedClock{Instant: instant})
		listID := seed(t, f, svc)

		// Previous token ahead of the clock: the next token must still advance.
		prev := "dt-" + strconv.FormatInt(instant.UnixNano()+5, 10)
		update := itemRow("WIDGET-1", "51")
		job, err := svc.ApplyDelta(ctx, f.tenantID, listID, DeltaBatch{
			PrevToken: prev,
			Entries:   []DeltaEntry{{Action: DeltaUpdate, SKU: "WIDGET-1", Data: &update}},
		})
		require.NoError(t, err)

		assert.Equal(t, prev, job.PrevDeltaToken)
		assert.Equal(t, "dt-"+strconv.FormatInt(instant.UnixNano()+6, 10), job.DeltaToken)
	})

	t.Run("first delta without a previous token uses the clock", func(t *testing.T) {
		f := newSyncFixture()
		instant := time.Now()
		svc := f.service(ReconciliationConfig{}, shared.FixedClock{Instant: instant})
		listID := seed(t, f, svc)

		update := itemRow("WIDGET-1", "51")
		job, err := svc.ApplyDelta(ctx, f.tenantID, listID, DeltaBatch{
			Entries: []DeltaEntry{{Action: DeltaUpdate, SKU: "WIDGET-1", Data: &update}},
		})
		require.NoError(t, err)
		assert.Equal(t, "dt-"+strconv.FormatInt(instant.UnixNano(), 10), job.DeltaToken)
	})

	t.Run("replaying a consumed token returns the prior job untouched", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)
		listID := seed(t, f, svc)

		create := itemRow("NEW-2", "10")
		first, err := svc.ApplyDelta(ctx, f.tenantID, listID, DeltaBatch{
			PrevToken: "dt-42",
			Entries:   []DeltaEntry{{Action: DeltaCreate, SKU: "NEW-2", Data: &create}},
		})
		require.NoError(t, err)
		require.Equal(t, syncdomain.JobStatusCompleted, first.Status)

		other := itemRow("NEW-3", "10")
		replay, err := svc.ApplyDelta(ctx, f.tenantID, listID, DeltaBatch{
			PrevToken: "dt-42",
			Entries:   []DeltaEntry{{Action: DeltaCreate, SKU: "NEW-3", Data: &other}},
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, replay.ID)
		_, err = f.itemRepo.FindBySKU(ctx, f.tenantID, listID, "NEW-3")
		assert.ErrorIs(t, err, shared.ErrNotFound, "replayed batch must not be applied")
	})

	t.Run("unknown list fails the request", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		update := itemRow("WIDGET-1", "51")
		_, err := svc.ApplyDelta(ctx, f.tenantID, uuid.New(), DeltaBatch{
			Entries: []DeltaEntry{{Action: DeltaUpdate, SKU: "WIDGET-1", Data: &update}},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	claimed := func(t *testing.T, f *syncFixture, listID uuid.UUID) *syncdomain.SyncJob {
		t.Helper()
		job, err := syncdomain.NewSyncJob(f.tenantID, listID, syncdomain.JobTypeFull)
		require.NoError(t, err)
		require.NoError(t, f.jobRepo.Save(ctx, job))
		require.NoError(t, job.Start())
		require.NoError(t, f.jobRepo.Save(ctx, job))
		return job
	}

	t.Run("fetches the payload and completes the job", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		first, err := svc.ImportFull(ctx, f.tenantID, payloadFor("FEED", itemRow("WIDGET-1", "50")))
		require.NoError(t, err)
		f.source.payloads[first.PriceListID] = payloadFor("FEED",
			itemRow("WIDGET-1", "55"), itemRow("WIDGET-2", "60"))

		job := claimed(t, f, first.PriceListID)
		require.NoError(t, svc.Execute(ctx, job))

		assert.Equal(t, syncdomain.JobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.CreatedItems)
		assert.Equal(t, 1, job.UpdatedItems)
	})

	t.Run("missing payload source fails the job", func(t *testing.T) {
		f := newSyncFixture()
		svc := NewReconciliationService(f.listRepo, f.itemRepo, f.jobRepo, nil, nil, ReconciliationConfig{}, nil)

		first, err := f.service(ReconciliationConfig{}, nil).ImportFull(ctx, f.tenantID, payloadFor("FEED", itemRow("WIDGET-1", "50")))
		require.NoError(t, err)

		job := claimed(t, f, first.PriceListID)
		require.NoError(t, svc.Execute(ctx, job))

		assert.Equal(t, syncdomain.JobStatusFailed, job.Status)
		require.Len(t, job.Errors, 1)
		assert.Equal(t, "BATCH_ERROR", job.Errors[0].Code)
	})

	t.Run("refuses non-full jobs", func(t *testing.T) {
		f := newSyncFixture()
		svc := f.service(ReconciliationConfig{}, nil)

		job, err := syncdomain.NewSyncJob(f.tenantID, uuid.New(), syncdomain.JobTypeDelta)
		require.NoError(t, err)
		require.NoError(t, f.jobRepo.Save(ctx, job))
		require.NoError(t, job.Start())

		require.NoError(t, svc.Execute(ctx, job))
		assert.Equal(t, syncdomain.JobStatusFailed, job.Status)
	})
}
