package syncapp

import (
	"context"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeList(t *testing.T, repo *fakeListRepo, tenantID uuid.UUID, code string) *pricing.PriceList {
	t.Helper()
	list, err := pricing.NewPriceList(tenantID, code, code, pricing.TypeStandard, valueobject.USD, 100, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, list.Activate())
	require.NoError(t, repo.Save(context.Background(), list))
	return list
}

func TestScheduleBatchSync(t *testing.T) {
	ctx := context.Background()

	t.Run("schedules one pending job per active list", func(t *testing.T) {
		f := newSyncFixture()
		a := activeList(t, f.listRepo, f.tenantID, "FEED-A")
		b := activeList(t, f.listRepo, f.tenantID, "FEED-B")

		scheduler := NewBatchScheduler(f.listRepo, f.jobRepo, f.service(ReconciliationConfig{}, nil), SchedulerConfig{}, nil)
		result, err := scheduler.ScheduleBatchSync(ctx, f.tenantID)
		require.NoError(t, err)

		assert.Len(t, result.ScheduledJobIDs, 2)
		assert.Equal(t, 0, result.Skipped)
		for _, listID := range []uuid.UUID{a.ID, b.ID} {
			job, err := f.jobRepo.FindActiveForPriceList(ctx, f.tenantID, listID)
			require.NoError(t, err)
			assert.Equal(t, syncdomain.JobStatusPending, job.Status)
			assert.Equal(t, syncdomain.JobTypeFull, job.JobType)
		}
	})

	t.Run("lists with an active job are skipped", func(t *testing.T) {
		f := newSyncFixture()
		activeList(t, f.listRepo, f.tenantID, "FEED-A")
		busy := activeList(t, f.listRepo, f.tenantID, "FEED-B")

		pending, err := syncdomain.NewSyncJob(f.tenantID, busy.ID, syncdomain.JobTypeFull)
		require.NoError(t, err)
		require.NoError(t, f.jobRepo.Save(ctx, pending))

		scheduler := NewBatchScheduler(f.listRepo, f.jobRepo, f.service(ReconciliationConfig{}, nil), SchedulerConfig{}, nil)
		result, err := scheduler.ScheduleBatchSync(ctx, f.tenantID)
		require.NoError(t, err)

		assert.Len(t, result.ScheduledJobIDs, 1)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("inactive lists are not scheduled", func(t *testing.T) {
		f := newSyncFixture()
		list := activeList(t, f.listRepo, f.tenantID, "FEED-A")
		require.NoError(t, list.Deactivate())

		scheduler := NewBatchScheduler(f.listRepo, f.jobRepo, f.service(ReconciliationConfig{}, nil), SchedulerConfig{}, nil)
		result, err := scheduler.ScheduleBatchSync(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Empty(t, result.ScheduledJobIDs)
	})
}

func TestSchedulerWorkerPool(t *testing.T) {
	ctx := context.Background()

	t.Run("drains the pending queue", func(t *testing.T) {
		f := newSyncFixture()
		a := activeList(t, f.listRepo, f.tenantID, "FEED-A")
		b := activeList(t, f.listRepo, f.tenantID, "FEED-B")
		f.source.payloads[a.ID] = payloadFor("FEED-A", itemRow("WIDGET-1", "50"))
		f.source.payloads[b.ID] = payloadFor("FEED-B", itemRow("WIDGET-2", "60"))

		recon := f.service(ReconciliationConfig{}, nil)
		scheduler := NewBatchScheduler(f.listRepo, f.jobRepo, recon,
			SchedulerConfig{MaxConcurrentSyncs: 1, PollInterval: 5 * time.Millisecond}, nil)

		result, err := scheduler.ScheduleBatchSync(ctx, f.tenantID)
		require.NoError(t, err)
		require.Len(t, result.ScheduledJobIDs, 2)

		scheduler.Start(ctx)
		defer scheduler.Stop()

		assert.Eventually(t, func() bool {
			for _, id := range result.ScheduledJobIDs {
				if f.jobRepo.get(id).Status != syncdomain.JobStatusCompleted {
					return false
				}
			}
			return true
		}, 2*time.Second, 10*time.Millisecond)

		assert.Equal(t, 2, f.itemRepo.count())
	})

	t.Run("a job without a payload fails without stopping the pool", func(t *testing.T) {
		f := newSyncFixture()
		broken := activeList(t, f.listRepo, f.tenantID, "FEED-A")
		healthy := activeList(t, f.listRepo, f.tenantID, "FEED-B")
		f.source.payloads[healthy.ID] = payloadFor("FEED-B", itemRow("WIDGET-1", "50"))
		_ = broken

		recon := f.service(ReconciliationConfig{}, nil)
		scheduler := NewBatchScheduler(f.listRepo, f.jobRepo, recon,
			SchedulerConfig{MaxConcurrentSyncs: 1, PollInterval: 5 * time.Millisecond}, nil)

		result, err := scheduler.ScheduleBatchSync(ctx, f.tenantID)
		require.NoError(t, err)
		require.Len(t, result.ScheduledJobIDs, 2)

		scheduler.Start(ctx)
		defer scheduler.Stop()

		assert.Eventually(t, func() bool {
			for _, id := range result.ScheduledJobIDs {
				if !f.jobRepo.get(id).Status.IsTerminal() {
					return false
				}
			}
			return true
		}, 2*time.Second, 10*time.Millisecond)

		statuses := map[syncdomain.JobStatus]int{}
		for _, id := range result.ScheduledJobIDs {
			statuses[f.jobRepo.get(id).Status]++
		}
		assert.Equal(t, 1, statuses[syncdomain.JobStatusCompleted])
		assert.Equal(t, 1, statuses[syncdomain.JobStatusFailed])
	})

	t.Run("start is idempotent and stop waits for workers", func(t *testing.T) {
		f := newSyncFixture()
		scheduler := NewBatchScheduler(f.listRepo, f.jobRepo, f.service(ReconciliationConfig{}, nil),
			SchedulerConfig{MaxConcurrentSyncs: 2, PollInterval: 5 * time.Millisecond}, nil)

		scheduler.Start(ctx)
		scheduler.Start(ctx)
		scheduler.Stop()
		// A second stop without a start is a no-op.
		scheduler.Stop()
	})
}
