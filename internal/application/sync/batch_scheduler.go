package syncapp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SchedulerConfig tunes the batch sync worker pool
type SchedulerConfig struct {
	// MaxConcurrentSyncs bounds how many sync jobs run at once
	MaxConcurrentSyncs int
	// PollInterval is how often an idle worker polls the job queue
	PollInterval time.Duration
}

// DefaultSchedulerConfig returns the scheduler defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentSyncs: 4,
		PollInterval:       5 * time.Second,
	}
}

// BatchScheduleResult reports what a batch scheduling pass did
type BatchScheduleResult struct {
	ScheduledJobIDs []uuid.UUID `json:"scheduled_job_ids"`
	Skipped         int         `json:"skipped"`
}

// BatchScheduler creates pending full sync jobs for a tenant's active price
// lists and drains the pending queue with a bounded worker pool. Jobs are
// claimed in creation order, one list never syncs concurrently with itself.
type BatchScheduler struct {
	listRepo pricing.PriceListRepository
	jobRepo  syncdomain.SyncJobRepository
	recon    *ReconciliationService
	cfg      SchedulerConfig
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewBatchScheduler creates a new BatchScheduler
func NewBatchScheduler(
	listRepo pricing.PriceListRepository,
	jobRepo syncdomain.SyncJobRepository,
	recon *ReconciliationService,
	cfg SchedulerConfig,
	logger *zap.Logger,
) *BatchScheduler {
	if cfg.MaxConcurrentSyncs <= 0 {
		cfg.MaxConcurrentSyncs = DefaultSchedulerConfig().MaxConcurrentSyncs
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultSchedulerConfig().PollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchScheduler{
		listRepo: listRepo,
		jobRepo:  jobRepo,
		recon:    recon,
		cfg:      cfg,
		logger:   logger,
	}
}

// ScheduleBatchSync creates one pending full sync job per active price list.
// Lists that already have a pending or running job are skipped, not failed.
func (b *BatchScheduler) ScheduleBatchSync(ctx context.Context, tenantID uuid.UUID) (*BatchScheduleResult, error) {
	lists, err := b.listRepo.FindActiveForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &BatchScheduleResult{ScheduledJobIDs: make([]uuid.UUID, 0, len(lists))}
	for i := range lists {
		list := &lists[i]
		_, err := b.jobRepo.FindActiveForPriceList(ctx, tenantID, list.ID)
		if err == nil {
			result.Skipped++
			b.logger.Debug("skipping price list with active sync job",
				zap.String("tenant_id", tenantID.String()),
				zap.String("price_list_id", list.ID.String()),
			)
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}

		job, err := syncdomain.NewSyncJob(tenantID, list.ID, syncdomain.JobTypeFull)
		if err != nil {
			return nil, err
		}
		if err := b.jobRepo.Save(ctx, job); err != nil {
			return nil, err
		}
		result.ScheduledJobIDs = append(result.ScheduledJobIDs, job.ID)
	}

	b.logger.Info("batch sync scheduled",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("scheduled", len(result.ScheduledJobIDs)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Start launches the worker pool. Idempotent until Stop is called.
func (b *BatchScheduler) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	ctx, b.cancel = context.WithCancel(ctx)
	b.started = true

	for i := 0; i < b.cfg.MaxConcurrentSyncs; i++ {
		b.wg.Add(1)
		go b.worker(ctx, i)
	}
	b.logger.Info("sync worker pool started",
		zap.Int("workers", b.cfg.MaxConcurrentSyncs),
	)
}

// Stop signals the workers and waits for in-flight jobs to finish
func (b *BatchScheduler) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.started = false
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	b.wg.Wait()
	b.logger.Info("sync worker pool stopped")
}

// worker claims and executes pending jobs until the context is cancelled.
// An empty queue backs off for the poll interval; a drained job is followed
// immediately by the next claim.
func (b *BatchScheduler) worker(ctx context.Context, id int) {
	defer b.wg.Done()
	logger := b.logger.With(zap.Int("worker", id))

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := b.jobRepo.ClaimNextPending(ctx)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, context.Canceled) {
				logger.Warn("failed to claim pending sync job", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.cfg.PollInterval):
			}
			continue
		}

		logger.Info("claimed sync job",
			zap.String("job_id", job.ID.String()),
			zap.String("price_list_id", job.PriceListID.String()),
		)
		if err := b.recon.Execute(ctx, job); err != nil {
			logger.Error("sync job execution failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	}
}
