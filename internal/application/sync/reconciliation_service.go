package syncapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBatchSize bounds how many items are processed between
// cancellation checkpoints
const DefaultBatchSize = 100

const deltaTokenPrefix = "dt-"

// PayloadSource fetches the full external payload for a price list.
// Scheduled full sync jobs use it to obtain their input.
type PayloadSource interface {
	FetchPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) (*ImportPayload, error)
}

// ReconciliationConfig tunes the reconciliation run
type ReconciliationConfig struct {
	BatchSize int
}

// ReconciliationService reconciles external price feeds into price lists.
// Full imports upsert every item of a payload; delta imports apply
// incremental create/update/delete entries. Every run is tracked by a
// SyncJob with per-item soft errors and change statistics.
type ReconciliationService struct {
	listRepo pricing.PriceListRepository
	itemRepo pricing.PriceListItemRepository
	jobRepo  syncdomain.SyncJobRepository
	source   PayloadSource
	validate *validator.Validate
	clock    shared.Clock
	cfg      ReconciliationConfig
	logger   *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService.
// The payload source may be nil when scheduled full syncs are not used.
func NewReconciliationService(
	listRepo pricing.PriceListRepository,
	itemRepo pricing.PriceListItemRepository,
	jobRepo syncdomain.SyncJobRepository,
	source PayloadSource,
	clock shared.Clock,
	cfg ReconciliationConfig,
	logger *zap.Logger,
) *ReconciliationService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		listRepo: listRepo,
		itemRepo: itemRepo,
		jobRepo:  jobRepo,
		source:   source,
		validate: validator.New(),
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// ImportFull runs a full import of the payload into the price list named by
// its code, creating the list if it does not exist. Returns the finished
// job; per-item failures complete the job with soft errors rather than
// failing it.
func (s *ReconciliationService) ImportFull(ctx context.Context, tenantID uuid.UUID, payload *ImportPayload) (*syncdomain.SyncJob, error) {
	if payload == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Import payload is required")
	}
	if err := s.validate.Struct(payload); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	list, err := s.findOrCreateList(ctx, tenantID, payload.PriceList)
	if err != nil {
		return nil, err
	}
	job, err := s.createJob(ctx, tenantID, list.ID, syncdomain.JobTypeFull)
	if err != nil {
		return nil, err
	}
	if err := s.startJob(ctx, job); err != nil {
		return nil, err
	}

	s.runFull(ctx, job, list, payload)
	return job, nil
}

// Execute runs an already claimed full sync job by fetching its payload
// from the configured source. Used by the batch scheduler's workers.
func (s *ReconciliationService) Execute(ctx context.Context, job *syncdomain.SyncJob) error {
	if job.JobType != syncdomain.JobTypeFull {
		return s.failJob(ctx, job, syncdomain.SyncError{
			Code:    "BATCH_ERROR",
			Message: "scheduler can only execute full sync jobs",
		})
	}
	if s.source == nil {
		return s.failJob(ctx, job, syncdomain.SyncError{
			Code:    "BATCH_ERROR",
			Message: "no payload source configured",
		})
	}

	list, err := s.listRepo.FindByIDForTenant(ctx, job.TenantID, job.PriceListID)
	if err != nil {
		return s.failJob(ctx, job, syncdomain.SyncError{
			Code:    "BATCH_ERROR",
			Message: fmt.Sprintf("price list lookup failed: %v", err),
		})
	}
	payload, err := s.source.FetchPriceList(ctx, job.TenantID, job.PriceListID)
	if err != nil {
		return s.failJob(ctx, job, syncdomain.SyncError{
			Code:    "BATCH_ERROR",
			Message: fmt.Sprintf("payload fetch failed: %v", err),
		})
	}
	if err := s.validate.Struct(payload); err != nil {
		return s.failJob(ctx, job, syncdomain.SyncError{
			Code:    "BATCH_ERROR",
			Message: fmt.Sprintf("payload validation failed: %v", err),
		})
	}

	s.runFull(ctx, job, list, payload)
	return nil
}

// ApplyDelta applies an incremental batch of entries against the price list.
// A batch whose previous token was already consumed by a completed delta job
// is a replay: the prior job is returned unchanged and nothing is re-applied.
func (s *ReconciliationService) ApplyDelta(ctx context.Context, tenantID, priceListID uuid.UUID, batch DeltaBatch) (*syncdomain.SyncJob, error) {
	if err := s.validate.Struct(&batch); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	list, err := s.listRepo.FindByIDForTenant(ctx, tenantID, priceListID)
	if err != nil {
		return nil, err
	}

	if batch.PrevToken != "" {
		prior, err := s.jobRepo.FindCompletedDeltaByPrevToken(ctx, tenantID, priceListID, batch.PrevToken)
		if err == nil {
			s.logger.Info("delta batch replay detected",
				zap.String("tenant_id", tenantID.String()),
				zap.String("price_list_id", priceListID.String()),
				zap.String("prev_token", batch.PrevToken),
				zap.String("job_id", prior.ID.String()),
			)
			return prior, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	job, err := s.createJob(ctx, tenantID, list.ID, syncdomain.JobTypeDelta)
	if err != nil {
		return nil, err
	}
	job.SetDeltaTokens(batch.PrevToken, s.nextDeltaToken(batch.PrevToken))
	if err := s.startJob(ctx, job); err != nil {
		return nil, err
	}

	s.runDelta(ctx, job, list, batch.Entries)
	return job, nil
}

// findOrCreateList resolves the target list by code, creating and
// activating it from the payload header when absent
func (s *ReconciliationService) findOrCreateList(ctx context.Context, tenantID uuid.UUID, header ImportPriceList) (*pricing.PriceList, error) {
	list, err := s.listRepo.FindByCode(ctx, tenantID, header.Code)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	listType := header.Type
	if listType == "" {
		listType = pricing.TypeStandard
	}
	effectiveFrom := header.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = s.clock.Now()
	}
	list, err = pricing.NewPriceList(tenantID, header.Code, header.Name, listType, header.Currency, header.Priority, effectiveFrom)
	if err != nil {
		return nil, err
	}
	if header.EffectiveTo != nil {
		if err := list.SetEffectiveWindow(effectiveFrom, header.EffectiveTo); err != nil {
			return nil, err
		}
	}
	if err := list.Activate(); err != nil {
		return nil, err
	}
	if err := s.listRepo.Save(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Info("price list created from import payload",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", list.Code),
	)
	return list, nil
}

// createJob creates a pending job unless the list already has an active one
func (s *ReconciliationService) createJob(ctx context.Context, tenantID, priceListID uuid.UUID, jobType syncdomain.JobType) (*syncdomain.SyncJob, error) {
	active, err := s.jobRepo.FindActiveForPriceList(ctx, tenantID, priceListID)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Sync job %s is already active for this price list", active.ID))
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	job, err := syncdomain.NewSyncJob(tenantID, priceListID, jobType)
	if err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *ReconciliationService) startJob(ctx context.Context, job *syncdomain.SyncJob) error {
	if err := job.Start(); err != nil {
		return err
	}
	return s.jobRepo.Save(ctx, job)
}

// runFull processes the payload items in batches, upserting each item and
// classifying its price movement. Checks for an external cancel request at
// every batch boundary. A panic or infrastructure error fails the job.
func (s *ReconciliationService) runFull(ctx context.Context, job *syncdomain.SyncJob, list *pricing.PriceList, payload *ImportPayload) {
	defer s.recoverBatch(ctx, job)

	stats := &changeStats{}
	totals := syncdomain.JobTotals{Total: len(payload.Items)}
	var errs syncdomain.SyncErrors

	for start := 0; start < len(payload.Items); start += s.cfg.BatchSize {
		cancelled, err := s.checkpoint(ctx, job)
		if err != nil {
			s.abortBatch(ctx, job, err)
			return
		}
		if cancelled {
			s.logger.Info("sync job cancelled at batch boundary",
				zap.String("job_id", job.ID.String()),
				zap.Int("processed", totals.Processed),
			)
			return
		}

		end := start + s.cfg.BatchSize
		if end > len(payload.Items) {
			end = len(payload.Items)
		}
		for i := start; i < end; i++ {
			row := payload.Items[i]
			outcome, err := s.upsertItem(ctx, job.TenantID, list, row)
			if err != nil {
				var de *shared.DomainError
				if errors.As(err, &de) {
					errs = append(errs, syncdomain.SyncError{SKU: row.SKU, Code: de.Code, Message: de.Message})
					continue
				}
				s.abortBatch(ctx, job, err)
				return
			}
			totals.Processed++
			switch {
			case outcome.created:
				totals.Created++
			case outcome.changed:
				totals.Updated++
				stats.record(outcome.sku, outcome.previousPrice, outcome.newPrice)
			default:
				totals.Unchanged++
				stats.record(outcome.sku, outcome.previousPrice, outcome.newPrice)
			}
		}
	}

	s.completeJob(ctx, job, totals, errs, stats.summary())
}

// runDelta applies the entries one by one, collecting per-entry validation
// failures as soft errors. Deleting an absent or already inactive item is a
// counted no-op, not an error.
func (s *ReconciliationService) runDelta(ctx context.Context, job *syncdomain.SyncJob, list *pricing.PriceList, entries []DeltaEntry) {
	defer s.recoverBatch(ctx, job)

	stats := &changeStats{}
	totals := syncdomain.JobTotals{Total: len(entries)}
	var errs syncdomain.SyncErrors

	for start := 0; start < len(entries); start += s.cfg.BatchSize {
		cancelled, err := s.checkpoint(ctx, job)
		if err != nil {
			s.abortBatch(ctx, job, err)
			return
		}
		if cancelled {
			s.logger.Info("sync job cancelled at batch boundary",
				zap.String("job_id", job.ID.String()),
				zap.Int("processed", totals.Processed),
			)
			return
		}

		end := start + s.cfg.BatchSize
		if end > len(entries) {
			end = len(entries)
		}
		for i := start; i < end; i++ {
			entry := entries[i]
			if softErr := s.applyEntry(ctx, job.TenantID, list, entry, &totals, stats); softErr != nil {
				var de *shared.DomainError
				if errors.As(softErr, &de) {
					errs = append(errs, syncdomain.SyncError{SKU: entry.SKU, Code: de.Code, Message: de.Message})
					continue
				}
				s.abortBatch(ctx, job, softErr)
				return
			}
		}
	}

	s.completeJob(ctx, job, totals, errs, stats.summary())
}

// applyEntry routes one delta entry. Returned domain errors are collected
// as soft per-entry errors by the caller.
func (s *ReconciliationService) applyEntry(ctx context.Context, tenantID uuid.UUID, list *pricing.PriceList, entry DeltaEntry, totals *syncdomain.JobTotals, stats *changeStats) error {
	if !entry.Action.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid delta action: "+string(entry.Action))
	}

	switch entry.Action {
	case DeltaCreate, DeltaUpdate:
		if entry.Data == nil {
			return shared.NewDomainError("INVALID_INPUT", "Delta entry requires item data for "+string(entry.Action))
		}
		row := *entry.Data
		if row.SKU == "" {
			row.SKU = entry.SKU
		}
		outcome, err := s.upsertItem(ctx, tenantID, list, row)
		if err != nil {
			return err
		}
		totals.Processed++
		switch {
		case outcome.created:
			totals.Created++
		case outcome.changed:
			totals.Updated++
			stats.record(outcome.sku, outcome.previousPrice, outcome.newPrice)
		default:
			totals.Unchanged++
			stats.record(outcome.sku, outcome.previousPrice, outcome.newPrice)
		}
		return nil

	case DeltaDelete:
		sku := strings.ToUpper(strings.TrimSpace(entry.SKU))
		item, err := s.itemRepo.FindBySKU(ctx, tenantID, list.ID, sku)
		if errors.Is(err, shared.ErrNotFound) {
			totals.Processed++
			totals.Unchanged++
			return nil
		}
		if err != nil {
			return err
		}
		totals.Processed++
		if !item.IsActive {
			totals.Unchanged++
			return nil
		}
		item.Deactivate()
		if err := s.itemRepo.Save(ctx, item); err != nil {
			return err
		}
		totals.Deactivated++
		return nil
	}
	return nil
}

// itemOutcome reports what one upsert did to the item
type itemOutcome struct {
	sku           string
	created       bool
	changed       bool
	previousPrice decimal.Decimal
	newPrice      decimal.Decimal
}

// upsertItem inserts or replaces the row's item within the list.
// Updating an inactive item reactivates it.
func (s *ReconciliationService) upsertItem(ctx context.Context, tenantID uuid.UUID, list *pricing.PriceList, row ImportItem) (itemOutcome, error) {
	sku := strings.ToUpper(strings.TrimSpace(row.SKU))
	if sku == "" {
		return itemOutcome{}, shared.NewDomainError("INVALID_INPUT", "SKU cannot be empty")
	}

	existing, err := s.itemRepo.FindBySKU(ctx, tenantID, list.ID, sku)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return itemOutcome{}, err
	}

	item := existing
	created := existing == nil
	previous := decimal.Zero
	if created {
		item, err = pricing.NewPriceListItem(tenantID, list.ID, sku, row.BasePrice, row.ListPrice)
		if err != nil {
			return itemOutcome{}, err
		}
	} else {
		previous = existing.ListPrice
		if err := existing.UpdatePrices(row.BasePrice, row.ListPrice); err != nil {
			return itemOutcome{}, err
		}
		if !existing.IsActive {
			existing.Reactivate()
		}
	}

	if err := item.SetBounds(row.MinPrice, row.MaxPrice); err != nil {
		return itemOutcome{}, err
	}
	if err := item.SetCost(row.Cost); err != nil {
		return itemOutcome{}, err
	}
	if err := item.SetQuantityBreaks(row.QuantityBreaks); err != nil {
		return itemOutcome{}, err
	}
	if err := item.SetEffectiveWindow(row.EffectiveFrom, row.EffectiveTo); err != nil {
		return itemOutcome{}, err
	}

	if err := s.itemRepo.Upsert(ctx, item); err != nil {
		return itemOutcome{}, err
	}

	return itemOutcome{
		sku:           sku,
		created:       created,
		changed:       !created && !previous.Equal(item.ListPrice),
		previousPrice: previous,
		newPrice:      item.ListPrice,
	}, nil
}

// checkpoint reloads the job to detect an externally requested cancel.
// Context cancellation aborts the batch.
func (s *ReconciliationService) checkpoint(ctx context.Context, job *syncdomain.SyncJob) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fresh, err := s.jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		return false, err
	}
	if fresh.Status == syncdomain.JobStatusCancelled {
		*job = *fresh
		return true, nil
	}
	return false, nil
}

func (s *ReconciliationService) completeJob(ctx context.Context, job *syncdomain.SyncJob, totals syncdomain.JobTotals, errs syncdomain.SyncErrors, summary *syncdomain.Summary) {
	if err := job.Complete(totals, errs, summary); err != nil {
		s.logger.Error("failed to complete sync job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		s.logger.Error("failed to persist completed sync job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("sync job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.JobType)),
		zap.Int("processed", totals.Processed),
		zap.Int("created", totals.Created),
		zap.Int("updated", totals.Updated),
		zap.Int("deactivated", totals.Deactivated),
		zap.Int("errors", len(errs)),
	)
}

// abortBatch fails the job with a batch-level error
func (s *ReconciliationService) abortBatch(ctx context.Context, job *syncdomain.SyncJob, cause error) {
	if err := s.failJob(ctx, job, syncdomain.SyncError{
		Code:    "BATCH_ERROR",
		Message: cause.Error(),
	}); err != nil {
		s.logger.Error("failed to mark sync job as failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *ReconciliationService) failJob(ctx context.Context, job *syncdomain.SyncJob, batchErr syncdomain.SyncError) error {
	if err := job.Fail(batchErr); err != nil {
		return err
	}
	return s.jobRepo.Save(ctx, job)
}

// recoverBatch converts a panic during batch processing into a failed job
func (s *ReconciliationService) recoverBatch(ctx context.Context, job *syncdomain.SyncJob) {
	r := recover()
	if r == nil {
		return
	}
	s.logger.Error("sync batch panicked",
		zap.String("job_id", job.ID.String()),
		zap.Any("panic", r),
	)
	if !job.Status.IsTerminal() {
		s.abortBatch(ctx, job, fmt.Errorf("batch panicked: %v", r))
	}
}

// nextDeltaToken derives a token strictly after the previous one.
// Tokens carry a monotonic sequence so lineage survives clock skew.
func (s *ReconciliationService) nextDeltaToken(prevToken string) string {
	seq := s.clock.Now().UnixNano()
	if prev, err := strconv.ParseInt(strings.TrimPrefix(prevToken, deltaTokenPrefix), 10, 64); err == nil && prev >= seq {
		seq = prev + 1
	}
	return deltaTokenPrefix + strconv.FormatInt(seq, 10)
}
