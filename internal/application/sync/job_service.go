package syncapp

import (
	"context"

	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobService exposes sync job inspection and cancellation
type JobService struct {
	jobRepo syncdomain.SyncJobRepository
	logger  *zap.Logger
}

// NewJobService creates a new JobService
func NewJobService(jobRepo syncdomain.SyncJobRepository, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{jobRepo: jobRepo, logger: logger}
}

// GetJob returns the job scoped to the tenant
func (s *JobService) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*syncdomain.SyncJob, error) {
	return s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
}

// ListJobs returns the sync history of a price list, newest first
func (s *JobService) ListJobs(ctx context.Context, tenantID, priceListID uuid.UUID) ([]syncdomain.SyncJob, error) {
	return s.jobRepo.FindByPriceList(ctx, tenantID, priceListID)
}

// CancelJob requests cancellation of a pending or running job.
// Running jobs observe the request at their next batch boundary.
func (s *JobService) CancelJob(ctx context.Context, tenantID, jobID uuid.UUID) (*syncdomain.SyncJob, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if err := job.Cancel(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("sync job cancelled",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	return job, nil
}
