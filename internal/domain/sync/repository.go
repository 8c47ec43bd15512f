package sync

import (
	"context"

	"github.com/google/uuid"
)

// SyncJobRepository defines the persistence contract for sync jobs
type SyncJobRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SyncJob, error)
	// FindActiveForPriceList returns the pending or running job for the list,
	// or shared.ErrNotFound if none exists
	FindActiveForPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) (*SyncJob, error)
	// ClaimNextPending atomically claims the oldest pending job and transitions
	// it to running, or returns shared.ErrNotFound when the queue is empty
	ClaimNextPending(ctx context.Context) (*SyncJob, error)
	// FindCompletedDeltaByPrevToken finds a completed delta job for the list
	// that already consumed the given previous token (replay detection)
	FindCompletedDeltaByPrevToken(ctx context.Context, tenantID, priceListID uuid.UUID, prevToken string) (*SyncJob, error)
	FindByPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) ([]SyncJob, error)
	Save(ctx context.Context, job *SyncJob) error
}
