package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/shared"
	syncdomain "github.com/erp/pricing/internal/domain/sync"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncJobRepository implements SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// FindByID finds a sync job by its ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncJob, error) {
	var job syncdomain.SyncJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindByIDForTenant finds a sync job by ID within a tenant
func (r *GormSyncJobRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*syncdomain.SyncJob, error) {
	var job syncdomain.SyncJob
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindActiveForPriceList returns the pending or running job for the list
func (r *GormSyncJobRepository) FindActiveForPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) (*syncdomain.SyncJob, error) {
	var job syncdomain.SyncJob
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ? AND status IN ?",
			tenantID, priceListID, []syncdomain.JobStatus{syncdomain.JobStatusPending, syncdomain.JobStatusRunning}).
		Order("created_at ASC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ClaimNextPending atomically claims the oldest pending job and transitions
// it to running. Uses a row lock with SKIP LOCKED so concurrent workers never
// claim the same job.
func (r *GormSyncJobRepository) ClaimNextPending(ctx context.Context) (*syncdomain.SyncJob, error) {
	var claimed *syncdomain.SyncJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job syncdomain.SyncJob
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", syncdomain.JobStatusPending).
			Order("created_at ASC").
			First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := job.Start(); err != nil {
			return err
		}
		if err := tx.Save(&job).Error; err != nil {
			return err
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// FindCompletedDeltaByPrevToken finds a completed delta job for the list
// that already consumed the given previous token
func (r *GormSyncJobRepository) FindCompletedDeltaByPrevToken(ctx context.Context, tenantID, priceListID uuid.UUID, prevToken string) (*syncdomain.SyncJob, error) {
	var job syncdomain.SyncJob
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ? AND job_type = ? AND status = ? AND prev_delta_token = ?",
			tenantID, priceListID, syncdomain.JobTypeDelta, syncdomain.JobStatusCompleted, prevToken).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindByPriceList returns the sync history of a price list, newest first
func (r *GormSyncJobRepository) FindByPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) ([]syncdomain.SyncJob, error) {
	var jobs []syncdomain.SyncJob
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ?", tenantID, priceListID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Save creates or updates a sync job
func (r *GormSyncJobRepository) Save(ctx context.Context, job *syncdomain.SyncJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Ensure GormSyncJobRepository implements SyncJobRepository
var _ syncdomain.SyncJobRepository = (*GormSyncJobRepository)(nil)
