package sync

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobType distinguishes full imports from incremental delta imports
type JobType string

const (
	JobTypeFull  JobType = "full"
	JobTypeDelta JobType = "delta"
)

// IsValid checks if the job type is valid
func (t JobType) IsValid() bool {
	return t == JobTypeFull || t == JobTypeDelta
}

// JobStatus is the lifecycle status of a sync job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// SyncError is a soft per-item failure collected during a sync run
type SyncError struct {
	SKU     string `json:"sku,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SyncErrors is a JSON column of per-item errors
type SyncErrors []SyncError

// Value implements driver.Valuer
func (e SyncErrors) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (e *SyncErrors) Scan(value interface{}) error {
	if value == nil {
		*e = SyncErrors{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for SyncErrors")
	}
	if len(data) == 0 {
		*e = SyncErrors{}
		return nil
	}
	return json.Unmarshal(data, e)
}

// PriceMovement records the largest single price change seen during an import
type PriceMovement struct {
	SKU           string          `json:"sku"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Summary aggregates price change statistics for a completed sync job
type Summary struct {
	Increased       int            `json:"increased"`
	Decreased       int            `json:"decreased"`
	Unchanged       int            `json:"unchanged"`
	LargestIncrease *PriceMovement `json:"largest_increase,omitempty"`
	LargestDecrease *PriceMovement `json:"largest_decrease,omitempty"`
}

// Value implements driver.Valuer
func (s Summary) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (s *Summary) Scan(value interface{}) error {
	if value == nil {
		*s = Summary{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for Summary")
	}
	if len(data) == 0 {
		*s = Summary{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// SyncJob tracks one reconciliation run against a price list.
// Lifecycle: pending -> running -> completed|failed; pending|running -> cancelled.
// Terminal states are immutable.
type SyncJob struct {
	shared.TenantAggregateRoot
	PriceListID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	JobType          JobType    `gorm:"type:varchar(10);not null"`
	Status           JobStatus  `gorm:"type:varchar(15);not null;default:'pending';index"`
	TotalItems       int        `gorm:"not null;default:0"`
	ProcessedItems   int        `gorm:"not null;default:0"`
	CreatedItems     int        `gorm:"not null;default:0"`
	UpdatedItems     int        `gorm:"not null;default:0"`
	DeactivatedItems int        `gorm:"not null;default:0"`
	UnchangedItems   int        `gorm:"not null;default:0"`
	ErrorCount       int        `gorm:"not null;default:0"`
	PrevDeltaToken   string     `gorm:"type:varchar(100);index"`
	DeltaToken       string     `gorm:"type:varchar(100)"`
	Errors           SyncErrors `gorm:"type:jsonb"`
	Summary          *Summary   `gorm:"type:jsonb"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// TableName returns the table name for GORM
func (SyncJob) TableName() string {
	return "sync_jobs"
}

// NewSyncJob creates a new pending sync job for a price list
func NewSyncJob(tenantID, priceListID uuid.UUID, jobType JobType) (*SyncJob, error) {
	if !jobType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid sync job type: "+string(jobType))
	}
	if priceListID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Sync job requires a price list")
	}

	return &SyncJob{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PriceListID:         priceListID,
		JobType:             jobType,
		Status:              JobStatusPending,
		Errors:              SyncErrors{},
	}, nil
}

// Start transitions the job from pending to running
func (j *SyncJob) Start() error {
	if j.Status != JobStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start sync job from state: %s", j.Status))
	}
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// Complete finishes a running job with its totals and summary.
// Per-item errors do not prevent completion; the job completes with
// ErrorCount > 0.
func (j *SyncJob) Complete(totals JobTotals, errs SyncErrors, summary *Summary) error {
	if j.Status != JobStatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete sync job from state: %s", j.Status))
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.TotalItems = totals.Total
	j.ProcessedItems = totals.Processed
	j.CreatedItems = totals.Created
	j.UpdatedItems = totals.Updated
	j.DeactivatedItems = totals.Deactivated
	j.UnchangedItems = totals.Unchanged
	j.ErrorCount = len(errs)
	j.Errors = errs
	j.Summary = summary
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// Fail transitions the job to failed with a single batch-level error
func (j *SyncJob) Fail(batchErr SyncError) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail sync job from terminal state: %s", j.Status))
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.Errors = append(j.Errors, batchErr)
	j.ErrorCount = len(j.Errors)
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// Cancel requests cancellation of a pending or running job.
// Cancelling a terminal job is a state conflict, not silently ignored.
func (j *SyncJob) Cancel() error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel sync job in terminal state: %s", j.Status))
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// SetDeltaTokens records the token lineage of a delta run
func (j *SyncJob) SetDeltaTokens(prevToken, newToken string) {
	j.PrevDeltaToken = prevToken
	j.DeltaToken = newToken
	j.UpdatedAt = time.Now()
}

// JobTotals carries the item counters accumulated during a sync run
type JobTotals struct {
	Total       int
	Processed   int
	Created     int
	Updated     int
	Deactivated int
	Unchanged   int
}
