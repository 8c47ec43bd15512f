package handler

import (
	syncapp "github.com/erp/pricing/internal/application/sync"
	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncHandler exposes sync job endpoints
type SyncHandler struct {
	BaseHandler
	jobs      *syncapp.JobService
	scheduler *syncapp.BatchScheduler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(jobs *syncapp.JobService, scheduler *syncapp.BatchScheduler) *SyncHandler {
	return &SyncHandler{jobs: jobs, scheduler: scheduler}
}

// ScheduleBatch handles POST /api/v1/sync/batch
func (h *SyncHandler) ScheduleBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}

	result, err := h.scheduler.ScheduleBatchSync(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, result)
}

// GetJob handles GET /api/v1/sync/jobs/:id
func (h *SyncHandler) GetJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}
	jobID, ok := h.parseJobID(c)
	if !ok {
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// CancelJob handles POST /api/v1/sync/jobs/:id/cancel
func (h *SyncHandler) CancelJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}
	jobID, ok := h.parseJobID(c)
	if !ok {
		return
	}

	job, err := h.jobs.CancelJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// ListJobs handles GET /api/v1/price-lists/:id/sync-jobs
func (h *SyncHandler) ListJobs(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}
	priceListID, ok := h.parseJobID(c)
	if !ok {
		return
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), tenantID, priceListID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, jobs)
}

func (h *SyncHandler) parseJobID(c *gin.Context) (uuid.UUID, bool) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}
