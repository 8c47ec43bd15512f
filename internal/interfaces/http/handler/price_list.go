package handler

import (
	syncapp "github.com/erp/pricing/internal/application/sync"
	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PriceListHandler exposes price list import endpoints
type PriceListHandler struct {
	BaseHandler
	recon *syncapp.ReconciliationService
}

// NewPriceListHandler creates a new PriceListHandler
func NewPriceListHandler(recon *syncapp.ReconciliationService) *PriceListHandler {
	return &PriceListHandler{recon: recon}
}

// ImportFull handles POST /api/v1/price-lists/import
func (h *PriceListHandler) ImportFull(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}

	var payload syncapp.ImportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Invalid import payload: "+err.Error())
		return
	}

	job, err := h.recon.ImportFull(c.Request.Context(), tenantID, &payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// ApplyDelta handles POST /api/v1/price-lists/:id/delta
func (h *PriceListHandler) ApplyDelta(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid price list ID")
		return
	}
	priceListID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid price list ID")
		return
	}

	var batch syncapp.DeltaBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.BadRequest(c, "Invalid delta batch: "+err.Error())
		return
	}

	job, err := h.recon.ApplyDelta(c.Request.Context(), tenantID, priceListID, batch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}
