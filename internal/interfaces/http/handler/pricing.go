package handler

import (
	pricingapp "github.com/erp/pricing/internal/application/pricing"
	"github.com/gin-gonic/gin"
)

// PricingHandler exposes price calculation endpoints
type PricingHandler struct {
	BaseHandler
	engine *pricingapp.ResolutionEngine
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(engine *pricingapp.ResolutionEngine) *PricingHandler {
	return &PricingHandler{engine: engine}
}

// Calculate handles POST /api/v1/pricing/calculate
func (h *PricingHandler) Calculate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}

	var req pricingapp.PriceCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.TenantID = tenantID

	result, err := h.engine.Calculate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
