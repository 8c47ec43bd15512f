package handler

import (
	"time"

	currencyapp "github.com/erp/pricing/internal/application/currency"
	"github.com/erp/pricing/internal/domain/currency"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ExchangeRateHandler exposes exchange rate write endpoints
type ExchangeRateHandler struct {
	BaseHandler
	rates *currencyapp.RateService
}

// NewExchangeRateHandler creates a new ExchangeRateHandler
func NewExchangeRateHandler(rates *currencyapp.RateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{rates: rates}
}

// UpsertRateRequest is the body of a rate upsert
type UpsertRateRequest struct {
	SourceCurrency string          `json:"source_currency" binding:"required,len=3"`
	TargetCurrency string          `json:"target_currency" binding:"required,len=3"`
	RateType       string          `json:"rate_type"`
	Rate           decimal.Decimal `json:"rate" binding:"required"`
	EffectiveFrom  *time.Time      `json:"effective_from,omitempty"`
	EffectiveTo    *time.Time      `json:"effective_to,omitempty"`
}

// Upsert handles POST /api/v1/exchange-rates
func (h *ExchangeRateHandler) Upsert(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Valid tenant required")
		return
	}

	var req UpsertRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rateType := currency.RateType(req.RateType)
	if req.RateType == "" {
		rateType = currency.RateSpot
	}
	effectiveFrom := time.Now()
	if req.EffectiveFrom != nil {
		effectiveFrom = *req.EffectiveFrom
	}

	rate, err := h.rates.UpsertRate(
		c.Request.Context(),
		tenantID,
		valueobject.Currency(req.SourceCurrency),
		valueobject.Currency(req.TargetCurrency),
		rateType,
		req.Rate,
		effectiveFrom,
		req.EffectiveTo,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}
