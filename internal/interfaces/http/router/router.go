package router

import (
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/interfaces/http/handler"
	"github.com/erp/pricing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	Logger         *zap.Logger
	MaxBodySize    int64
	TrustedProxies []string
}

// Handlers bundles all route handlers
type Handlers struct {
	System       *handler.SystemHandler
	Pricing      *handler.PricingHandler
	PriceList    *handler.PriceListHandler
	Sync         *handler.SyncHandler
	ExchangeRate *handler.ExchangeRateHandler
}

// New builds the gin engine with all middleware and routes
func New(cfg Config, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	_ = r.SetTrustedProxies(cfg.TrustedProxies)

	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))
	r.Use(logger.Recovery(log))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	r.GET("/health", h.System.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware())
	{
		api.POST("/pricing/calculate", h.Pricing.Calculate)

		api.POST("/price-lists/import", h.PriceList.ImportFull)
		api.POST("/price-lists/:id/delta", h.PriceList.ApplyDelta)
		api.GET("/price-lists/:id/sync-jobs", h.Sync.ListJobs)

		api.POST("/sync/batch", h.Sync.ScheduleBatch)
		api.GET("/sync/jobs/:id", h.Sync.GetJob)
		api.POST("/sync/jobs/:id/cancel", h.Sync.CancelJob)

		api.POST("/exchange-rates", h.ExchangeRate.Upsert)
	}

	return r
}
