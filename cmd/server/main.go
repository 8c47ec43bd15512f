package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	currencyapp "github.com/erp/pricing/internal/application/currency"
	pricingapp "github.com/erp/pricing/internal/application/pricing"
	syncapp "github.com/erp/pricing/internal/application/sync"
	"github.com/erp/pricing/internal/domain/currency"
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/infrastructure/cache"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/feed"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/persistence"
	"github.com/erp/pricing/internal/interfaces/http/handler"
	"github.com/erp/pricing/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting pricing engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	listRepo := persistence.NewGormPriceListRepository(db.DB)
	itemRepo := persistence.NewGormPriceListItemRepository(db.DB)
	overrideRepo := persistence.NewGormPriceOverrideRepository(db.DB)
	assignmentRepo := persistence.NewGormCustomerPriceAssignmentRepository(db.DB)
	rateRepo := persistence.NewGormExchangeRateRepository(db.DB)
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)

	// Exchange rate cache: Redis when configured, in-process otherwise
	var rateCache currency.RateCache
	var closeCache func()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		rateCache = cache.NewRedisRateCache(redisClient)
		closeCache = func() { _ = redisClient.Close() }
		log.Info("Using Redis rate cache", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memCache := cache.NewInMemoryRateCache(cfg.RateCache.CleanupInterval)
		rateCache = memCache
		closeCache = memCache.Close
		log.Info("Using in-memory rate cache")
	}
	defer closeCache()

	// Currency services
	baseCurrency := valueobject.Currency(cfg.Pricing.BaseCurrency)
	converter := currencyapp.NewConverter(rateRepo, rateCache, baseCurrency, cfg.RateCache.TTL, log)
	rateService := currencyapp.NewRateService(rateRepo, rateCache, log)

	// Price resolution engine
	engineCfg := pricingapp.DefaultEngineConfig()
	engineCfg.BreakMode = pricingapp.BreakPricingMode(cfg.Pricing.BreakMode)
	engineCfg.MinimumMarginPercent = decimal.NewFromFloat(cfg.Pricing.MinimumMarginPercent)
	engineCfg.AllowBelowCostPricing = cfg.Pricing.AllowBelowCostPricing
	engineCfg.DefaultRounding = pricing.RoundingRule(cfg.Pricing.DefaultRounding)
	engineCfg.DefaultPrecision = cfg.Pricing.DefaultPrecision
	if err := engineCfg.Validate(); err != nil {
		log.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	aggregator := pricingapp.NewSourceAggregator(listRepo, itemRepo, assignmentRepo, engineCfg.ResolutionOrder, log)
	overrides := pricingapp.NewOverrideEvaluator(overrideRepo)
	breaks := pricingapp.NewQuantityBreakResolver(engineCfg.BreakMode)
	engine := pricingapp.NewResolutionEngine(aggregator, overrides, breaks, converter, nil, engineCfg, log)

	// Reconciliation sync
	var payloadSource syncapp.PayloadSource
	if cfg.Sync.SourceURL != "" {
		source, err := feed.NewHTTPPayloadSource(cfg.Sync.SourceURL, cfg.Sync.SourceTimeout, log)
		if err != nil {
			log.Fatal("Invalid sync source configuration", zap.Error(err))
		}
		payloadSource = source
		log.Info("Using upstream price feed", zap.String("url", cfg.Sync.SourceURL))
	}
	recon := syncapp.NewReconciliationService(
		listRepo, itemRepo, jobRepo, payloadSource, nil,
		syncapp.ReconciliationConfig{BatchSize: cfg.Sync.BatchSize},
		log,
	)
	jobService := syncapp.NewJobService(jobRepo, log)
	scheduler := syncapp.NewBatchScheduler(listRepo, jobRepo, recon, syncapp.SchedulerConfig{
		MaxConcurrentSyncs: cfg.Sync.MaxConcurrentSyncs,
		PollInterval:       cfg.Sync.PollInterval,
	}, log)

	if cfg.Sync.WorkersEnabled {
		if payloadSource == nil {
			log.Warn("Sync workers enabled without sync.source_url, scheduled jobs will fail")
		}
		scheduler.Start(context.Background())
		defer scheduler.Stop()
	}

	// HTTP
	engineHTTP := router.New(router.Config{
		Logger:         log,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		System:       handler.NewSystemHandler(db),
		Pricing:      handler.NewPricingHandler(engine),
		PriceList:    handler.NewPriceListHandler(recon),
		Sync:         handler.NewSyncHandler(jobService, scheduler),
		ExchangeRate: handler.NewExchangeRateHandler(rateService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engineHTTP,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
