package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadmarket_backend/internal/adapters"
	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/billing"
	"leadmarket_backend/internal/billing/pricing"
	"leadmarket_backend/internal/billing/processor"
	"leadmarket_backend/internal/catalog"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/geo"
	geoservice "leadmarket_backend/internal/geo/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/http/router"
	"leadmarket_backend/internal/leads"
	"leadmarket_backend/internal/notification"
	"leadmarket_backend/internal/notification/email"
	"leadmarket_backend/internal/notification/sink"
	"leadmarket_backend/internal/providers"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Per-country lead pricing is configuration, loaded once and injected.
	prices, err := pricing.LoadFile(cfg.GetPricingFile())
	if err != nil {
		log.Error("failed to load pricing file", "error", err, "file", cfg.GetPricingFile())
		panic("failed to load pricing file: " + err.Error())
	}
	log.Info("pricing loaded", "file", cfg.GetPricingFile(), "countries", prices.Countries())

	geoCache := initGeoCache(cfg, log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	webhookSink := sink.New(cfg)

	gateway := processor.New(cfg)
	if !cfg.IsPaymentEnabled() {
		log.Warn("PAYMENT_API_URL not configured; charges run against the noop processor")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	auditModule := audit.NewModule(pool, log)
	auditor := auditModule.Recorder()

	geoModule := geo.NewModule(pool, geoCache, auditor, val, log)
	catalogModule := catalog.NewModule(pool, auditor, val, log)
	providersModule := providers.NewModule(pool, auditor, cfg.GetDefaultPhoneRegion(), val, log)
	billingModule := billing.NewModule(pool, prices, gateway, eventBus, auditor, val, log)

	leadsModule := leads.NewModule(
		pool,
		adapters.NewLeadZoneResolver(geoModule.Service()),
		adapters.NewLeadCategoryChecker(catalogModule.Service()),
		adapters.NewLeadProviderDirectory(providersModule.Service()),
		adapters.NewLeadChargeProcessor(billingModule.Service()),
		eventBus,
		auditor,
		cfg.GetDefaultPhoneRegion(),
		val,
		log,
	)

	notificationModule := notification.NewModule(pool, sender, webhookSink, cfg, log)
	notificationModule.Subscribe(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			geoModule,
			catalogModule,
			providersModule,
			leadsModule,
			billingModule,
			auditModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initGeoCache builds the zone resolution cache. Without Redis the resolver
// goes straight to the store on every lookup.
func initGeoCache(cfg *config.Config, log *logger.Logger) geoservice.MatchCache {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; zone resolution cache disabled")
		return geoservice.NoopCache{}
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; zone resolution cache disabled", "error", err)
		return geoservice.NoopCache{}
	}
	return geoservice.NewRedisCache(redis.NewClient(opt), cfg.GetGeoCacheTTL(), log)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
