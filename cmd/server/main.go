package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/configurator/internal"
	"github.com/dukerupert/configurator/internal/cart"
	"github.com/dukerupert/configurator/internal/catalog"
	"github.com/dukerupert/configurator/internal/configurator"
	"github.com/dukerupert/configurator/internal/domain"
	"github.com/dukerupert/configurator/internal/handler"
	"github.com/dukerupert/configurator/internal/handler/storefront"
	"github.com/dukerupert/configurator/internal/jobs"
	"github.com/dukerupert/configurator/internal/middleware"
	"github.com/dukerupert/configurator/internal/postgres"
	"github.com/dukerupert/configurator/internal/priceclient"
	"github.com/dukerupert/configurator/internal/router"
	"github.com/dukerupert/configurator/internal/routes"
	"github.com/dukerupert/configurator/internal/telemetry"
	"github.com/dukerupert/configurator/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Sentry error tracking
	sentryCleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer sentryCleanup()

	// ==========================================================================
	// Catalog
	// ==========================================================================

	var store domain.CatalogStore
	switch cfg.CatalogSource {
	case internal.CatalogSourcePostgres:
		pool, err := openDatabase(ctx, cfg.DatabaseUrl, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewCatalogStore(pool)

	default:
		fileStore, err := catalog.NewFileStore(cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		if cfg.Env == "dev" {
			fileStore.Watch(logger)
		}
		store = fileStore
		logger.Info("Catalog loaded", "file", cfg.CatalogFile, "products", fileStore.Len())
	}

	// ==========================================================================
	// Cart hand-off
	// ==========================================================================

	var publisher domain.CartPublisher = cart.NewLogPublisher(logger)
	if cfg.Cart.NATSURL != "" {
		nc, err := cart.Connect(cfg.Cart.NATSURL, "configurator", logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer nc.Drain()
		publisher = cart.NewNATSPublisher(nc, cfg.Cart.Subject, logger)
		logger.Info("Publishing cart lines to NATS", "subject", cfg.Cart.Subject)
	} else {
		logger.Warn("NATS_URL not set, cart lines are only logged")
	}

	// ==========================================================================
	// Sessions
	// ==========================================================================

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics("configurator", registry)
	configuratorMetrics := telemetry.NewConfiguratorMetrics("configurator", registry)

	prices := priceclient.New(cfg.PriceService.URL,
		priceclient.WithTimeout(cfg.PriceService.Timeout),
		priceclient.WithLogger(logger),
	)

	manager := configurator.NewManager(store, prices, configurator.Options{
		SettleWindow: cfg.Session.SettleWindow,
		TTL:          cfg.Session.TTL,
		Logger:       logger,
		Metrics:      configuratorMetrics,
		OnPriceError: telemetry.PriceErrorReporter(logger),
	})
	defer manager.CloseAll()

	openLimiter := middleware.NewRateLimiter(middleware.SessionOpenRateLimiterConfig())

	bg := worker.NewWorker(worker.Config{PollInterval: cfg.Session.SweepInterval}, logger,
		&jobs.SweepSessions{Sessions: manager},
		&jobs.PruneRateLimits{Limiter: openLimiter},
	)
	go func() {
		if err := bg.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped", "error", err)
		}
	}()

	// ==========================================================================
	// HTTP
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	r := router.New(
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		middleware.RequestID,
		router.Logger(logger),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.WithRequestLogger(logger),
	)

	routes.RegisterConfiguratorRoutes(r, routes.ConfiguratorDeps{
		Handler:   storefront.NewConfiguratorHandler(manager, publisher, 0, logger),
		OpenLimit: openLimiter.Middleware,
		BodyLimit: middleware.MaxBodySize(),
	})
	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health: func(w http.ResponseWriter, req *http.Request) {
			handler.JSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"sessions": manager.Len(),
			})
		},
		Metrics: httpMetrics.Handler(),
	})

	var h http.Handler = r
	if origins := router.SplitOrigins(cfg.CORSOrigins); len(origins) > 0 {
		h = router.Wrap(r, router.CORS(origins))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting configurator server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// openDatabase migrates the schema over database/sql and returns the pgx
// pool the catalog store reads through.
func openDatabase(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
