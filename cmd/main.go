package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"paygateway/internal/bootstrap"
	"paygateway/internal/config"
	cronpkg "paygateway/internal/cron"
	"paygateway/internal/events"
	"paygateway/internal/gateway"
	"paygateway/internal/metrics"
	"paygateway/internal/middleware"
	"paygateway/internal/models"
	"paygateway/internal/payment"
	"paygateway/internal/pkg/httpclient"
	"paygateway/internal/repository"
	"paygateway/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db, cfg.Wiretap.DefaultTap); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gatewayMetrics := metrics.NewGatewayMetrics(registry)

	// --- Events ---
	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	// --- Gateway ---
	transactions := repository.NewTransactionRepository(db)
	driver := payment.NewDriver(
		transactions,
		httpclient.New().WithTimeout(cfg.Processor.Timeout).WithHeader("User-Agent", "paygateway/1.0"),
		gatewayMetrics,
		logger,
	)
	processors := payment.NewRegistry(cfg.Processor.Endpoints)
	service := gateway.NewService(processors, driver, publisher, logger)

	lookupDriver := payment.NewLookupDriver(
		repository.NewLookupRepository(db),
		httpclient.New().WithTimeout(cfg.Processor.Timeout).WithHeader("User-Agent", "paygateway/1.0"),
		gatewayMetrics,
		logger,
	)
	lookupProcessors := payment.NewLookupRegistry(cfg.Processor.Endpoints)
	lookupService := gateway.NewLookupService(lookupProcessors, lookupDriver, logger)

	// --- Idempotency (Redis with in-memory fallback) ---
	deduper, dedupeErr := middleware.NewDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Idempotency.TTL,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for idempotency, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	router.Setup(e, db, cfg, router.Deps{
		Service:  service,
		Lookups:  lookupService,
		Deduper:  deduper,
		Metrics:  gatewayMetrics,
		Gatherer: registry,
	}, logger)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg.Cron, transactions, gatewayMetrics, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start cron scheduler", zap.Error(err))
	}

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting payment gateway",
			zap.String("addr", addr),
			zap.Strings("processors", processors.Names()),
			zap.Strings("lookup_processors", lookupProcessors.Names()),
		)
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(logger *zap.Logger) error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg)
	if err != nil {
		return err
	}
	if err := bootstrap.MigrateAndSeed(db, models.DefaultTapPattern); err != nil {
		return err
	}
	logger.Info("Schema migration and default seed completed")
	return nil
}
