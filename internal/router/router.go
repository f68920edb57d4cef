package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paygateway/internal/config"
	"paygateway/internal/handler/api"
	"paygateway/internal/metrics"
	"paygateway/internal/middleware"
	"paygateway/internal/repository"
)

// Deps bundles what the routes need beyond the database.
type Deps struct {
	Service  api.TransactionProcessor
	Lookups  api.TransactionProcessor
	Deduper  middleware.Deduper
	Metrics  *metrics.GatewayMetrics
	Gatherer prometheus.Gatherer
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, db *gorm.DB, cfg *config.Config, deps Deps, logger *zap.Logger) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Repositories
	messages := repository.NewMessageRepository(db)
	taps := repository.NewTapRepository(db)
	repos := &api.Repos{
		Transactions: repository.NewTransactionRepository(db),
		Lookups:      repository.NewLookupRepository(db),
		Messages:     messages,
	}

	// Handlers
	transactionHandler := api.NewTransactionHandler(deps.Service, logger)
	lookupHandler := api.NewLookupHandler(deps.Lookups, logger)
	reportHandler := api.NewReportHandler(repos, logger)

	// Payments API with auth
	payments := e.Group("/api/payments")
	payments.Use(middleware.APIAuth(cfg.API.Key, cfg.API.HashFile))

	payments.POST("/transactions/:project_id", transactionHandler.Create,
		middleware.Wiretap(taps, messages, logger),
		middleware.Idempotency(deps.Deduper, deps.Metrics),
	)
	payments.GET("/report/:project_id/interactions/:interaction_id", reportHandler.Interaction)
	payments.GET("/report/:project_id/payments", reportHandler.Payments)
	payments.GET("/report/:project_id/lookups", reportHandler.Lookups)

	// Lookups API with auth
	lookups := e.Group("/api/lookups")
	lookups.Use(middleware.APIAuth(cfg.API.Key, cfg.API.HashFile))

	lookups.POST("/transactions/:project_id", lookupHandler.Create,
		middleware.Wiretap(taps, messages, logger),
		middleware.Idempotency(deps.Deduper, deps.Metrics),
	)

	// Metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
