package api

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jmcgrail/riskindex-engine/internal/auth"
	"github.com/jmcgrail/riskindex-engine/internal/ingest"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/internal/services"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, db *sql.DB, cfg *config.Config) error {
	svcs := services.NewServices(db, cfg)
	pipeline := services.NewScanPipeline(db, cfg)

	// Commentary ingestion is optional; the health endpoints report it as
	// unconfigured when no sources are set.
	var ingestService *ingest.Service
	if cfg.HasSignalSources() {
		var err error
		ingestService, err = ingest.NewService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create ingestion service: %w", err)
		}
	} else {
		log.Println("No commentary sources configured; signal ingestion disabled")
	}

	// The scheduler here never starts its cron; it only backs the on-demand
	// job trigger endpoints. The jobs binary owns the schedule.
	var ingester services.SignalIngester
	if ingestService != nil {
		ingester = ingestService
	}
	scheduler := services.NewJobScheduler(repository.NewRepositories(db), ingester, cfg)

	authHandler := NewAuthHandler(svcs.Auth)
	dealsHandler := NewDealsHandler(svcs.Deal)
	scansHandler := NewScansHandler(svcs.Scan)
	signalsHandler := NewSignalsHandler(svcs.Signal)
	analyticsHandler := NewAnalyticsHandler(svcs.Backtest, svcs.Portfolio)
	exportHandler := NewExportHandler(svcs.Export)
	pipelineHandler := NewPipelineHandler(pipeline)
	jobsHandler := NewJobsHandler(scheduler)
	healthHandler := NewHealthHandler(db, ingestService)

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/logout", authHandler.Logout)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	protected.Use(auth.CSRFMiddleware())
	{
		protected.GET("/auth/me", authHandler.Me)

		// Deal endpoints
		protected.GET("/deals", dealsHandler.GetDeals)
		protected.POST("/deals", dealsHandler.CreateDeal)
		protected.GET("/deals/:id", dealsHandler.GetDeal)
		protected.PUT("/deals/:id", dealsHandler.UpdateDeal)
		protected.DELETE("/deals/:id", dealsHandler.DeleteDeal)

		// Realized outcomes
		protected.POST("/deals/:id/outcome", dealsHandler.RecordOutcome)
		protected.GET("/deals/:id/outcome", dealsHandler.GetOutcome)

		// Scan endpoints
		protected.POST("/deals/:id/scans", scansHandler.SubmitScan)
		protected.GET("/deals/:id/scans", scansHandler.GetDealScans)
		protected.GET("/deals/:id/audit", scansHandler.GetDealAudit)
		protected.GET("/scans/:id", scansHandler.GetScan)
		protected.POST("/scans/:id/process", scansHandler.ProcessScan)

		// Macro signal catalog
		protected.GET("/signals", signalsHandler.GetSignals)
		protected.POST("/signals", signalsHandler.CreateSignal)

		// Analytics endpoints
		protected.GET("/backtest", analyticsHandler.RunBacktest)
		protected.GET("/portfolio/summary", analyticsHandler.GetPortfolioSummary)
		protected.GET("/portfolio/deals", analyticsHandler.GetPortfolioDeals)

		// Export endpoints
		protected.POST("/exports/scans", exportHandler.ExportScans)

		// Automated pipeline endpoints
		protected.GET("/pipeline/status", pipelineHandler.GetPipelineStatus)
		protected.GET("/pipeline/config", pipelineHandler.GetPipelineConfig)
		protected.POST("/pipeline/start", pipelineHandler.StartPipeline)
		protected.POST("/pipeline/stop", pipelineHandler.StopPipeline)
		protected.POST("/pipeline/run-once", pipelineHandler.RunPipelineOnce)

		// Maintenance job triggers
		protected.POST("/jobs/ingest", jobsHandler.RunIngest)
		protected.POST("/jobs/audit-backfill", jobsHandler.RunAuditBackfill)
		protected.POST("/jobs/signal-cleanup", jobsHandler.RunSignalCleanup)

		// Health monitoring endpoints
		protected.GET("/health", healthHandler.GetSystemHealth)
		protected.GET("/health/ingest", healthHandler.GetIngestHealth)
		protected.POST("/health/ingest/reset", healthHandler.ResetIngestHealth)
	}

	return nil
}
