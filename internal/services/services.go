package services

import (
	"database/sql"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// Services contains all application services
type Services struct {
	Deal      DealService
	Scan      ScanService
	Signal    SignalService
	Backtest  BacktestService
	Portfolio PortfolioService
	Export    ExportService
	Auth      AuthService
}

// DealService defines the interface for deal business logic
type DealService interface {
	GetByID(id string) (*models.Deal, error)
	GetAll(filters repository.DealFilters) ([]models.Deal, error)
	Create(form *repository.DealForm, userID string) (*models.Deal, error)
	Update(id string, form *repository.DealForm) (*models.Deal, error)
	Delete(id string) error

	// Realized outcomes, recorded out of band and consumed by backtests
	RecordOutcome(dealID string, form *repository.OutcomeForm, userID string) (*models.DealOutcome, error)
	GetOutcome(dealID string) (*models.DealOutcome, error)
}

// ScanService defines the interface for scan submission and scoring
type ScanService interface {
	// Submit validates a submission, applies the resubmission window, and
	// stores a pending scan with its findings. The bool reports whether an
	// existing scan was returned instead of a new one being created.
	Submit(dealID string, sub *repository.ScanSubmission) (*repository.ScanResponse, bool, error)

	// Process runs the full scoring chain on one pending scan
	Process(scanID string) (*models.Scan, error)

	GetByID(id string) (*repository.ScanResponse, error)
	GetByDeal(dealID string, limit int) ([]models.Scan, error)
	AuditTrail(dealID string, limit int) ([]models.AuditLogEntry, error)
}

// SignalService defines the interface for the macro signal catalog
type SignalService interface {
	Create(form *repository.SignalForm) (*models.MacroSignal, error)
	CreateBatch(signals []models.MacroSignal) (int, error)
	GetAll(filters repository.SignalFilters) ([]models.MacroSignal, error)

	// PruneUnlinked removes signals older than the retention window that no
	// link references, returning the number deleted
	PruneUnlinked(olderThanDays int) (int64, error)
}

// BacktestService defines the interface for backtest reporting
type BacktestService interface {
	Run() (*models.BacktestMetrics, error)
}

// PortfolioService defines the interface for portfolio aggregation
type PortfolioService interface {
	Summary() (*repository.PortfolioSummary, error)
	Entries() ([]repository.PortfolioDealEntry, error)
}

// ExportService defines the interface for scored-scan exports
type ExportService interface {
	Export(filter ExportFilter, options ExportOptions) ([]byte, error)
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(email, password string) (*models.LoginResponse, error)
	Register(req *models.CreateUserRequest) (*models.User, error)
	ValidateToken(token string) (*models.User, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *sql.DB, cfg *config.Config) *Services {
	repos := repository.NewRepositories(db)

	return &Services{
		Deal:      newDealService(repos),
		Scan:      newScanService(repos, cfg),
		Signal:    newSignalService(repos),
		Backtest:  newBacktestService(repos),
		Portfolio: newPortfolioService(repos),
		Export:    NewScanExportService(db),
		Auth:      newAuthService(repos, cfg),
	}
}

// NewScanService creates a standalone scan service
func NewScanService(repos *repository.Repositories, cfg *config.Config) ScanService {
	return newScanService(repos, cfg)
}
