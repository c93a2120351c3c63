package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// DealRepository defines the interface for deal data access
type DealRepository interface {
	GetByID(id uuid.UUID) (*models.Deal, error)
	Create(deal *models.Deal) error
	Update(deal *models.Deal) error
	Delete(id uuid.UUID) error

	GetAll(filters DealFilters) ([]models.Deal, error)
	GetAllIDs() ([]uuid.UUID, error)
	GetPurchasePrices() ([]float64, error)
}

// ScanRepository defines the interface for scan data access
type ScanRepository interface {
	GetByID(id uuid.UUID) (*models.Scan, error)
	Create(scan *models.Scan) error
	GetByDeal(dealID uuid.UUID, limit int) ([]models.Scan, error)
	GetPending(limit int) ([]models.Scan, error)

	// Scoring lifecycle
	MarkScoring(id uuid.UUID) error
	StoreScore(scan *models.Scan) error
	MarkFailed(id uuid.UUID, message string) error

	// GetPreviousScored returns the most recent scored scan for the deal
	// created strictly before the given time, ties broken by id. A deal with
	// no prior scored scan yields (nil, nil).
	GetPreviousScored(dealID uuid.UUID, before time.Time, excludeID uuid.UUID) (*models.Scan, error)

	// FindRecentByHash returns a scan for the deal with the same input hash
	// created at or after the cutoff, or (nil, nil) when none exists
	FindRecentByHash(dealID uuid.UUID, inputHash string, since time.Time) (*models.Scan, error)
}

// FindingRepository defines the interface for risk finding data access
type FindingRepository interface {
	CreateBatch(findings []models.RiskFinding) error
	GetByScan(scanID uuid.UUID) ([]models.RiskFinding, error)
	UpdateSeverities(severities map[uuid.UUID]models.Severity) error
}

// SignalRepository defines the interface for macro signal data access
type SignalRepository interface {
	GetByID(id uuid.UUID) (*models.MacroSignal, error)
	Create(signal *models.MacroSignal) error
	CreateBatch(signals []models.MacroSignal) (int, error)
	GetWindow(until time.Time, windowDays, limit int) ([]models.MacroSignal, error)
	GetAll(filters SignalFilters) ([]models.MacroSignal, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// LinkRepository defines the interface for signal link data access
type LinkRepository interface {
	UpsertBatch(links []models.SignalLink) (int, error)
	GetByScan(scanID uuid.UUID) ([]models.SignalLink, error)
	GetByFinding(findingID uuid.UUID) ([]models.SignalLink, error)
}

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Insert(entry *models.AuditLogEntry) error
	GetByDeal(dealID uuid.UUID, limit int) ([]models.AuditLogEntry, error)
	GetScansMissingEntries(limit int) ([]uuid.UUID, error)
}

// OutcomeRepository defines the interface for deal outcome data access
type OutcomeRepository interface {
	Upsert(outcome *models.DealOutcome) error
	GetByDeal(dealID uuid.UUID) (*models.DealOutcome, error)
	GetBacktestRecords() ([]models.BacktestRecord, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Deal    DealRepository
	Scan    ScanRepository
	Finding FindingRepository
	Signal  SignalRepository
	Link    LinkRepository
	Audit   AuditRepository
	Outcome OutcomeRepository
	User    UserRepository
	Tx      TransactionManager
}

// DealFilters defines filters for querying deals
type DealFilters struct {
	AssetTypes []string
	Market     string
	CreatedBy  *uuid.UUID
	Limit      int
	Offset     int
}

// SignalFilters defines filters for querying macro signals
type SignalFilters struct {
	Types  []string
	Source string
	Since  *time.Time
	Limit  int
	Offset int
}
