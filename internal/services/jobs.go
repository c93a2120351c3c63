package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jmcgrail/riskindex-engine/internal/audit"
	"github.com/jmcgrail/riskindex-engine/internal/logger"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// SignalIngester fetches macro signals from configured commentary sources
type SignalIngester interface {
	FetchSignals(ctx context.Context) ([]models.MacroSignal, error)
}

// JobScheduler runs the recurring maintenance jobs: signal ingestion, audit
// backfill, and catalog cleanup. Schedules come from configuration as
// standard five-field cron expressions.
type JobScheduler struct {
	repos    *repository.Repositories
	signals  SignalService
	recorder *audit.Recorder
	ingester SignalIngester
	cfg      *config.Config
	cron     *cron.Cron
	logger   logger.Logger
	running  bool
}

// NewJobScheduler creates a job scheduler. The ingester may be nil, in which
// case the ingestion job is not registered.
func NewJobScheduler(repos *repository.Repositories, ingester SignalIngester, cfg *config.Config) *JobScheduler {
	return &JobScheduler{
		repos:    repos,
		signals:  newSignalService(repos),
		recorder: audit.NewRecorder(),
		ingester: ingester,
		cfg:      cfg,
		cron:     cron.New(),
		logger:   logger.NewComponentLogger("jobs"),
	}
}

// Start registers the configured jobs and begins the schedule
func (j *JobScheduler) Start() error {
	if j.running {
		return fmt.Errorf("job scheduler already running")
	}

	if j.ingester != nil {
		if _, err := j.cron.AddFunc(j.cfg.IngestCronSpec, j.runIngest); err != nil {
			return fmt.Errorf("failed to schedule ingestion job: %w", err)
		}
		j.logger.Info("Registered signal ingestion job", "schedule", j.cfg.IngestCronSpec)
	}

	if _, err := j.cron.AddFunc(j.cfg.BackfillCronSpec, j.runAuditBackfill); err != nil {
		return fmt.Errorf("failed to schedule audit backfill job: %w", err)
	}
	j.logger.Info("Registered audit backfill job", "schedule", j.cfg.BackfillCronSpec)

	if _, err := j.cron.AddFunc(j.cfg.CleanupCronSpec, j.runSignalCleanup); err != nil {
		return fmt.Errorf("failed to schedule signal cleanup job: %w", err)
	}
	j.logger.Info("Registered signal cleanup job", "schedule", j.cfg.CleanupCronSpec)

	j.cron.Start()
	j.running = true
	return nil
}

// Stop halts the schedule and waits for any running job to finish
func (j *JobScheduler) Stop() {
	if !j.running {
		return
	}
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.running = false
	j.logger.Info("Job scheduler stopped")
}

// IngestionConfigured reports whether an ingester was supplied
func (j *JobScheduler) IngestionConfigured() bool {
	return j.ingester != nil
}

// RunIngestOnce executes the ingestion job immediately
func (j *JobScheduler) RunIngestOnce(ctx context.Context) (int, error) {
	if j.ingester == nil {
		return 0, fmt.Errorf("no signal sources configured")
	}

	signals, err := j.ingester.FetchSignals(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch signals: %w", err)
	}
	if len(signals) == 0 {
		return 0, nil
	}

	inserted, err := j.signals.CreateBatch(signals)
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// RunAuditBackfillOnce records audit entries for scored scans that are
// missing one. The insert is idempotent per scan, so overlapping runs are
// harmless.
func (j *JobScheduler) RunAuditBackfillOnce(limit int) (int, error) {
	scanIDs, err := j.repos.Audit.GetScansMissingEntries(limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find scans missing audit entries: %w", err)
	}

	recorded := 0
	for _, scanID := range scanIDs {
		scan, err := j.repos.Scan.GetByID(scanID)
		if err != nil {
			j.logger.Warn("Skipping backfill for missing scan", "scan", scanID, "error", err)
			continue
		}

		previous, err := j.repos.Scan.GetPreviousScored(scan.DealID, scan.CreatedAt, scan.ID)
		if err != nil {
			j.logger.Warn("Skipping backfill, prior scan lookup failed", "scan", scanID, "error", err)
			continue
		}

		entry, err := j.recorder.Entry(scan, previous)
		if err != nil {
			j.logger.Warn("Skipping backfill for unscorable scan", "scan", scanID, "error", err)
			continue
		}

		if err := j.repos.Audit.Insert(entry); err != nil {
			return recorded, fmt.Errorf("failed to insert audit entry for scan %s: %w", scanID, err)
		}
		recorded++
	}

	return recorded, nil
}

// RunSignalCleanupOnce prunes unlinked signals past the retention window
func (j *JobScheduler) RunSignalCleanupOnce() (int64, error) {
	return j.signals.PruneUnlinked(j.cfg.SignalRetentionDays)
}

func (j *JobScheduler) runIngest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	inserted, err := j.RunIngestOnce(ctx)
	if err != nil {
		j.logger.Error("Signal ingestion failed", err)
		return
	}
	j.logger.Info("Signal ingestion completed", "inserted", inserted)
}

func (j *JobScheduler) runAuditBackfill() {
	recorded, err := j.RunAuditBackfillOnce(DefaultBackfillLimit)
	if err != nil {
		j.logger.Error("Audit backfill failed", err)
		return
	}
	if recorded > 0 {
		j.logger.Info("Audit backfill completed", "recorded", recorded)
	}
}

func (j *JobScheduler) runSignalCleanup() {
	deleted, err := j.RunSignalCleanupOnce()
	if err != nil {
		j.logger.Error("Signal cleanup failed", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("Signal cleanup completed", "deleted", deleted)
	}
}

// DefaultBackfillLimit caps one backfill pass; anything left is picked up on
// the next run
const DefaultBackfillLimit = 500
