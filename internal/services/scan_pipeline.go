package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// ScanPipeline handles automated scoring of pending scans
type ScanPipeline struct {
	db          *sql.DB
	scanService ScanService
	isRunning   bool
	stopChan    chan struct{}
	wg          sync.WaitGroup
	mu          sync.RWMutex
}

// GetDB returns the database connection for health checks
func (p *ScanPipeline) GetDB() *sql.DB {
	return p.db
}

// NewScanPipeline creates a new automated scan pipeline
func NewScanPipeline(db *sql.DB, cfg *config.Config) *ScanPipeline {
	repos := repository.NewRepositories(db)
	return &ScanPipeline{
		db:          db,
		scanService: newScanService(repos, cfg),
		stopChan:    make(chan struct{}),
	}
}

// PipelineConfig contains configuration for the scan pipeline
type PipelineConfig struct {
	BatchSize       int `json:"batch_size"`       // Number of scans to claim per cycle
	IntervalMinutes int `json:"interval_minutes"` // How often to run scoring (minutes)
	MaxConcurrent   int `json:"max_concurrent"`   // Max concurrent scoring operations
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize:       50, // Process 50 scans at a time
		IntervalMinutes: 5,  // Run every five minutes
		MaxConcurrent:   10, // 10 concurrent scoring operations
	}
}

// Start begins the automated scan pipeline
func (p *ScanPipeline) Start(config PipelineConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("pipeline is already running")
	}

	p.isRunning = true

	// Start the main pipeline loop
	p.wg.Add(1)
	go p.runPipeline(config)

	log.Printf("🎯 Scan pipeline started with config: batch_size=%d, interval=%dm, max_concurrent=%d",
		config.BatchSize, config.IntervalMinutes, config.MaxConcurrent)

	return nil
}

// Stop gracefully stops the scan pipeline
func (p *ScanPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return fmt.Errorf("pipeline is not running")
	}

	close(p.stopChan)
	p.wg.Wait()
	p.isRunning = false

	log.Println("🛑 Scan pipeline stopped")
	return nil
}

// IsRunning returns whether the pipeline is currently running
func (p *ScanPipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// RunOnce executes a single scoring cycle manually
func (p *ScanPipeline) RunOnce(config PipelineConfig) (*PipelineStats, error) {
	ctx := context.Background()
	return p.executeScoringCycle(ctx, config)
}

// runPipeline is the main pipeline loop
func (p *ScanPipeline) runPipeline(config PipelineConfig) {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Duration(config.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	// Run immediately on start
	ctx := context.Background()
	if stats, err := p.executeScoringCycle(ctx, config); err != nil {
		log.Printf("❌ Initial scoring cycle failed: %v", err)
	} else {
		log.Printf("✅ Initial scoring cycle completed: %s", stats.Summary())
	}

	for {
		select {
		case <-p.stopChan:
			log.Println("📋 Pipeline stop signal received")
			return
		case <-ticker.C:
			if stats, err := p.executeScoringCycle(ctx, config); err != nil {
				log.Printf("❌ Scoring cycle failed: %v", err)
			} else {
				log.Printf("✅ Scoring cycle completed: %s", stats.Summary())
			}
		}
	}
}

// executeScoringCycle performs one complete scoring cycle
func (p *ScanPipeline) executeScoringCycle(ctx context.Context, config PipelineConfig) (*PipelineStats, error) {
	startTime := time.Now()
	stats := &PipelineStats{
		StartTime: startTime,
		BatchSize: config.BatchSize,
	}

	log.Printf("🔄 Starting scoring cycle (batch_size=%d, max_concurrent=%d)",
		config.BatchSize, config.MaxConcurrent)

	// Get pending scans, oldest first
	scans, err := p.getPendingScans(config)
	if err != nil {
		return stats, fmt.Errorf("failed to get pending scans: %w", err)
	}

	if len(scans) == 0 {
		stats.ScansProcessed = 0
		stats.EndTime = time.Now()
		log.Println("ℹ️  No scans are pending at this time")
		return stats, nil
	}

	log.Printf("📊 Found %d pending scans", len(scans))
	stats.ScansFound = len(scans)

	// Process scans with bounded concurrency. The pending guard on the claim
	// makes a scan picked up twice score only once.
	semaphore := make(chan struct{}, config.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < len(scans); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(scans) {
			end = len(scans)
		}

		batch := scans[i:end]

		wg.Add(1)
		go func(scanBatch []models.Scan) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			// Process this batch
			batchStats := p.processBatch(ctx, scanBatch)

			// Update stats
			mu.Lock()
			stats.ScansProcessed += batchStats.Processed
			stats.ScansSucceeded += batchStats.Succeeded
			stats.ScansFailed += batchStats.Failed
			mu.Unlock()

		}(batch)
	}

	wg.Wait()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	return stats, nil
}

// getPendingScans retrieves pending scans for one cycle
func (p *ScanPipeline) getPendingScans(config PipelineConfig) ([]models.Scan, error) {
	repos := repository.NewRepositories(p.db)
	return repos.Scan.GetPending(config.BatchSize * 10)
}

// processBatch processes a batch of pending scans
func (p *ScanPipeline) processBatch(ctx context.Context, scans []models.Scan) BatchStats {
	stats := BatchStats{}

	for _, scan := range scans {
		stats.Processed++

		if _, err := p.scanService.Process(scan.ID.String()); err != nil {
			log.Printf("❌ Failed to score scan %s (deal %s): %v", scan.ID, scan.DealID, err)
			stats.Failed++
		} else {
			log.Printf("✅ Scored scan %s (deal %s)", scan.ID, scan.DealID)
			stats.Succeeded++
		}
	}

	return stats
}

// GetStats returns current pipeline statistics
func (p *ScanPipeline) GetStats() (PipelineStatus, error) {
	status := PipelineStatus{
		IsRunning: p.IsRunning(),
		Timestamp: time.Now(),
	}

	var totalScans, scoredScans, pendingScans, failedScans int

	if err := p.db.QueryRow("SELECT COUNT(*) FROM scans").Scan(&totalScans); err != nil {
		return status, err
	}

	byStatus := `SELECT COUNT(*) FROM scans WHERE status = $1`
	if err := p.db.QueryRow(byStatus, models.ScanScored).Scan(&scoredScans); err != nil {
		return status, err
	}
	if err := p.db.QueryRow(byStatus, models.ScanPending).Scan(&pendingScans); err != nil {
		return status, err
	}
	if err := p.db.QueryRow(byStatus, models.ScanFailed).Scan(&failedScans); err != nil {
		return status, err
	}

	status.TotalScans = totalScans
	status.ScoredScans = scoredScans
	status.PendingScans = pendingScans
	status.FailedScans = failedScans

	return status, nil
}

// Data structures

type BatchStats struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type PipelineStats struct {
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	BatchSize      int           `json:"batch_size"`
	ScansFound     int           `json:"scans_found"`
	ScansProcessed int           `json:"scans_processed"`
	ScansSucceeded int           `json:"scans_succeeded"`
	ScansFailed    int           `json:"scans_failed"`
}

func (s *PipelineStats) Summary() string {
	return fmt.Sprintf("processed=%d, succeeded=%d, failed=%d, duration=%v",
		s.ScansProcessed, s.ScansSucceeded, s.ScansFailed, s.Duration.Round(time.Second))
}

type PipelineStatus struct {
	IsRunning    bool      `json:"is_running"`
	TotalScans   int       `json:"total_scans"`
	ScoredScans  int       `json:"scored_scans"`
	PendingScans int       `json:"pending_scans"`
	FailedScans  int       `json:"failed_scans"`
	Timestamp    time.Time `json:"timestamp"`
}
