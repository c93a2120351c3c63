package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// scanColumns is the full column list shared by every scan query
const scanColumns = `id, deal_id, status, input_hash, source_text, assumptions,
		risk_index_score, risk_band, breakdown, model_version, error_message,
		created_at, scored_at`

// scanRepository implements ScanRepository
type scanRepository struct {
	db dbExecutor
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db dbExecutor) ScanRepository {
	return &scanRepository{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *scanRepository) scanRow(row rowScanner) (*models.Scan, error) {
	scan := &models.Scan{}
	var breakdownJSON []byte

	err := row.Scan(
		&scan.ID, &scan.DealID, &scan.Status, &scan.InputHash, &scan.SourceText,
		&scan.Assumptions, &scan.RiskIndexScore, &scan.RiskBand, &breakdownJSON,
		&scan.ModelVersion, &scan.ErrorMessage, &scan.CreatedAt, &scan.ScoredAt,
	)
	if err != nil {
		return nil, err
	}

	if len(breakdownJSON) > 0 {
		var breakdown models.RiskIndexBreakdown
		if err := json.Unmarshal(breakdownJSON, &breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		scan.Breakdown = &breakdown
	}

	return scan, nil
}

// GetByID retrieves a scan by ID
func (r *scanRepository) GetByID(id uuid.UUID) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = $1`

	scan, err := r.scanRow(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scan not found")
		}
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return scan, nil
}

// Create creates a new scan in pending state
func (r *scanRepository) Create(scan *models.Scan) error {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	if scan.Status == "" {
		scan.Status = models.ScanPending
	}
	scan.CreatedAt = time.Now()

	query := `
		INSERT INTO scans (id, deal_id, status, input_hash, source_text, assumptions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(query,
		scan.ID, scan.DealID, scan.Status, scan.InputHash,
		scan.SourceText, scan.Assumptions, scan.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	return nil
}

// GetByDeal retrieves scans for a deal, most recent first
func (r *scanRepository) GetByDeal(dealID uuid.UUID, limit int) ([]models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE deal_id = $1 ORDER BY created_at DESC, id DESC`

	args := []interface{}{dealID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []models.Scan
	for rows.Next() {
		scan, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, *scan)
	}

	return scans, nil
}

// GetPending retrieves pending scans, oldest first
func (r *scanRepository) GetPending(limit int) ([]models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	rows, err := r.db.Query(query, models.ScanPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending scans: %w", err)
	}
	defer rows.Close()

	var scans []models.Scan
	for rows.Next() {
		scan, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, *scan)
	}

	return scans, nil
}

// MarkScoring claims a pending scan for scoring
func (r *scanRepository) MarkScoring(id uuid.UUID) error {
	query := `UPDATE scans SET status = $2 WHERE id = $1 AND status = $3`

	result, err := r.db.Exec(query, id, models.ScanScoring, models.ScanPending)
	if err != nil {
		return fmt.Errorf("failed to mark scan scoring: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("scan is not pending")
	}

	return nil
}

// StoreScore persists a completed scoring result onto its scan
func (r *scanRepository) StoreScore(scan *models.Scan) error {
	query := `
		UPDATE scans SET
			status = $2, risk_index_score = $3, risk_band = $4, breakdown = $5,
			model_version = $6, scored_at = $7, error_message = ''
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		scan.ID, models.ScanScored, scan.RiskIndexScore, scan.RiskBand,
		scan.Breakdown, scan.ModelVersion, scan.ScoredAt,
	)

	if err != nil {
		return fmt.Errorf("failed to store score: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("scan not found")
	}

	return nil
}

// MarkFailed records a scoring failure on the scan
func (r *scanRepository) MarkFailed(id uuid.UUID, message string) error {
	query := `UPDATE scans SET status = $2, error_message = $3 WHERE id = $1`

	result, err := r.db.Exec(query, id, models.ScanFailed, message)
	if err != nil {
		return fmt.Errorf("failed to mark scan failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("scan not found")
	}

	return nil
}

// GetPreviousScored finds the most recent scored scan for a deal created
// before the given time. Ties on creation time fall back to id ordering so
// the choice is deterministic. No prior scan is not an error.
func (r *scanRepository) GetPreviousScored(dealID uuid.UUID, before time.Time, excludeID uuid.UUID) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + `
		FROM scans
		WHERE deal_id = $1 AND status = $2 AND id != $3
		  AND (created_at < $4 OR (created_at = $4 AND id < $3))
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	scan, err := r.scanRow(r.db.QueryRow(query, dealID, models.ScanScored, excludeID, before))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous scored scan: %w", err)
	}

	return scan, nil
}

// FindRecentByHash finds a non-failed scan for the deal with the same input
// hash created at or after the cutoff. Used by the submission dedupe window;
// no match is not an error.
func (r *scanRepository) FindRecentByHash(dealID uuid.UUID, inputHash string, since time.Time) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + `
		FROM scans
		WHERE deal_id = $1 AND input_hash = $2 AND created_at >= $3 AND status != $4
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	scan, err := r.scanRow(r.db.QueryRow(query, dealID, inputHash, since, models.ScanFailed))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find scan by input hash: %w", err)
	}

	return scan, nil
}
