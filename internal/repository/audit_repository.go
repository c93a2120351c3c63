package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// auditRepository implements AuditRepository
type auditRepository struct {
	db dbExecutor
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db dbExecutor) AuditRepository {
	return &auditRepository{db: db}
}

// Insert appends one audit entry. Entries are insert-only and unique per
// scan_id, so a backfill or replay of an already-audited scan is a no-op.
func (r *auditRepository) Insert(entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_log (id, deal_id, scan_id, previous_score, new_score, delta,
			band_change, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (scan_id) DO NOTHING
	`

	_, err := r.db.Exec(query,
		entry.ID, entry.DealID, entry.ScanID, entry.PreviousScore, entry.NewScore,
		entry.Delta, entry.BandChange, entry.ModelVersion, entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// GetByDeal retrieves a deal's audit entries, most recent first
func (r *auditRepository) GetByDeal(dealID uuid.UUID, limit int) ([]models.AuditLogEntry, error) {
	query := `
		SELECT id, deal_id, scan_id, previous_score, new_score, delta,
			   band_change, model_version, created_at
		FROM audit_log
		WHERE deal_id = $1
		ORDER BY created_at DESC, id DESC
	`

	args := []interface{}{dealID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		err := rows.Scan(
			&entry.ID, &entry.DealID, &entry.ScanID, &entry.PreviousScore, &entry.NewScore,
			&entry.Delta, &entry.BandChange, &entry.ModelVersion, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetScansMissingEntries finds scored scans with no audit entry, for the
// backfill job
func (r *auditRepository) GetScansMissingEntries(limit int) ([]uuid.UUID, error) {
	query := `
		SELECT s.id
		FROM scans s
		LEFT JOIN audit_log a ON a.scan_id = s.id
		WHERE s.status = $1 AND a.scan_id IS NULL
		ORDER BY s.scored_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(query, models.ScanScored, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans missing audit entries: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan scan ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
