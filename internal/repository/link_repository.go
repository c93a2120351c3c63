package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// linkRepository implements LinkRepository
type linkRepository struct {
	db dbExecutor
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db dbExecutor) LinkRepository {
	return &linkRepository{db: db}
}

// UpsertBatch persists proposed signal links. The (risk_finding_id, signal_id)
// pair is unique, so re-running the matcher for the same scan inserts nothing
// new. Returns the number of links actually inserted.
func (r *linkRepository) UpsertBatch(links []models.SignalLink) (int, error) {
	query := `
		INSERT INTO signal_links (id, risk_finding_id, signal_id, link_reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (risk_finding_id, signal_id) DO NOTHING
	`

	now := time.Now()
	inserted := 0
	for i := range links {
		link := &links[i]
		if link.ID == uuid.Nil {
			link.ID = uuid.New()
		}
		link.CreatedAt = now

		result, err := r.db.Exec(query,
			link.ID, link.RiskFindingID, link.SignalID, link.LinkReason, link.CreatedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to upsert signal link: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rowsAffected)
	}

	return inserted, nil
}

// GetByScan retrieves every link attached to a scan's findings
func (r *linkRepository) GetByScan(scanID uuid.UUID) ([]models.SignalLink, error) {
	query := `
		SELECT sl.id, sl.risk_finding_id, sl.signal_id, sl.link_reason, sl.created_at
		FROM signal_links sl
		JOIN risk_findings rf ON sl.risk_finding_id = rf.id
		WHERE rf.scan_id = $1
		ORDER BY sl.created_at ASC, sl.id ASC
	`

	return r.queryLinks(query, scanID)
}

// GetByFinding retrieves the links attached to one finding
func (r *linkRepository) GetByFinding(findingID uuid.UUID) ([]models.SignalLink, error) {
	query := `
		SELECT id, risk_finding_id, signal_id, link_reason, created_at
		FROM signal_links
		WHERE risk_finding_id = $1
		ORDER BY created_at ASC, id ASC
	`

	return r.queryLinks(query, findingID)
}

func (r *linkRepository) queryLinks(query string, args ...interface{}) ([]models.SignalLink, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal links: %w", err)
	}
	defer rows.Close()

	var links []models.SignalLink
	for rows.Next() {
		var link models.SignalLink
		err := rows.Scan(
			&link.ID, &link.RiskFindingID, &link.SignalID, &link.LinkReason, &link.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal link: %w", err)
		}
		links = append(links, link)
	}

	return links, nil
}
