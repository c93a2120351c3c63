package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// findingRepository implements FindingRepository
type findingRepository struct {
	db dbExecutor
}

// NewFindingRepository creates a new finding repository
func NewFindingRepository(db dbExecutor) FindingRepository {
	return &findingRepository{db: db}
}

// CreateBatch inserts the findings extracted for one scan
func (r *findingRepository) CreateBatch(findings []models.RiskFinding) error {
	if len(findings) == 0 {
		return nil
	}

	query := `
		INSERT INTO risk_findings (id, scan_id, risk_type, severity_original, severity_current,
			confidence, rationale, source_excerpt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	for i := range findings {
		finding := &findings[i]
		if finding.ID == uuid.Nil {
			finding.ID = uuid.New()
		}
		if finding.SeverityCurrent == "" {
			finding.SeverityCurrent = finding.SeverityOriginal
		}
		finding.CreatedAt = now

		_, err := r.db.Exec(query,
			finding.ID, finding.ScanID, finding.RiskType, finding.SeverityOriginal,
			finding.SeverityCurrent, finding.Confidence, finding.Rationale,
			finding.SourceExcerpt, finding.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create risk finding: %w", err)
		}
	}

	return nil
}

// GetByScan retrieves the findings attached to a scan
func (r *findingRepository) GetByScan(scanID uuid.UUID) ([]models.RiskFinding, error) {
	query := `
		SELECT id, scan_id, risk_type, severity_original, severity_current,
			   confidence, rationale, source_excerpt, created_at
		FROM risk_findings
		WHERE scan_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk findings: %w", err)
	}
	defer rows.Close()

	var findings []models.RiskFinding
	for rows.Next() {
		var finding models.RiskFinding
		err := rows.Scan(
			&finding.ID, &finding.ScanID, &finding.RiskType, &finding.SeverityOriginal,
			&finding.SeverityCurrent, &finding.Confidence, &finding.Rationale,
			&finding.SourceExcerpt, &finding.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk finding: %w", err)
		}
		findings = append(findings, finding)
	}

	return findings, nil
}

// UpdateSeverities applies severity changes from relevance matching or
// assumption overrides. severity_original is never touched.
func (r *findingRepository) UpdateSeverities(severities map[uuid.UUID]models.Severity) error {
	if len(severities) == 0 {
		return nil
	}

	query := `UPDATE risk_findings SET severity_current = $2 WHERE id = $1`

	for id, severity := range severities {
		if _, err := r.db.Exec(query, id, severity); err != nil {
			return fmt.Errorf("failed to update finding severity: %w", err)
		}
	}

	return nil
}
