package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// outcomeRepository implements OutcomeRepository
type outcomeRepository struct {
	db dbExecutor
}

// NewOutcomeRepository creates a new outcome repository
func NewOutcomeRepository(db dbExecutor) OutcomeRepository {
	return &outcomeRepository{db: db}
}

// Upsert records a deal's realized outcome. A deal carries at most one
// outcome; re-recording replaces it.
func (r *outcomeRepository) Upsert(outcome *models.DealOutcome) error {
	if outcome.ID == uuid.Nil {
		outcome.ID = uuid.New()
	}
	outcome.RecordedAt = time.Now()

	query := `
		INSERT INTO deal_outcomes (id, deal_id, outcome_type, outcome_value, notes, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (deal_id)
		DO UPDATE SET
			outcome_type = $3,
			outcome_value = $4,
			notes = $5,
			recorded_by = $6,
			recorded_at = $7
	`

	_, err := r.db.Exec(query,
		outcome.ID, outcome.DealID, outcome.OutcomeType, outcome.OutcomeValue,
		outcome.Notes, outcome.RecordedBy, outcome.RecordedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert deal outcome: %w", err)
	}

	return nil
}

// GetByDeal retrieves a deal's recorded outcome
func (r *outcomeRepository) GetByDeal(dealID uuid.UUID) (*models.DealOutcome, error) {
	query := `
		SELECT id, deal_id, outcome_type, outcome_value, notes, recorded_by, recorded_at
		FROM deal_outcomes WHERE deal_id = $1
	`

	outcome := &models.DealOutcome{}
	err := r.db.QueryRow(query, dealID).Scan(
		&outcome.ID, &outcome.DealID, &outcome.OutcomeType, &outcome.OutcomeValue,
		&outcome.Notes, &outcome.RecordedBy, &outcome.RecordedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("outcome not found")
		}
		return nil, fmt.Errorf("failed to get deal outcome: %w", err)
	}

	return outcome, nil
}

// GetBacktestRecords joins each outcome-annotated deal with its most recent
// scored scan, one record per deal
func (r *outcomeRepository) GetBacktestRecords() ([]models.BacktestRecord, error) {
	query := `
		SELECT DISTINCT ON (s.deal_id)
			s.id, s.deal_id, s.risk_index_score, s.risk_band, s.model_version,
			o.outcome_type, o.outcome_value, s.scored_at
		FROM scans s
		JOIN deal_outcomes o ON o.deal_id = s.deal_id
		WHERE s.status = $1
		ORDER BY s.deal_id, s.created_at DESC, s.id DESC
	`

	rows, err := r.db.Query(query, models.ScanScored)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest records: %w", err)
	}
	defer rows.Close()

	var records []models.BacktestRecord
	for rows.Next() {
		var record models.BacktestRecord
		err := rows.Scan(
			&record.ScanID, &record.DealID, &record.RiskIndexScore, &record.Band,
			&record.ModelVersion, &record.OutcomeType, &record.OutcomeValue, &record.ScoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backtest record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}
