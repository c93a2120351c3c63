package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// signalRepository implements SignalRepository
type signalRepository struct {
	db dbExecutor
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db dbExecutor) SignalRepository {
	return &signalRepository{db: db}
}

// GetByID retrieves a macro signal by ID
func (r *signalRepository) GetByID(id uuid.UUID) (*models.MacroSignal, error) {
	query := `
		SELECT id, signal_type, title, text, source, observed_at, created_at
		FROM macro_signals WHERE id = $1
	`

	signal := &models.MacroSignal{}
	err := r.db.QueryRow(query, id).Scan(
		&signal.ID, &signal.SignalType, &signal.Title, &signal.Text,
		&signal.Source, &signal.ObservedAt, &signal.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("signal not found")
		}
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}

	return signal, nil
}

// Create inserts one macro signal. Re-ingesting the same observation is a
// no-op via the (source, title, observed_at) uniqueness constraint.
func (r *signalRepository) Create(signal *models.MacroSignal) error {
	if signal.ID == uuid.Nil {
		signal.ID = uuid.New()
	}
	signal.CreatedAt = time.Now()

	query := `
		INSERT INTO macro_signals (id, signal_type, title, text, source, observed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source, title, observed_at) DO NOTHING
	`

	_, err := r.db.Exec(query,
		signal.ID, signal.SignalType, signal.Title, signal.Text,
		signal.Source, signal.ObservedAt, signal.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create signal: %w", err)
	}

	return nil
}

// CreateBatch inserts many signals, skipping duplicates. Returns the number
// of rows actually inserted.
func (r *signalRepository) CreateBatch(signals []models.MacroSignal) (int, error) {
	query := `
		INSERT INTO macro_signals (id, signal_type, title, text, source, observed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source, title, observed_at) DO NOTHING
	`

	now := time.Now()
	inserted := 0
	for i := range signals {
		signal := &signals[i]
		if signal.ID == uuid.Nil {
			signal.ID = uuid.New()
		}
		signal.CreatedAt = now

		result, err := r.db.Exec(query,
			signal.ID, signal.SignalType, signal.Title, signal.Text,
			signal.Source, signal.ObservedAt, signal.CreatedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to create signal: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rowsAffected)
	}

	return inserted, nil
}

// GetWindow retrieves the candidate signal set for relevance matching: a
// trailing window ending at the given time, most recent first, capped at
// limit
func (r *signalRepository) GetWindow(until time.Time, windowDays, limit int) ([]models.MacroSignal, error) {
	query := `
		SELECT id, signal_type, title, text, source, observed_at, created_at
		FROM macro_signals
		WHERE observed_at > $1 AND observed_at <= $2
		ORDER BY observed_at DESC, id DESC
		LIMIT $3
	`

	from := until.AddDate(0, 0, -windowDays)
	rows, err := r.db.Query(query, from, until, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal window: %w", err)
	}
	defer rows.Close()

	var signals []models.MacroSignal
	for rows.Next() {
		var signal models.MacroSignal
		err := rows.Scan(
			&signal.ID, &signal.SignalType, &signal.Title, &signal.Text,
			&signal.Source, &signal.ObservedAt, &signal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, signal)
	}

	return signals, nil
}

// GetAll retrieves signals with filters
func (r *signalRepository) GetAll(filters SignalFilters) ([]models.MacroSignal, error) {
	query := `
		SELECT id, signal_type, title, text, source, observed_at, created_at
		FROM macro_signals
	`

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if len(filters.Types) > 0 {
		placeholders := make([]string, len(filters.Types))
		for i, signalType := range filters.Types {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, signalType)
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf("signal_type IN (%s)", strings.Join(placeholders, ",")))
	}

	if filters.Source != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("source = $%d", argIndex))
		args = append(args, filters.Source)
		argIndex++
	}

	if filters.Since != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("observed_at >= $%d", argIndex))
		args = append(args, *filters.Since)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY observed_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.MacroSignal
	for rows.Next() {
		var signal models.MacroSignal
		err := rows.Scan(
			&signal.ID, &signal.SignalType, &signal.Title, &signal.Text,
			&signal.Source, &signal.ObservedAt, &signal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, signal)
	}

	return signals, nil
}

// DeleteOlderThan removes signals observed before the cutoff that no link
// references, returning the number deleted
func (r *signalRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM macro_signals
		WHERE observed_at < $1
		  AND NOT EXISTS (SELECT 1 FROM signal_links WHERE signal_links.signal_id = macro_signals.id)
	`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old signals: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
