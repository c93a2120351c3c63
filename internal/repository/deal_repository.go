package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// dealRepository implements DealRepository
type dealRepository struct {
	db dbExecutor
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db dbExecutor) DealRepository {
	return &dealRepository{db: db}
}

// GetByID retrieves a deal by ID
func (r *dealRepository) GetByID(id uuid.UUID) (*models.Deal, error) {
	query := `
		SELECT id, name, asset_type, market, purchase_price, created_by,
			   created_at, updated_at
		FROM deals WHERE id = $1
	`

	deal := &models.Deal{}
	err := r.db.QueryRow(query, id).Scan(
		&deal.ID, &deal.Name, &deal.AssetType, &deal.Market,
		&deal.PurchasePrice, &deal.CreatedBy, &deal.CreatedAt, &deal.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("deal not found")
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return deal, nil
}

// Create creates a new deal
func (r *dealRepository) Create(deal *models.Deal) error {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}

	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now

	query := `
		INSERT INTO deals (id, name, asset_type, market, purchase_price, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(query,
		deal.ID, deal.Name, deal.AssetType, deal.Market,
		deal.PurchasePrice, deal.CreatedBy, deal.CreatedAt, deal.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	return nil
}

// Update updates an existing deal
func (r *dealRepository) Update(deal *models.Deal) error {
	deal.UpdatedAt = time.Now()

	query := `
		UPDATE deals SET
			name = $2, asset_type = $3, market = $4, purchase_price = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		deal.ID, deal.Name, deal.AssetType, deal.Market,
		deal.PurchasePrice, deal.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("deal not found")
	}

	return nil
}

// Delete deletes a deal
func (r *dealRepository) Delete(id uuid.UUID) error {
	query := `DELETE FROM deals WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("deal not found")
	}

	return nil
}

// GetAll retrieves deals with filters
func (r *dealRepository) GetAll(filters DealFilters) ([]models.Deal, error) {
	query := `
		SELECT id, name, asset_type, market, purchase_price, created_by,
			   created_at, updated_at
		FROM deals
	`

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if len(filters.AssetTypes) > 0 {
		placeholders := make([]string, len(filters.AssetTypes))
		for i, assetType := range filters.AssetTypes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, assetType)
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf("asset_type IN (%s)", strings.Join(placeholders, ",")))
	}

	if filters.Market != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("market ILIKE $%d", argIndex))
		args = append(args, "%"+filters.Market+"%")
		argIndex++
	}

	if filters.CreatedBy != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_by = $%d", argIndex))
		args = append(args, *filters.CreatedBy)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY updated_at DESC"

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
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var deal models.Deal
		err := rows.Scan(
			&deal.ID, &deal.Name, &deal.AssetType, &deal.Market,
			&deal.PurchasePrice, &deal.CreatedBy, &deal.CreatedAt, &deal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, deal)
	}

	return deals, nil
}

// GetAllIDs retrieves all deal IDs
func (r *dealRepository) GetAllIDs() ([]uuid.UUID, error) {
	query := `SELECT id FROM deals ORDER BY updated_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal IDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deal ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// GetPurchasePrices retrieves every recorded purchase price, for portfolio
// percentile calculations
func (r *dealRepository) GetPurchasePrices() ([]float64, error) {
	query := `SELECT purchase_price FROM deals WHERE purchase_price IS NOT NULL`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase prices: %w", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var price float64
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("failed to scan purchase price: %w", err)
		}
		prices = append(prices, price)
	}

	return prices, nil
}
