package services

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// ScanExportService handles filtering and exporting scored scans
type ScanExportService struct {
	db *sql.DB
}

// NewScanExportService creates a new scan export service
func NewScanExportService(db *sql.DB) *ScanExportService {
	return &ScanExportService{
		db: db,
	}
}

// ExportFilter contains filtering criteria for scored scans
type ExportFilter struct {
	Bands         []string   `json:"bands"`          // Risk bands to include
	MinScore      *int       `json:"min_score"`      // Minimum score threshold
	MaxScore      *int       `json:"max_score"`      // Maximum score threshold
	AssetTypes    []string   `json:"asset_types"`    // Deal asset types to include
	Market        string     `json:"market"`         // Market substring match
	ModelVersions []string   `json:"model_versions"` // Scoring model versions to include
	ScoredAfter   *time.Time `json:"scored_after"`   // Only scans scored after this time
	ScoredBefore  *time.Time `json:"scored_before"`  // Only scans scored before this time
	HasOutcome    *bool      `json:"has_outcome"`    // Filter by recorded outcome presence
	Limit         *int       `json:"limit"`          // Limit number of results
}

// ExportFormat specifies the format for exporting scans
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ExportOptions contains options for exporting scored scans
type ExportOptions struct {
	Format           ExportFormat `json:"format"`
	IncludeBreakdown bool         `json:"include_breakdown"`
	IncludeMetadata  bool         `json:"include_metadata"`
}

// ScoredScanRow is one scored scan joined with its deal and outcome
type ScoredScanRow struct {
	// Deal information
	ScanID        string   `json:"scan_id" csv:"scan_id"`
	DealID        string   `json:"deal_id" csv:"deal_id"`
	DealName      string   `json:"deal_name" csv:"deal_name"`
	AssetType     string   `json:"asset_type" csv:"asset_type"`
	Market        string   `json:"market" csv:"market"`
	PurchasePrice *float64 `json:"purchase_price" csv:"purchase_price"`

	// Scoring information
	Score            int                        `json:"score" csv:"score"`
	Band             string                     `json:"band" csv:"band"`
	ModelVersion     string                     `json:"model_version" csv:"model_version"`
	ScoredAt         time.Time                  `json:"scored_at" csv:"scored_at"`
	DeltaScore       *int                       `json:"delta_score" csv:"delta_score"`
	DeltaComparable  bool                       `json:"delta_comparable" csv:"delta_comparable"`
	MacroLinkedCount int                        `json:"macro_linked_count" csv:"macro_linked_count"`
	ConfidenceFactor float64                    `json:"confidence_factor" csv:"confidence_factor"`
	ExposureBucket   string                     `json:"exposure_bucket" csv:"exposure_bucket"`
	AlertTags        []string                   `json:"alert_tags" csv:"alert_tags"`
	Breakdown        *models.RiskIndexBreakdown `json:"breakdown,omitempty" csv:"-"`

	// Realized outcome, when recorded
	OutcomeType  *string  `json:"outcome_type" csv:"outcome_type"`
	OutcomeValue *float64 `json:"outcome_value" csv:"outcome_value"`

	// Review annotations
	RiskHighlights []string `json:"risk_highlights" csv:"risk_highlights"`
}

// GetScoredScans retrieves scored scans that match the filtering criteria
func (s *ScanExportService) GetScoredScans(filter ExportFilter) ([]ScoredScanRow, error) {
	query, args := s.buildFilterQuery(filter)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute filter query: %w", err)
	}
	defer rows.Close()

	var scans []ScoredScanRow
	for rows.Next() {
		row, err := s.scanScoredRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}

		s.addRiskHighlights(&row)

		scans = append(scans, row)
	}

	return scans, nil
}

// Export exports scored scans in the specified format
func (s *ScanExportService) Export(filter ExportFilter, options ExportOptions) ([]byte, error) {
	scans, err := s.GetScoredScans(filter)
	if err != nil {
		return nil, err
	}

	switch options.Format {
	case FormatJSON:
		return s.exportToJSON(scans, options)
	case FormatCSV:
		return s.exportToCSV(scans)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", options.Format)
	}
}

// buildFilterQuery constructs the SQL query based on filter criteria
func (s *ScanExportService) buildFilterQuery(filter ExportFilter) (string, []interface{}) {
	baseQuery := `
		SELECT
			s.id, s.deal_id, d.name, d.asset_type, d.market, d.purchase_price,
			s.risk_index_score, s.risk_band, s.model_version, s.breakdown,
			s.scored_at, o.outcome_type, o.outcome_value
		FROM scans s
		JOIN deals d ON s.deal_id = d.id
		LEFT JOIN deal_outcomes o ON o.deal_id = s.deal_id
		WHERE s.status = $1
	`

	var conditions []string
	args := []interface{}{models.ScanScored}
	argIndex := 2

	// Filter by risk bands
	if len(filter.Bands) > 0 {
		placeholders := make([]string, len(filter.Bands))
		for i, band := range filter.Bands {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, band)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("s.risk_band IN (%s)", strings.Join(placeholders, ",")))
	}

	// Filter by score range
	if filter.MinScore != nil {
		conditions = append(conditions, fmt.Sprintf("s.risk_index_score >= $%d", argIndex))
		args = append(args, *filter.MinScore)
		argIndex++
	}

	if filter.MaxScore != nil {
		conditions = append(conditions, fmt.Sprintf("s.risk_index_score <= $%d", argIndex))
		args = append(args, *filter.MaxScore)
		argIndex++
	}

	// Filter by asset types
	if len(filter.AssetTypes) > 0 {
		placeholders := make([]string, len(filter.AssetTypes))
		for i, assetType := range filter.AssetTypes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, assetType)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("d.asset_type IN (%s)", strings.Join(placeholders, ",")))
	}

	// Filter by market substring
	if filter.Market != "" {
		conditions = append(conditions, fmt.Sprintf("d.market ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Market+"%")
		argIndex++
	}

	// Filter by model versions
	if len(filter.ModelVersions) > 0 {
		placeholders := make([]string, len(filter.ModelVersions))
		for i, version := range filter.ModelVersions {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, version)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("s.model_version IN (%s)", strings.Join(placeholders, ",")))
	}

	// Filter by scoring date range
	if filter.ScoredAfter != nil {
		conditions = append(conditions, fmt.Sprintf("s.scored_at >= $%d", argIndex))
		args = append(args, *filter.ScoredAfter)
		argIndex++
	}

	if filter.ScoredBefore != nil {
		conditions = append(conditions, fmt.Sprintf("s.scored_at <= $%d", argIndex))
		args = append(args, *filter.ScoredBefore)
		argIndex++
	}

	// Filter by recorded outcome presence
	if filter.HasOutcome != nil {
		if *filter.HasOutcome {
			conditions = append(conditions, "o.outcome_type IS NOT NULL")
		} else {
			conditions = append(conditions, "o.outcome_type IS NULL")
		}
	}

	// Build final query
	query := baseQuery
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY s.risk_index_score DESC, s.scored_at DESC"

	// Add limit if specified
	if filter.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *filter.Limit)
	}

	return query, args
}

// scanScoredRow scans a database row into a ScoredScanRow struct
func (s *ScanExportService) scanScoredRow(rows *sql.Rows) (ScoredScanRow, error) {
	var row ScoredScanRow
	var purchasePrice, outcomeValue sql.NullFloat64
	var outcomeType sql.NullString
	var breakdownJSON []byte

	err := rows.Scan(
		&row.ScanID, &row.DealID, &row.DealName, &row.AssetType, &row.Market,
		&purchasePrice, &row.Score, &row.Band, &row.ModelVersion, &breakdownJSON,
		&row.ScoredAt, &outcomeType, &outcomeValue,
	)
	if err != nil {
		return row, err
	}

	if purchasePrice.Valid {
		row.PurchasePrice = &purchasePrice.Float64
	}
	if outcomeType.Valid {
		row.OutcomeType = &outcomeType.String
	}
	if outcomeValue.Valid {
		row.OutcomeValue = &outcomeValue.Float64
	}

	if len(breakdownJSON) > 0 {
		var breakdown models.RiskIndexBreakdown
		if err := json.Unmarshal(breakdownJSON, &breakdown); err != nil {
			return row, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		row.Breakdown = &breakdown
		row.DeltaScore = breakdown.DeltaScore
		row.DeltaComparable = breakdown.DeltaComparable
		row.MacroLinkedCount = breakdown.MacroLinkedCount
		row.ConfidenceFactor = breakdown.ConfidenceFactor
		row.ExposureBucket = string(breakdown.ExposureBucket)
		row.AlertTags = breakdown.AlertTags
	}

	return row, nil
}

// addRiskHighlights annotates a row with the conditions a reviewer should
// look at first
func (s *ScanExportService) addRiskHighlights(row *ScoredScanRow) {
	var highlights []string

	switch models.Band(row.Band) {
	case models.BandHigh:
		highlights = append(highlights, "High risk band")
	case models.BandElevated:
		highlights = append(highlights, "Elevated risk band")
	}

	if row.DeltaComparable && row.DeltaScore != nil && *row.DeltaScore > 0 {
		highlights = append(highlights, fmt.Sprintf("Score rose %d points since prior scan", *row.DeltaScore))
	}

	if row.MacroLinkedCount >= 3 {
		highlights = append(highlights, fmt.Sprintf("Corroborated by %d market signals", row.MacroLinkedCount))
	}

	if row.Breakdown != nil && row.ConfidenceFactor > 0 && row.ConfidenceFactor < 0.75 {
		highlights = append(highlights, "Low extraction confidence")
	}

	for _, tag := range row.AlertTags {
		if tag == "concentration_watch" {
			highlights = append(highlights, "Large position in a risky band")
		}
	}

	if row.OutcomeType != nil {
		highlights = append(highlights, fmt.Sprintf("Realized outcome recorded: %s", *row.OutcomeType))
	}

	row.RiskHighlights = highlights
}

// exportToJSON exports scans to JSON format
func (s *ScanExportService) exportToJSON(scans []ScoredScanRow, options ExportOptions) ([]byte, error) {
	if !options.IncludeBreakdown {
		// Remove the full breakdown from each row
		for i := range scans {
			scans[i].Breakdown = nil
		}
	}

	exportData := map[string]interface{}{
		"scans":       scans,
		"count":       len(scans),
		"exported_at": time.Now().UTC(),
	}

	if options.IncludeMetadata {
		exportData["metadata"] = map[string]interface{}{
			"export_format":     "json",
			"include_breakdown": options.IncludeBreakdown,
			"total_scans":       len(scans),
		}
	}

	return json.MarshalIndent(exportData, "", "  ")
}

// exportToCSV exports scans to CSV format
func (s *ScanExportService) exportToCSV(scans []ScoredScanRow) ([]byte, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	// Write header
	headers := []string{
		"scan_id", "deal_id", "deal_name", "asset_type", "market",
		"purchase_price", "score", "band", "model_version", "scored_at",
		"delta_score", "delta_comparable", "macro_linked_count",
		"confidence_factor", "exposure_bucket", "alert_tags",
		"outcome_type", "outcome_value", "risk_highlights",
	}

	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	// Write data rows
	for _, row := range scans {
		record := []string{
			row.ScanID,
			row.DealID,
			row.DealName,
			row.AssetType,
			row.Market,
			s.formatNullFloat(row.PurchasePrice),
			strconv.Itoa(row.Score),
			row.Band,
			row.ModelVersion,
			row.ScoredAt.Format(time.RFC3339),
			s.formatNullInt(row.DeltaScore),
			strconv.FormatBool(row.DeltaComparable),
			strconv.Itoa(row.MacroLinkedCount),
			strconv.FormatFloat(row.ConfidenceFactor, 'f', 2, 64),
			row.ExposureBucket,
			strings.Join(row.AlertTags, "; "),
			s.formatNullString(row.OutcomeType),
			s.formatNullFloat(row.OutcomeValue),
			strings.Join(row.RiskHighlights, "; "),
		}

		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return []byte(output.String()), nil
}

// Helper functions for CSV formatting
func (s *ScanExportService) formatNullString(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}

func (s *ScanExportService) formatNullInt(val *int) string {
	if val == nil {
		return ""
	}
	return strconv.Itoa(*val)
}

func (s *ScanExportService) formatNullFloat(val *float64) string {
	if val == nil {
		return ""
	}
	return strconv.FormatFloat(*val, 'f', 2, 64)
}
