package repository

import (
	"time"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// DealForm represents the form data for creating/updating deals
type DealForm struct {
	Name          string   `json:"name" binding:"required"`
	AssetType     string   `json:"asset_type" binding:"required"`
	Market        string   `json:"market"`
	PurchasePrice *float64 `json:"purchase_price"`
}

// FindingForm represents one extracted risk finding submitted with a scan
type FindingForm struct {
	RiskType      string `json:"risk_type" binding:"required"`
	Severity      string `json:"severity" binding:"required"`
	Confidence    string `json:"confidence"`
	Rationale     string `json:"rationale"`
	SourceExcerpt string `json:"source_excerpt"`
}

// ToModel converts a validated form to a RiskFinding. The caller is
// responsible for rejecting out-of-taxonomy values first; this does not
// re-check them.
func (f *FindingForm) ToModel() models.RiskFinding {
	severity := models.ParseSeverity(f.Severity)
	return models.RiskFinding{
		RiskType:         models.ParseRiskType(f.RiskType),
		SeverityOriginal: severity,
		SeverityCurrent:  severity,
		Confidence:       models.ParseConfidence(f.Confidence),
		Rationale:        f.Rationale,
		SourceExcerpt:    f.SourceExcerpt,
	}
}

// ScanSubmission represents the form data for submitting a scan
type ScanSubmission struct {
	SourceText  string             `json:"source_text" binding:"required"`
	Assumptions models.Assumptions `json:"assumptions"`
	Findings    []FindingForm      `json:"findings"`
}

// SignalForm represents the form data for recording a macro signal
type SignalForm struct {
	SignalType string     `json:"signal_type" binding:"required"`
	Title      string     `json:"title" binding:"required"`
	Text       string     `json:"text"`
	Source     string     `json:"source"`
	ObservedAt *time.Time `json:"observed_at"`
}

// OutcomeForm represents the form data for recording a deal outcome
type OutcomeForm struct {
	OutcomeType  string   `json:"outcome_type" binding:"required"`
	OutcomeValue *float64 `json:"outcome_value"`
	Notes        string   `json:"notes"`
}

// ScanResponse pairs a scan with the findings and links attached to it
type ScanResponse struct {
	Scan     models.Scan          `json:"scan"`
	Findings []models.RiskFinding `json:"findings"`
	Links    []models.SignalLink  `json:"links"`
}

// PortfolioSummary aggregates scored deals for portfolio reporting
type PortfolioSummary struct {
	DealCount         int                  `json:"deal_count"`
	ScoredDealCount   int                  `json:"scored_deal_count"`
	AverageScore      *float64             `json:"average_score"`
	BandCounts        map[models.Band]int  `json:"band_counts"`
	SizePercentile80  *float64             `json:"size_percentile_80"`
	HighExposureDeals []PortfolioDealEntry `json:"high_exposure_deals"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

// PortfolioDealEntry is one deal's line in the portfolio summary
type PortfolioDealEntry struct {
	Deal           models.Deal  `json:"deal"`
	LatestScore    *int         `json:"latest_score"`
	LatestBand     *models.Band `json:"latest_band"`
	ExposureBucket string       `json:"exposure_bucket,omitempty"`
	AlertTags      []string     `json:"alert_tags,omitempty"`
}
