package models

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeType classifies a realized outcome recorded out-of-band for a deal
type OutcomeType string

const (
	OutcomeDefaultFlag OutcomeType = "default_flag"
	OutcomeLossRate    OutcomeType = "loss_rate"
	OutcomeUnknown     OutcomeType = "unknown"
)

// ParseOutcomeType maps a raw string to an OutcomeType
func ParseOutcomeType(s string) OutcomeType {
	switch OutcomeType(s) {
	case OutcomeDefaultFlag, OutcomeLossRate:
		return OutcomeType(s)
	}
	return OutcomeUnknown
}

// DealOutcome is a realized outcome attached to a deal after the fact. Deals
// without one are excluded from backtesting.
type DealOutcome struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	DealID       uuid.UUID   `json:"deal_id" db:"deal_id"`
	OutcomeType  OutcomeType `json:"outcome_type" db:"outcome_type"`
	OutcomeValue *float64    `json:"outcome_value" db:"outcome_value"`
	Notes        string      `json:"notes,omitempty" db:"notes"`
	RecordedBy   uuid.UUID   `json:"recorded_by" db:"recorded_by"`
	RecordedAt   time.Time   `json:"recorded_at" db:"recorded_at"`
}

// BacktestRecord pairs a scored scan with its deal's realized outcome
type BacktestRecord struct {
	ScanID         uuid.UUID   `json:"scan_id" db:"scan_id"`
	DealID         uuid.UUID   `json:"deal_id" db:"deal_id"`
	RiskIndexScore int         `json:"risk_index_score" db:"risk_index_score"`
	Band           Band        `json:"band" db:"risk_band"`
	ModelVersion   string      `json:"model_version" db:"model_version"`
	OutcomeType    OutcomeType `json:"actual_outcome_type" db:"outcome_type"`
	OutcomeValue   *float64    `json:"actual_outcome_value" db:"outcome_value"`
	ScoredAt       time.Time   `json:"scored_at" db:"scored_at"`
}

// BandMetrics holds the realized outcome statistics for one band
type BandMetrics struct {
	Band        Band    `json:"band"`
	Count       int     `json:"count"`
	Defaults    int     `json:"defaults"`
	DefaultRate float64 `json:"default_rate"`
	AvgLossRate float64 `json:"avg_loss_rate"`
}

// Discrimination compares realized default rates at the extremes of the band
// range
type Discrimination struct {
	PctHighDefaulted float64 `json:"pct_high_defaulted"`
	PctLowDefaulted  float64 `json:"pct_low_defaulted"`
	Spread           float64 `json:"spread"`
}

// PredictiveStrength is the categorical verdict on scoring validity
type PredictiveStrength string

const (
	StrengthWeak     PredictiveStrength = "Weak"
	StrengthModerate PredictiveStrength = "Moderate"
	StrengthStrong   PredictiveStrength = "Strong"
)

// BacktestMetrics is the full result of a backtest run. Correlation is nil
// when undefined; it is never reported as zero in that case.
type BacktestMetrics struct {
	SampleSize         int                `json:"sample_size"`
	Bands              []BandMetrics      `json:"bands"`
	Correlation        *float64           `json:"correlation"`
	Discrimination     Discrimination     `json:"discrimination"`
	PredictiveStrength PredictiveStrength `json:"predictive_strength"`
	GeneratedAt        time.Time          `json:"generated_at"`
}
