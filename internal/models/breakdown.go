package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Band is the coarse classification of a risk index score
type Band string

const (
	BandLow      Band = "Low"
	BandModerate Band = "Moderate"
	BandElevated Band = "Elevated"
	BandHigh     Band = "High"
)

// Band cutpoints. The partition is fixed across model versions so that band
// transitions stay meaningful in the audit trail.
const (
	BandModerateFloor = 35
	BandElevatedFloor = 55
	BandHighFloor     = 75
)

// AllBands lists the bands in ascending risk order
var AllBands = []Band{BandLow, BandModerate, BandElevated, BandHigh}

// BandForScore classifies a clamped score into its band
func BandForScore(score int) Band {
	switch {
	case score >= BandHighFloor:
		return BandHigh
	case score >= BandElevatedFloor:
		return BandElevated
	case score >= BandModerateFloor:
		return BandModerate
	default:
		return BandLow
	}
}

// ExposureBucket labels a deal's size relative to the portfolio
type ExposureBucket string

const (
	ExposureNormal ExposureBucket = "Normal"
	ExposureHigh   ExposureBucket = "High"
)

// PointItem is one named, auditable point contribution inside a breakdown
type PointItem struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

// RiskIndexBreakdown explains the composition of a scan's risk index score.
// Delta fields are populated only when DeltaComparable is true; PreviousScore
// may be recorded for reference even when the prior scan's model version makes
// a delta meaningless.
type RiskIndexBreakdown struct {
	ModelVersion       string         `json:"model_version"`
	StructuralWeight   float64        `json:"structural_weight"`
	MarketWeight       float64        `json:"market_weight"`
	StructuralScore    float64        `json:"structural_score"`
	MarketScore        float64        `json:"market_score"`
	ConfidenceFactor   float64        `json:"confidence_factor"`
	Penalties          []PointItem    `json:"penalties"`
	Stabilizers        []PointItem    `json:"stabilizers"`
	MacroLinkedCount   int            `json:"macro_linked_count"`
	MacroDecayedWeight float64        `json:"macro_decayed_weight,omitempty"`
	ExposureBucket     ExposureBucket `json:"exposure_bucket,omitempty"`
	AlertTags          []string       `json:"alert_tags,omitempty"`
	PreviousScore      *int           `json:"previous_score,omitempty"`
	DeltaScore         *int           `json:"delta_score,omitempty"`
	DeltaBand          *string        `json:"delta_band,omitempty"`
	DeltaComparable    bool           `json:"delta_comparable"`
}

// Value implements driver.Valuer for RiskIndexBreakdown
func (b RiskIndexBreakdown) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for RiskIndexBreakdown
func (b *RiskIndexBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = RiskIndexBreakdown{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into RiskIndexBreakdown", value)
	}

	return json.Unmarshal(bytes, b)
}
