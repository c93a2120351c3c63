package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssumptionKey names a normalized underwriting metric
type AssumptionKey string

const (
	AssumptionPurchasePrice AssumptionKey = "purchase_price"
	AssumptionGoingInCap    AssumptionKey = "going_in_cap_rate"
	AssumptionExitCap       AssumptionKey = "exit_cap_rate"
	AssumptionNOI           AssumptionKey = "noi"
	AssumptionRentGrowth    AssumptionKey = "rent_growth"
	AssumptionExpenseGrowth AssumptionKey = "expense_growth"
	AssumptionVacancy       AssumptionKey = "vacancy"
	AssumptionLTV           AssumptionKey = "ltv"
	AssumptionDebtRate      AssumptionKey = "debt_rate"
	AssumptionHoldPeriod    AssumptionKey = "hold_period_years"
)

// KnownAssumptionKeys lists every metric the extraction layer may populate
var KnownAssumptionKeys = []AssumptionKey{
	AssumptionPurchasePrice,
	AssumptionGoingInCap,
	AssumptionExitCap,
	AssumptionNOI,
	AssumptionRentGrowth,
	AssumptionExpenseGrowth,
	AssumptionVacancy,
	AssumptionLTV,
	AssumptionDebtRate,
	AssumptionHoldPeriod,
}

// AssumptionValue holds one extracted metric. Value is nil when the extraction
// could not determine it.
type AssumptionValue struct {
	Value      *float64   `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Assumptions is the sparse map of underwriting metrics owned by a scan,
// persisted as a JSON column
type Assumptions map[AssumptionKey]AssumptionValue

// Lookup returns the numeric value for a key and whether it is defined
func (a Assumptions) Lookup(key AssumptionKey) (float64, bool) {
	if a == nil {
		return 0, false
	}
	av, ok := a[key]
	if !ok || av.Value == nil {
		return 0, false
	}
	return *av.Value, true
}

// DefinedCount returns how many assumptions carry a non-nil value
func (a Assumptions) DefinedCount() int {
	n := 0
	for _, av := range a {
		if av.Value != nil {
			n++
		}
	}
	return n
}

// Value implements driver.Valuer for Assumptions
func (a Assumptions) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(Assumptions{})
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for Assumptions
func (a *Assumptions) Scan(value interface{}) error {
	if value == nil {
		*a = Assumptions{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Assumptions", value)
	}

	return json.Unmarshal(bytes, a)
}

// ScanStatus represents scan lifecycle states
type ScanStatus string

const (
	ScanPending ScanStatus = "pending"
	ScanScoring ScanStatus = "scoring"
	ScanScored  ScanStatus = "scored"
	ScanFailed  ScanStatus = "failed"
)

// Scan represents one underwriting analysis run for a deal. Findings and
// assumptions are attached at submission; score fields are populated once by
// the scoring run and never rewritten.
type Scan struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	DealID         uuid.UUID           `json:"deal_id" db:"deal_id"`
	Status         ScanStatus          `json:"status" db:"status"`
	InputHash      string              `json:"input_hash" db:"input_hash"`
	SourceText     string              `json:"source_text,omitempty" db:"source_text"`
	Assumptions    Assumptions         `json:"assumptions" db:"assumptions"`
	RiskIndexScore *int                `json:"risk_index_score" db:"risk_index_score"`
	RiskBand       *Band               `json:"risk_band" db:"risk_band"`
	Breakdown      *RiskIndexBreakdown `json:"breakdown" db:"breakdown"`
	ModelVersion   string              `json:"model_version,omitempty" db:"model_version"`
	ErrorMessage   string              `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
	ScoredAt       *time.Time          `json:"scored_at" db:"scored_at"`
}
