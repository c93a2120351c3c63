package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskType classifies a structural risk finding extracted from underwriting text
type RiskType string

const (
	RiskExitCapCompression       RiskType = "exit_cap_compression"
	RiskRentGrowthAggressive     RiskType = "rent_growth_aggressive"
	RiskVacancyUnderstated       RiskType = "vacancy_understated"
	RiskRefiRisk                 RiskType = "refi_risk"
	RiskDebtCostRisk             RiskType = "debt_cost_risk"
	RiskExpenseUnderstated       RiskType = "expense_understated"
	RiskInsuranceRisk            RiskType = "insurance_risk"
	RiskConstructionTimingRisk   RiskType = "construction_timing_risk"
	RiskMarketLiquidityRisk      RiskType = "market_liquidity_risk"
	RiskRegulatoryPolicyExposure RiskType = "regulatory_policy_exposure"
	RiskDataMissing              RiskType = "data_missing"
	RiskUnknown                  RiskType = "unknown"
)

var riskTypeNames = map[RiskType]string{
	RiskExitCapCompression:       "Exit Cap Compression",
	RiskRentGrowthAggressive:     "Rent Growth Aggressive",
	RiskVacancyUnderstated:       "Vacancy Understated",
	RiskRefiRisk:                 "Refi Risk",
	RiskDebtCostRisk:             "Debt Cost Risk",
	RiskExpenseUnderstated:       "Expense Understated",
	RiskInsuranceRisk:            "Insurance Risk",
	RiskConstructionTimingRisk:   "Construction Timing Risk",
	RiskMarketLiquidityRisk:      "Market Liquidity Risk",
	RiskRegulatoryPolicyExposure: "Regulatory Policy Exposure",
	RiskDataMissing:              "Data Missing",
	RiskUnknown:                  "Unknown",
}

// ParseRiskType maps a raw string to a RiskType, returning RiskUnknown for
// anything outside the closed set
func ParseRiskType(s string) RiskType {
	rt := RiskType(s)
	if _, ok := riskTypeNames[rt]; ok && rt != RiskUnknown {
		return rt
	}
	return RiskUnknown
}

// Valid reports whether the risk type belongs to the closed taxonomy
func (r RiskType) Valid() bool {
	_, ok := riskTypeNames[r]
	return ok && r != RiskUnknown
}

// DisplayName returns the human-readable name of the risk type
func (r RiskType) DisplayName() string {
	if name, ok := riskTypeNames[r]; ok {
		return name
	}
	return riskTypeNames[RiskUnknown]
}

// Severity grades a risk finding
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for comparison, higher is worse
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Escalated returns the severity bumped one step upward. Corroborating market
// evidence promotes low to medium; medium and high are left unchanged.
func (s Severity) Escalated() Severity {
	if s == SeverityLow {
		return SeverityMedium
	}
	return s
}

// ParseSeverity maps a raw string to a Severity, defaulting to low
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s)
	}
	return SeverityLow
}

// Confidence grades how certain the extraction was about a finding or value
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence maps a raw string to a Confidence, defaulting to low
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return Confidence(s)
	}
	return ConfidenceLow
}

// RiskFinding represents one structural risk identified on a scan.
// SeverityCurrent starts equal to SeverityOriginal and may be raised once by
// signal-link escalation and once by deterministic assumption overrides; it is
// immutable afterward.
type RiskFinding struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	ScanID           uuid.UUID  `json:"scan_id" db:"scan_id"`
	RiskType         RiskType   `json:"risk_type" db:"risk_type"`
	SeverityOriginal Severity   `json:"severity_original" db:"severity_original"`
	SeverityCurrent  Severity   `json:"severity_current" db:"severity_current"`
	Confidence       Confidence `json:"confidence" db:"confidence"`
	Rationale        string     `json:"rationale" db:"rationale"`
	SourceExcerpt    string     `json:"source_excerpt,omitempty" db:"source_excerpt"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
