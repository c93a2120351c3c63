package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignalType classifies a macro market signal
type SignalType string

const (
	SignalPricing            SignalType = "pricing"
	SignalCreditAvailability SignalType = "credit_availability"
	SignalCreditRisk         SignalType = "credit_risk"
	SignalLiquidity          SignalType = "liquidity"
	SignalSupplyDemand       SignalType = "supply_demand"
	SignalPolicy             SignalType = "policy"
	SignalDealSpecific       SignalType = "deal_specific"
	SignalUnknown            SignalType = "unknown"
)

var signalTypeNames = map[SignalType]string{
	SignalPricing:            "Pricing",
	SignalCreditAvailability: "Credit Availability",
	SignalCreditRisk:         "Credit Risk",
	SignalLiquidity:          "Liquidity",
	SignalSupplyDemand:       "Supply-Demand",
	SignalPolicy:             "Policy",
	SignalDealSpecific:       "Deal-Specific",
	SignalUnknown:            "Unknown",
}

// ParseSignalType maps a raw string to a SignalType. Both the stored form
// ("credit_risk") and the display form ("Credit Risk") are accepted; anything
// else maps to SignalUnknown.
func ParseSignalType(s string) SignalType {
	st := SignalType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := signalTypeNames[st]; ok && st != SignalUnknown {
		return st
	}
	for typ, name := range signalTypeNames {
		if typ != SignalUnknown && strings.EqualFold(name, strings.TrimSpace(s)) {
			return typ
		}
	}
	return SignalUnknown
}

// Valid reports whether the signal type belongs to the closed taxonomy
func (s SignalType) Valid() bool {
	_, ok := signalTypeNames[s]
	return ok && s != SignalUnknown
}

// DisplayName returns the human-readable name of the signal type
func (s SignalType) DisplayName() string {
	if name, ok := signalTypeNames[s]; ok {
		return name
	}
	return signalTypeNames[SignalUnknown]
}

// MacroSignal is a timestamped market observation shared across all deals.
// Signals are never owned by a deal; scoring runs query them read-only within
// a trailing window.
type MacroSignal struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SignalType SignalType `json:"signal_type" db:"signal_type"`
	Title      string     `json:"title" db:"title"`
	Text       string     `json:"text" db:"text"`
	Source     string     `json:"source,omitempty" db:"source"`
	ObservedAt time.Time  `json:"observed_at" db:"observed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// SignalLink relates one risk finding to one macro signal. The pair is unique;
// re-linking is a no-op and links are never deleted.
type SignalLink struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RiskFindingID uuid.UUID `json:"risk_finding_id" db:"risk_finding_id"`
	SignalID      uuid.UUID `json:"signal_id" db:"signal_id"`
	LinkReason    string    `json:"link_reason" db:"link_reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
