package relevance

import (
	"strings"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// typePattern describes which signals can corroborate one risk type: a set of
// declared signal types plus keyword patterns matched against signal text.
type typePattern struct {
	signalTypes map[models.SignalType]bool
	keywords    []string
}

// compatTable is the fixed risk-to-signal compatibility mapping. Risk types
// absent from the table (data_missing, unknown) never match any signal.
var compatTable = map[models.RiskType]typePattern{
	models.RiskRefiRisk: {
		signalTypes: map[models.SignalType]bool{
			models.SignalCreditAvailability: true,
			models.SignalCreditRisk:         true,
			models.SignalLiquidity:          true,
		},
		keywords: []string{"credit", "lender", "lending", "financing", "refinanc", "debt", "liquidity"},
	},
	models.RiskDebtCostRisk: {
		signalTypes: map[models.SignalType]bool{
			models.SignalCreditAvailability: true,
			models.SignalCreditRisk:         true,
			models.SignalLiquidity:          true,
		},
		keywords: []string{"credit", "lending", "financing", "debt", "interest rate", "sofr", "borrowing cost"},
	},
	models.RiskMarketLiquidityRisk: {
		signalTypes: map[models.SignalType]bool{
			models.SignalLiquidity:          true,
			models.SignalCreditAvailability: true,
		},
		keywords: []string{"liquidity", "transaction volume", "bid-ask", "lender", "credit", "financing"},
	},
	models.RiskExitCapCompression: {
		signalTypes: map[models.SignalType]bool{
			models.SignalPricing: true,
		},
		keywords: []string{"cap rate", "cap-rate", "spread", "pricing", "valuation", "yield"},
	},
	models.RiskRentGrowthAggressive: {
		signalTypes: map[models.SignalType]bool{
			models.SignalSupplyDemand: true,
		},
		keywords: []string{"rent", "supply", "demand", "absorption", "concession"},
	},
	models.RiskVacancyUnderstated: {
		signalTypes: map[models.SignalType]bool{
			models.SignalSupplyDemand: true,
		},
		keywords: []string{"vacancy", "occupancy", "supply", "demand", "sublease"},
	},
	models.RiskRegulatoryPolicyExposure: {
		signalTypes: map[models.SignalType]bool{
			models.SignalPolicy: true,
		},
		keywords: []string{"policy", "regulat", "rent control", "zoning", "tax", "legislation"},
	},
	models.RiskExpenseUnderstated: {
		keywords: []string{"expense", "inflation", "operating cost", "utility", "payroll"},
	},
	models.RiskInsuranceRisk: {
		keywords: []string{"insurance", "premium", "catastrophe", "coverage", "carrier"},
	},
	models.RiskConstructionTimingRisk: {
		signalTypes: map[models.SignalType]bool{
			models.SignalSupplyDemand: true,
		},
		keywords: []string{"construction", "deliveries", "pipeline", "permit", "material", "labor"},
	},
}

// typeMatches reports whether a signal's declared or text-inferred type
// satisfies the pattern for a risk type
func typeMatches(pattern typePattern, signal models.MacroSignal) bool {
	if pattern.signalTypes[signal.SignalType] {
		return true
	}
	text := strings.ToLower(signal.Title + " " + signal.Text)
	for _, kw := range pattern.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// assetClassKeywords maps canonical asset classes to the language that
// identifies them in commentary text
var assetClassKeywords = map[string][]string{
	"multifamily": {"multifamily", "multi-family", "apartment"},
	"office":      {"office"},
	"retail":      {"retail", "shopping center", "mall"},
	"industrial":  {"industrial", "warehouse", "logistics"},
	"hospitality": {"hotel", "hospitality"},
}

// inferredAssetClass returns the single asset class a signal is about, or ""
// when the text names none or several (broad commentary stays fail-open)
func inferredAssetClass(text string) string {
	found := ""
	for class, keywords := range assetClassKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				if found != "" && found != class {
					return ""
				}
				found = class
				break
			}
		}
	}
	return found
}

// usStates maps full state names to postal codes for market agreement checks
var usStates = map[string]string{
	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar",
	"california": "ca", "colorado": "co", "connecticut": "ct", "delaware": "de",
	"florida": "fl", "georgia": "ga", "hawaii": "hi", "idaho": "id",
	"illinois": "il", "indiana": "in", "iowa": "ia", "kansas": "ks",
	"kentucky": "ky", "louisiana": "la", "maine": "me", "maryland": "md",
	"massachusetts": "ma", "michigan": "mi", "minnesota": "mn", "mississippi": "ms",
	"missouri": "mo", "montana": "mt", "nebraska": "ne", "nevada": "nv",
	"new hampshire": "nh", "new jersey": "nj", "new mexico": "nm", "new york": "ny",
	"north carolina": "nc", "north dakota": "nd", "ohio": "oh", "oklahoma": "ok",
	"oregon": "or", "pennsylvania": "pa", "rhode island": "ri", "south carolina": "sc",
	"south dakota": "sd", "tennessee": "tn", "texas": "tx", "utah": "ut",
	"vermont": "vt", "virginia": "va", "washington": "wa", "west virginia": "wv",
	"wisconsin": "wi", "wyoming": "wy",
}

// inferredStates returns the full state names mentioned in signal text
func inferredStates(text string) []string {
	states := []string{}
	for name := range usStates {
		if strings.Contains(text, name) {
			states = append(states, name)
		}
	}
	return states
}

// marketsAgree reports whether a state inferred from signal text matches the
// deal's market, tolerating both full names and trailing postal codes
func marketsAgree(stateName, market string) bool {
	if strings.Contains(market, stateName) {
		return true
	}
	code := usStates[stateName]
	if code == "" {
		return false
	}
	trimmed := strings.TrimSpace(market)
	return strings.HasSuffix(trimmed, " "+code) || strings.HasSuffix(trimmed, ","+code) || trimmed == code
}

// contextCompatible applies the asset-class/geography relevance filter. A
// signal with no inferable context always passes.
func contextCompatible(signal models.MacroSignal, ctx models.DealContext) bool {
	text := strings.ToLower(signal.Title + " " + signal.Text)

	if class := inferredAssetClass(text); class != "" && ctx.AssetType != "" {
		asset := strings.ToLower(ctx.AssetType)
		if !strings.Contains(asset, class) && !strings.Contains(class, asset) {
			return false
		}
	}

	if states := inferredStates(text); len(states) > 0 && ctx.Market != "" {
		market := strings.ToLower(ctx.Market)
		agree := false
		for _, state := range states {
			if marketsAgree(state, market) {
				agree = true
				break
			}
		}
		if !agree {
			return false
		}
	}

	return true
}
