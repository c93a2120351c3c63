package ingest

import (
	"strings"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// signalKeywords maps commentary vocabulary to signal types. Order matters:
// earlier entries win ties, so the narrower credit categories come before
// the broad supply and pricing buckets.
var signalKeywords = []struct {
	signalType models.SignalType
	keywords   []string
}{
	{models.SignalCreditRisk, []string{
		"default", "delinquenc", "special servicing", "distress",
		"watchlist", "downgrade", "maturity wall", "loan loss",
	}},
	{models.SignalCreditAvailability, []string{
		"lending standards", "credit availability", "origination",
		"refinanc", "debt fund", "loan spread", "credit tightening",
	}},
	{models.SignalLiquidity, []string{
		"transaction volume", "liquidity", "bid-ask", "deal flow",
		"sales volume", "dry powder",
	}},
	{models.SignalSupplyDemand, []string{
		"vacancy", "absorption", "new supply", "deliveries",
		"completions", "sublease", "leasing activity", "construction pipeline",
	}},
	{models.SignalPolicy, []string{
		"federal reserve", "fomc", "rate cut", "rate hike",
		"regulation", "zoning", "tax abatement", "rent control",
	}},
	{models.SignalPricing, []string{
		"cap rate", "valuation", "repricing", "price per square foot",
		"appraisal", "asset pricing",
	}},
}

// Classify picks the signal type whose vocabulary best matches the item.
// Title hits count double because headlines name the subject while body text
// wanders. Items matching nothing are not signals.
func Classify(title, text string) (models.SignalType, bool) {
	title = strings.ToLower(title)
	text = strings.ToLower(text)

	best := models.SignalUnknown
	bestScore := 0

	for _, entry := range signalKeywords {
		score := 0
		for _, keyword := range entry.keywords {
			if strings.Contains(title, keyword) {
				score += 2
			}
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.signalType
		}
	}

	if best == models.SignalUnknown {
		return models.SignalUnknown, false
	}
	return best, true
}
