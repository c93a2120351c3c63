package relevance

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// linkReasonTextLimit caps how much signal text a link justification quotes
const linkReasonTextLimit = 80

// decayHalfLifeDays controls how quickly a linked category's weight fades
const decayHalfLifeDays = 15.0

// Matcher decides which macro signals corroborate which risk findings. Match
// is a pure function of its inputs; persisting the resulting diff is the
// caller's second phase.
type Matcher struct{}

// NewMatcher creates a new relevance matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// MatchResult is the diff a matching run proposes: links to upsert and
// severity escalations to apply. Escalations only ever move severity upward.
type MatchResult struct {
	Links       []models.SignalLink
	Escalations map[uuid.UUID]models.Severity
}

type pairKey struct {
	findingID uuid.UUID
	signalID  uuid.UUID
}

// Match cross-references risk findings against candidate signals under the
// deal's context. Absent findings or signals degrade to an empty diff, never
// an error. Link IDs are assigned at persistence.
func (m *Matcher) Match(findings []models.RiskFinding, signals []models.MacroSignal, ctx models.DealContext) MatchResult {
	result := MatchResult{
		Links:       []models.SignalLink{},
		Escalations: make(map[uuid.UUID]models.Severity),
	}
	if len(findings) == 0 || len(signals) == 0 {
		return result
	}

	seen := make(map[pairKey]bool)
	for _, finding := range findings {
		pattern, mapped := compatTable[finding.RiskType]
		if !mapped {
			continue
		}

		linked := false
		for _, signal := range signals {
			if !typeMatches(pattern, signal) {
				continue
			}
			if !contextCompatible(signal, ctx) {
				continue
			}
			key := pairKey{finding.ID, signal.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Links = append(result.Links, models.SignalLink{
				RiskFindingID: finding.ID,
				SignalID:      signal.ID,
				LinkReason:    linkReason(signal),
			})
			linked = true
		}

		if linked {
			if escalated := finding.SeverityCurrent.Escalated(); escalated != finding.SeverityCurrent {
				result.Escalations[finding.ID] = escalated
			}
		}
	}

	return result
}

// linkReason builds the human-readable justification recorded on a link
func linkReason(signal models.MacroSignal) string {
	text := signal.Text
	if text == "" {
		text = signal.Title
	}
	runes := []rune(text)
	if len(runes) > linkReasonTextLimit {
		text = string(runes[:linkReasonTextLimit])
	}
	return fmt.Sprintf("Signal: %s — %s", signal.SignalType.DisplayName(), text)
}

// MacroExposure derives scoring's macro inputs from the links of one scan.
// The count is the number of distinct signal categories linked; repeated
// links inside a category never double-count. The decayed weight discounts
// each category by the age of its most recent linked signal.
func MacroExposure(links []models.SignalLink, signals []models.MacroSignal, now time.Time) (int, float64) {
	if len(links) == 0 {
		return 0, 0
	}

	byID := make(map[uuid.UUID]models.MacroSignal, len(signals))
	for _, s := range signals {
		byID[s.ID] = s
	}

	newestPerCategory := make(map[models.SignalType]time.Time)
	for _, link := range links {
		signal, ok := byID[link.SignalID]
		if !ok {
			continue
		}
		if newest, exists := newestPerCategory[signal.SignalType]; !exists || signal.ObservedAt.After(newest) {
			newestPerCategory[signal.SignalType] = signal.ObservedAt
		}
	}

	var decayed float64
	for _, observed := range newestPerCategory {
		ageDays := now.Sub(observed).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		decayed += math.Exp(-ageDays * math.Ln2 / decayHalfLifeDays)
	}

	return len(newestPerCategory), decayed
}
