package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// Engine computes the composite risk index for a scan under one model version
type Engine struct {
	cfg ModelConfig
}

// NewEngine creates an engine on the current model version
func NewEngine() *Engine {
	return &Engine{cfg: CurrentConfig()}
}

// NewEngineForVersion creates an engine pinned to a registered model version
func NewEngineForVersion(version string) (*Engine, error) {
	cfg, ok := GetModelConfig(version)
	if !ok {
		return nil, errors.UnknownModelVersion(version)
	}
	return &Engine{cfg: cfg}, nil
}

// ModelVersion returns the version this engine scores under
func (e *Engine) ModelVersion() string {
	return e.cfg.Version
}

// Input carries everything one scoring run consumes
type Input struct {
	Findings             []models.RiskFinding
	Assumptions          models.Assumptions
	MacroLinkedCount     int
	MacroDecayedWeight   float64
	PreviousScore        *int
	PreviousModelVersion string
}

// Result is the scored output persisted onto the scan
type Result struct {
	Score     int
	Band      models.Band
	Breakdown models.RiskIndexBreakdown
	ScoredAt  time.Time
}

// SeverityOverrides returns the severity each finding must be raised to based
// on numeric assumptions. High leverage makes refinancing and debt cost
// findings read high regardless of what extraction assigned. Overrides only
// ever raise severity.
func (e *Engine) SeverityOverrides(findings []models.RiskFinding, assumptions models.Assumptions) map[uuid.UUID]models.Severity {
	overrides := make(map[uuid.UUID]models.Severity)

	ltv, ok := assumptions.Lookup(models.AssumptionLTV)
	if !ok || ltv < e.cfg.OverrideLTVMin {
		return overrides
	}

	for _, f := range findings {
		if f.RiskType != models.RiskRefiRisk && f.RiskType != models.RiskDebtCostRisk {
			continue
		}
		if f.SeverityCurrent.Rank() < models.SeverityHigh.Rank() {
			overrides[f.ID] = models.SeverityHigh
		}
	}
	return overrides
}

// Score computes the 0-100 risk index, its band, and the full breakdown.
// Missing assumption values mean the related stabilizers and penalties do not
// apply; an empty finding list scores the minimum contribution. Out-of-range
// intermediate values are clamped, never rejected.
func (e *Engine) Score(in Input) Result {
	cfg := e.cfg

	findings := e.withOverrides(in.Findings, in.Assumptions)

	// Structural vs market point sums
	var structuralPoints, marketPoints float64
	structuralCount := 0
	for _, f := range findings {
		points := cfg.SeverityPoints[f.SeverityCurrent] * cfg.ConfidenceMultiplier[f.Confidence]
		if cfg.StructuralTypes[f.RiskType] {
			structuralPoints += points
			structuralCount++
		} else {
			marketPoints += points
		}
	}

	structuralScore := clamp(structuralPoints*cfg.StructuralNormScale, 0, 100)
	marketScore := clamp(marketPoints*cfg.MarketNormScale, 0, 100)

	// Blend weights follow the finding mix so the breakdown explains whether
	// the score is deal-driven or market-driven
	structuralWeight := cfg.DefaultStructuralWeight
	if len(findings) > 0 {
		share := float64(structuralCount) / float64(len(findings))
		structuralWeight = clamp(share, cfg.MinStructuralWeight, cfg.MaxStructuralWeight)
	}
	marketWeight := 1 - structuralWeight

	blended := structuralScore*structuralWeight + marketScore*marketWeight

	confidenceFactor := e.confidenceFactor(findings, in.Assumptions)
	adjusted := blended * confidenceFactor

	stabilizers := e.stabilizers(in.Assumptions)
	penalties := e.penalties(in.Assumptions, in.MacroLinkedCount, in.MacroDecayedWeight)

	raw := adjusted
	for _, s := range stabilizers {
		raw += s.Points
	}
	for _, p := range penalties {
		raw += p.Points
	}

	score := int(math.Round(clamp(raw, 0, 100)))
	band := models.BandForScore(score)

	breakdown := models.RiskIndexBreakdown{
		ModelVersion:       cfg.Version,
		StructuralWeight:   structuralWeight,
		MarketWeight:       marketWeight,
		StructuralScore:    round2(structuralScore),
		MarketScore:        round2(marketScore),
		ConfidenceFactor:   round2(confidenceFactor),
		Penalties:          penalties,
		Stabilizers:        stabilizers,
		MacroLinkedCount:   in.MacroLinkedCount,
		MacroDecayedWeight: round2(in.MacroDecayedWeight),
	}

	e.applyDelta(&breakdown, score, band, in.PreviousScore, in.PreviousModelVersion)

	return Result{
		Score:     score,
		Band:      band,
		Breakdown: breakdown,
		ScoredAt:  time.Now(),
	}
}

// withOverrides returns a copy of the findings with severity overrides applied
func (e *Engine) withOverrides(findings []models.RiskFinding, assumptions models.Assumptions) []models.RiskFinding {
	overrides := e.SeverityOverrides(findings, assumptions)
	if len(overrides) == 0 {
		return findings
	}
	out := make([]models.RiskFinding, len(findings))
	copy(out, findings)
	for i := range out {
		if sev, ok := overrides[out[i].ID]; ok {
			out[i].SeverityCurrent = sev
		}
	}
	return out
}

// confidenceFactor reflects how much of the input is high-confidence. Findings
// and defined assumption values count equally; medium confidence counts half.
// With no rated inputs at all the factor stays neutral.
func (e *Engine) confidenceFactor(findings []models.RiskFinding, assumptions models.Assumptions) float64 {
	var rated, weight float64
	for _, f := range findings {
		rated++
		weight += confidenceCredit(f.Confidence)
	}
	for _, av := range assumptions {
		if av.Value == nil {
			continue
		}
		rated++
		weight += confidenceCredit(av.Confidence)
	}
	if rated == 0 {
		return 1.0
	}
	share := weight / rated
	return clamp(e.cfg.ConfidenceFloor+(1-e.cfg.ConfidenceFloor)*share, 0, 1)
}

func confidenceCredit(c models.Confidence) float64 {
	switch c {
	case models.ConfidenceHigh:
		return 1.0
	case models.ConfidenceMedium:
		return 0.5
	default:
		return 0
	}
}

// stabilizers returns the named negative adjustments earned by conservative
// underwriting. A missing assumption value simply means the stabilizer does
// not apply.
func (e *Engine) stabilizers(assumptions models.Assumptions) []models.PointItem {
	cfg := e.cfg
	items := []models.PointItem{}

	if ltv, ok := assumptions.Lookup(models.AssumptionLTV); ok && ltv <= cfg.ConservativeLTVMax {
		items = append(items, models.PointItem{
			Name:   "conservative_leverage",
			Points: cfg.ConservativeLTVPoints,
			Detail: fmt.Sprintf("LTV %.1f at or below %.0f", ltv, cfg.ConservativeLTVMax),
		})
	}

	goingIn, hasGoingIn := assumptions.Lookup(models.AssumptionGoingInCap)
	exit, hasExit := assumptions.Lookup(models.AssumptionExitCap)
	if hasGoingIn && hasExit && exit >= goingIn {
		items = append(items, models.PointItem{
			Name:   "exit_cap_cushion",
			Points: cfg.ExitCapCushionPoints,
			Detail: fmt.Sprintf("exit cap %.2f at or above going-in %.2f", exit, goingIn),
		})
	}

	if growth, ok := assumptions.Lookup(models.AssumptionRentGrowth); ok && growth <= cfg.ModestRentGrowthMax {
		items = append(items, models.PointItem{
			Name:   "modest_rent_growth",
			Points: cfg.ModestRentGrowthPoints,
			Detail: fmt.Sprintf("rent growth %.1f%% at or below %.1f%%", growth, cfg.ModestRentGrowthMax),
		})
	}

	return items
}

// penalties returns the named positive adjustments from aggressive
// assumptions and linked macro exposure
func (e *Engine) penalties(assumptions models.Assumptions, macroCount int, macroDecayed float64) []models.PointItem {
	cfg := e.cfg
	items := []models.PointItem{}

	if ltv, ok := assumptions.Lookup(models.AssumptionLTV); ok && ltv >= cfg.HighLTVMin {
		items = append(items, models.PointItem{
			Name:   "high_leverage",
			Points: cfg.HighLeveragePoints,
			Detail: fmt.Sprintf("LTV %.1f at or above %.0f", ltv, cfg.HighLTVMin),
		})
	}

	goingIn, hasGoingIn := assumptions.Lookup(models.AssumptionGoingInCap)
	exit, hasExit := assumptions.Lookup(models.AssumptionExitCap)
	if hasGoingIn && hasExit && exit < goingIn-cfg.AggressiveExitSpreadPct {
		items = append(items, models.PointItem{
			Name:   "aggressive_exit_cap",
			Points: cfg.AggressiveExitPoints,
			Detail: fmt.Sprintf("exit cap %.2f assumed %.2f below going-in", exit, goingIn-exit),
		})
	}

	if macroCount > 0 {
		// Distinct linked categories drive the penalty; repeated links within a
		// category never double-count. The decayed weight discounts stale links.
		effective := float64(macroCount)
		if macroDecayed > 0 {
			effective = math.Min(effective, macroDecayed)
		}
		points := math.Min(cfg.MacroPointsPerCategory*effective, cfg.MacroPenaltyCap)
		items = append(items, models.PointItem{
			Name:   "macro_exposure",
			Points: round2(points),
			Detail: fmt.Sprintf("%d linked macro categories, decayed weight %.2f", macroCount, effective),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// applyDelta records the prior score and, when the model versions agree, the
// score and band movement. Scores computed under different versions are never
// diffed; the prior score is kept for reference only.
func (e *Engine) applyDelta(b *models.RiskIndexBreakdown, score int, band models.Band, prevScore *int, prevVersion string) {
	if prevScore == nil {
		return
	}
	b.PreviousScore = prevScore

	if prevVersion != e.cfg.Version {
		b.DeltaComparable = false
		return
	}

	b.DeltaComparable = true
	delta := score - *prevScore
	b.DeltaScore = &delta

	prevBand := models.BandForScore(*prevScore)
	if prevBand != band {
		transition := fmt.Sprintf("%s → %s", prevBand, band)
		b.DeltaBand = &transition
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
