package backtest

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// Verdict thresholds. The strength rule always combines sample size,
// correlation magnitude, and discrimination spread; a small sample can show a
// spurious correlation on its own.
const (
	minSampleSize       = 2
	strongSampleSize    = 20
	moderateCorrelation = 0.25
	strongCorrelation   = 0.50
	moderateSpread      = 0.10
	strongSpread        = 0.25
)

// Engine computes retrospective validation metrics over scored scans joined
// with realized deal outcomes.
type Engine struct{}

// NewEngine creates a new backtest engine
func NewEngine() *Engine {
	return &Engine{}
}

// Run aggregates backtest records into portfolio-level metrics. Zero records
// produce a fully-defined zero result so callers can render an empty state
// without special cases.
func (e *Engine) Run(records []models.BacktestRecord) models.BacktestMetrics {
	metrics := models.BacktestMetrics{
		Bands:              make([]models.BandMetrics, len(models.AllBands)),
		PredictiveStrength: models.StrengthWeak,
		GeneratedAt:        time.Now().UTC(),
	}
	for i, band := range models.AllBands {
		metrics.Bands[i] = models.BandMetrics{Band: band}
	}

	annotated := filterAnnotated(records)
	metrics.SampleSize = len(annotated)
	if metrics.SampleSize == 0 {
		return metrics
	}

	byBand := make(map[models.Band][]models.BacktestRecord)
	for _, record := range annotated {
		byBand[record.Band] = append(byBand[record.Band], record)
	}
	for i, band := range models.AllBands {
		metrics.Bands[i] = bandMetrics(band, byBand[band])
	}

	metrics.Discrimination = discrimination(metrics.Bands)
	metrics.Correlation = correlation(annotated)
	metrics.PredictiveStrength = strength(metrics.SampleSize, metrics.Correlation, metrics.Discrimination.Spread)

	return metrics
}

// filterAnnotated keeps only records carrying a recorded outcome type
func filterAnnotated(records []models.BacktestRecord) []models.BacktestRecord {
	annotated := make([]models.BacktestRecord, 0, len(records))
	for _, record := range records {
		if record.OutcomeType == "" {
			continue
		}
		annotated = append(annotated, record)
	}
	return annotated
}

// isDefault reports whether a record realized a default. A default flag with
// no numeric value still records the event itself.
func isDefault(record models.BacktestRecord) bool {
	if record.OutcomeType != models.OutcomeDefaultFlag {
		return false
	}
	if record.OutcomeValue == nil {
		return true
	}
	return *record.OutcomeValue >= 1
}

func bandMetrics(band models.Band, records []models.BacktestRecord) models.BandMetrics {
	m := models.BandMetrics{Band: band, Count: len(records)}

	var lossSum float64
	var lossCount int
	for _, record := range records {
		if isDefault(record) {
			m.Defaults++
		}
		if record.OutcomeValue != nil {
			lossSum += *record.OutcomeValue
			lossCount++
		}
	}

	if m.Count > 0 {
		m.DefaultRate = float64(m.Defaults) / float64(m.Count)
	}
	if lossCount > 0 {
		m.AvgLossRate = lossSum / float64(lossCount)
	}
	return m
}

func discrimination(bands []models.BandMetrics) models.Discrimination {
	var d models.Discrimination
	for _, band := range bands {
		switch band.Band {
		case models.BandHigh:
			d.PctHighDefaulted = band.DefaultRate
		case models.BandLow:
			d.PctLowDefaulted = band.DefaultRate
		}
	}
	d.Spread = math.Abs(d.PctHighDefaulted - d.PctLowDefaulted)
	return d
}

// derivedOutcome maps a record to the numeric outcome used for correlation:
// the recorded value when present, else 1 for a bare default flag.
func derivedOutcome(record models.BacktestRecord) (float64, bool) {
	if record.OutcomeValue != nil {
		return *record.OutcomeValue, true
	}
	if record.OutcomeType == models.OutcomeDefaultFlag {
		return 1, true
	}
	return 0, false
}

// correlation computes the Pearson coefficient between scores and derived
// outcomes. It returns nil when fewer than two pairs exist or either series
// has zero variance; an undefined correlation is never reported as zero.
func correlation(records []models.BacktestRecord) *float64 {
	var scores, outcomes stats.Float64Data
	for _, record := range records {
		outcome, ok := derivedOutcome(record)
		if !ok {
			continue
		}
		scores = append(scores, float64(record.RiskIndexScore))
		outcomes = append(outcomes, outcome)
	}
	if len(scores) < 2 {
		return nil
	}

	scoreDev, err := stats.StandardDeviationPopulation(scores)
	if err != nil || scoreDev == 0 {
		return nil
	}
	outcomeDev, err := stats.StandardDeviationPopulation(outcomes)
	if err != nil || outcomeDev == 0 {
		return nil
	}

	r, err := stats.Pearson(scores, outcomes)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	r = math.Max(-1, math.Min(1, r))
	return &r
}

func strength(sampleSize int, correlation *float64, spread float64) models.PredictiveStrength {
	if sampleSize < minSampleSize || correlation == nil {
		return models.StrengthWeak
	}
	abs := math.Abs(*correlation)
	if sampleSize >= strongSampleSize && abs >= strongCorrelation && spread >= strongSpread {
		return models.StrengthStrong
	}
	if abs >= moderateCorrelation && spread >= moderateSpread {
		return models.StrengthModerate
	}
	return models.StrengthWeak
}
