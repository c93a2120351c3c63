package scoring

import (
	"sort"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// CurrentModelVersion is the model applied to new scans
const CurrentModelVersion = "2.0"

// ModelConfig holds every constant of one scoring model version. A registered
// config is immutable; recalibration ships as a new version so that scores
// computed under different rubrics are never silently diffed.
type ModelConfig struct {
	Version string

	// Finding contributions
	SeverityPoints       map[models.Severity]float64
	ConfidenceMultiplier map[models.Confidence]float64
	StructuralTypes      map[models.RiskType]bool

	// Sub-score normalization and blend weights
	StructuralNormScale     float64
	MarketNormScale         float64
	MinStructuralWeight     float64
	MaxStructuralWeight     float64
	DefaultStructuralWeight float64

	// Overall confidence multiplier floor
	ConfidenceFloor float64

	// Deterministic severity overrides
	OverrideLTVMin float64

	// Stabilizers
	ConservativeLTVMax     float64
	ConservativeLTVPoints  float64
	ExitCapCushionPoints   float64
	ModestRentGrowthMax    float64
	ModestRentGrowthPoints float64

	// Penalties
	HighLTVMin              float64
	HighLeveragePoints      float64
	AggressiveExitSpreadPct float64
	AggressiveExitPoints    float64
	MacroPointsPerCategory  float64
	MacroPenaltyCap         float64
}

// structuralTypes is shared by all model versions to date. Leverage,
// refinancing, expense, vacancy, construction, insurance and data-quality
// findings describe the deal itself; everything else reads the market.
func structuralTypes() map[models.RiskType]bool {
	return map[models.RiskType]bool{
		models.RiskRefiRisk:               true,
		models.RiskDebtCostRisk:           true,
		models.RiskExpenseUnderstated:     true,
		models.RiskVacancyUnderstated:     true,
		models.RiskRentGrowthAggressive:   true,
		models.RiskConstructionTimingRisk: true,
		models.RiskInsuranceRisk:          true,
		models.RiskDataMissing:            true,
	}
}

func modelV19() ModelConfig {
	return ModelConfig{
		Version: "1.9",
		SeverityPoints: map[models.Severity]float64{
			models.SeverityHigh:   30,
			models.SeverityMedium: 18,
			models.SeverityLow:    8,
		},
		ConfidenceMultiplier: map[models.Confidence]float64{
			models.ConfidenceHigh:   1.0,
			models.ConfidenceMedium: 0.8,
			models.ConfidenceLow:    0.5,
		},
		StructuralTypes:         structuralTypes(),
		StructuralNormScale:     2.0,
		MarketNormScale:         2.5,
		MinStructuralWeight:     0.40,
		MaxStructuralWeight:     0.80,
		DefaultStructuralWeight: 0.60,
		ConfidenceFloor:         0.50,
		OverrideLTVMin:          75,
		ConservativeLTVMax:      60,
		ConservativeLTVPoints:   -5,
		ExitCapCushionPoints:    -4,
		ModestRentGrowthMax:     2.0,
		ModestRentGrowthPoints:  -2,
		HighLTVMin:              75,
		HighLeveragePoints:      6,
		AggressiveExitSpreadPct: 0.25,
		AggressiveExitPoints:    3,
		MacroPointsPerCategory:  2.0,
		MacroPenaltyCap:         8,
	}
}

func modelV20() ModelConfig {
	return ModelConfig{
		Version: "2.0",
		SeverityPoints: map[models.Severity]float64{
			models.SeverityHigh:   35,
			models.SeverityMedium: 20,
			models.SeverityLow:    10,
		},
		ConfidenceMultiplier: map[models.Confidence]float64{
			models.ConfidenceHigh:   1.0,
			models.ConfidenceMedium: 0.85,
			models.ConfidenceLow:    0.6,
		},
		StructuralTypes:         structuralTypes(),
		StructuralNormScale:     2.0,
		MarketNormScale:         2.5,
		MinStructuralWeight:     0.35,
		MaxStructuralWeight:     0.85,
		DefaultStructuralWeight: 0.60,
		ConfidenceFloor:         0.60,
		OverrideLTVMin:          75,
		ConservativeLTVMax:      60,
		ConservativeLTVPoints:   -6,
		ExitCapCushionPoints:    -5,
		ModestRentGrowthMax:     2.0,
		ModestRentGrowthPoints:  -3,
		HighLTVMin:              75,
		HighLeveragePoints:      8,
		AggressiveExitSpreadPct: 0.25,
		AggressiveExitPoints:    4,
		MacroPointsPerCategory:  2.5,
		MacroPenaltyCap:         10,
	}
}

var modelRegistry = map[string]ModelConfig{
	"1.9": modelV19(),
	"2.0": modelV20(),
}

// GetModelConfig returns the registered config for a model version
func GetModelConfig(version string) (ModelConfig, bool) {
	cfg, ok := modelRegistry[version]
	return cfg, ok
}

// CurrentConfig returns the config for CurrentModelVersion
func CurrentConfig() ModelConfig {
	return modelRegistry[CurrentModelVersion]
}

// RegisteredVersions lists every known model version in ascending order
func RegisteredVersions() []string {
	versions := make([]string, 0, len(modelRegistry))
	for v := range modelRegistry {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
