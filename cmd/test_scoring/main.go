package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/scoring"
)

func main() {
	fmt.Println("🎯 Risk Index Engine Test")
	fmt.Println("=========================")

	// Create scoring engine
	engine := scoring.NewEngine()
	fmt.Printf("Model version: %s\n", engine.ModelVersion())

	// Simulate a stressed value-add underwriting package
	fmt.Println("\n🔹 Testing Stressed Value-Add Deal")
	fmt.Println("==================================")

	stressedFindings := []models.RiskFinding{
		{
			ID:               uuid.New(),
			RiskType:         models.RiskExitCapCompression,
			SeverityOriginal: models.SeverityHigh,
			SeverityCurrent:  models.SeverityHigh,
			Confidence:       models.ConfidenceHigh,
			Rationale:        "Exit cap 75bps below going-in with no supporting comps",
		},
		{
			ID:               uuid.New(),
			RiskType:         models.RiskRentGrowthAggressive,
			SeverityOriginal: models.SeverityMedium,
			SeverityCurrent:  models.SeverityMedium,
			Confidence:       models.ConfidenceMedium,
			Rationale:        "5.5% annual rent growth against a 2.1% submarket trailing average",
		},
		{
			ID:               uuid.New(),
			RiskType:         models.RiskRefiRisk,
			SeverityOriginal: models.SeverityMedium,
			SeverityCurrent:  models.SeverityMedium,
			Confidence:       models.ConfidenceMedium,
			Rationale:        "Bridge loan matures in year 2 before stabilization",
		},
	}

	stressedAssumptions := models.Assumptions{
		models.AssumptionLTV:        assumption(0.78, models.ConfidenceHigh),
		models.AssumptionGoingInCap: assumption(0.050, models.ConfidenceHigh),
		models.AssumptionExitCap:    assumption(0.0425, models.ConfidenceHigh),
		models.AssumptionVacancy:    assumption(0.03, models.ConfidenceMedium),
		models.AssumptionRentGrowth: assumption(0.055, models.ConfidenceMedium),
	}

	// High leverage raises refi and debt cost findings before scoring
	overrides := engine.SeverityOverrides(stressedFindings, stressedAssumptions)
	for id, severity := range overrides {
		for i := range stressedFindings {
			if stressedFindings[i].ID == id {
				fmt.Printf("Override: %s raised to %s\n", stressedFindings[i].RiskType, severity)
				stressedFindings[i].SeverityCurrent = severity
			}
		}
	}

	stressedResult := engine.Score(scoring.Input{
		Findings:           stressedFindings,
		Assumptions:        stressedAssumptions,
		MacroLinkedCount:   2,
		MacroDecayedWeight: 1.6,
	})

	printScoringResult("Stressed Value-Add", stressedResult)

	// Simulate a conservative core acquisition
	fmt.Println("\n🔸 Testing Conservative Core Deal")
	fmt.Println("=================================")

	coreFindings := []models.RiskFinding{
		{
			ID:               uuid.New(),
			RiskType:         models.RiskExpenseUnderstated,
			SeverityOriginal: models.SeverityLow,
			SeverityCurrent:  models.SeverityLow,
			Confidence:       models.ConfidenceMedium,
			Rationale:        "Insurance line trails recent coastal renewals slightly",
		},
	}

	coreAssumptions := models.Assumptions{
		models.AssumptionLTV:        assumption(0.55, models.ConfidenceHigh),
		models.AssumptionGoingInCap: assumption(0.058, models.ConfidenceHigh),
		models.AssumptionExitCap:    assumption(0.062, models.ConfidenceHigh),
		models.AssumptionVacancy:    assumption(0.08, models.ConfidenceHigh),
		models.AssumptionRentGrowth: assumption(0.02, models.ConfidenceHigh),
	}

	coreResult := engine.Score(scoring.Input{
		Findings:    coreFindings,
		Assumptions: coreAssumptions,
	})

	printScoringResult("Conservative Core", coreResult)

	// Rescore the stressed deal to show score movement tracking
	fmt.Println("\n🔹 Testing Rescore With Previous Score")
	fmt.Println("======================================")

	previous := coreResult.Score
	rescored := engine.Score(scoring.Input{
		Findings:             stressedFindings,
		Assumptions:          stressedAssumptions,
		MacroLinkedCount:     2,
		MacroDecayedWeight:   1.6,
		PreviousScore:        &previous,
		PreviousModelVersion: engine.ModelVersion(),
	})

	printScoringResult("Stressed Value-Add (rescore)", rescored)

	fmt.Println("\n🎯 Engine Test Complete!")
	fmt.Println("========================")
	fmt.Printf("✅ Stressed deal scored above the core deal: %v\n", stressedResult.Score > coreResult.Score)
	fmt.Printf("✅ Severity overrides applied: %d\n", len(overrides))
	fmt.Printf("✅ Delta computed on rescore: %v\n", rescored.Breakdown.DeltaComparable)
}

func assumption(value float64, confidence models.Confidence) models.AssumptionValue {
	return models.AssumptionValue{Value: &value, Confidence: confidence}
}

func printScoringResult(name string, result scoring.Result) {
	fmt.Printf("\nDeal: %s\n", name)
	fmt.Printf("Score: %d\n", result.Score)
	fmt.Printf("Band: %s\n", result.Band)
	fmt.Printf("Scored At: %s\n", result.ScoredAt.Format(time.RFC3339))

	b := result.Breakdown
	fmt.Println("\nDetailed Breakdown:")
	fmt.Println("==================")
	fmt.Printf("Structural: %.1f (weight %.2f)\n", b.StructuralScore, b.StructuralWeight)
	fmt.Printf("Market:     %.1f (weight %.2f)\n", b.MarketScore, b.MarketWeight)
	fmt.Printf("Confidence Factor: %.2f\n", b.ConfidenceFactor)
	fmt.Printf("Macro Signals Linked: %d (decayed weight %.2f)\n", b.MacroLinkedCount, b.MacroDecayedWeight)

	if len(b.Penalties) > 0 {
		fmt.Println("\nPenalties:")
		for _, p := range b.Penalties {
			fmt.Printf("  +%.1f %s", p.Points, p.Name)
			if p.Detail != "" {
				fmt.Printf(" (%s)", p.Detail)
			}
			fmt.Println()
		}
	}

	if len(b.Stabilizers) > 0 {
		fmt.Println("\nStabilizers:")
		for _, s := range b.Stabilizers {
			fmt.Printf("  %.1f %s", s.Points, s.Name)
			if s.Detail != "" {
				fmt.Printf(" (%s)", s.Detail)
			}
			fmt.Println()
		}
	}

	if b.DeltaComparable && b.DeltaScore != nil {
		fmt.Printf("\nDelta vs previous: %+d", *b.DeltaScore)
		if b.DeltaBand != nil {
			fmt.Printf(" (%s)", *b.DeltaBand)
		}
		fmt.Println()
	}
}
