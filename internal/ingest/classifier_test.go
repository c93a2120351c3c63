package ingest

import (
	"testing"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		text      string
		wantType  models.SignalType
		wantMatch bool
	}{
		{
			name:      "credit risk vocabulary",
			title:     "Special servicing balance climbs",
			text:      "Delinquencies rose across office loans for a fourth month.",
			wantType:  models.SignalCreditRisk,
			wantMatch: true,
		},
		{
			name:      "credit availability vocabulary",
			title:     "Lending standards tighten again",
			text:      "Debt fund origination slowed as refinancing demand grew.",
			wantType:  models.SignalCreditAvailability,
			wantMatch: true,
		},
		{
			name:      "pricing vocabulary",
			title:     "Cap rate expansion continues",
			text:      "Appraisal resets forced repricing across the sector.",
			wantType:  models.SignalPricing,
			wantMatch: true,
		},
		{
			name:      "policy vocabulary",
			title:     "FOMC holds rates steady",
			text:      "The Federal Reserve left its target range unchanged.",
			wantType:  models.SignalPolicy,
			wantMatch: true,
		},
		{
			name:      "supply demand vocabulary",
			title:     "Sublease space hits a record",
			text:      "Vacancy climbed as new supply delivered into weak absorption.",
			wantType:  models.SignalSupplyDemand,
			wantMatch: true,
		},
		{
			name:      "title outweighs body",
			title:     "Transaction volume stalls",
			text:      "One default was reported in the quarter.",
			wantType:  models.SignalLiquidity,
			wantMatch: true,
		},
		{
			name:      "unclassifiable commentary",
			title:     "Weekly roundup",
			text:      "Assorted notes and housekeeping for subscribers.",
			wantType:  models.SignalUnknown,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotMatch := Classify(tt.title, tt.text)
			if gotMatch != tt.wantMatch {
				t.Fatalf("Classify() match = %v, want %v", gotMatch, tt.wantMatch)
			}
			if gotType != tt.wantType {
				t.Errorf("Classify() type = %s, want %s", gotType, tt.wantType)
			}
		})
	}
}
