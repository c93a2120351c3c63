package audit

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
)

func scoredScan(dealID uuid.UUID, score int, band models.Band, version string) *models.Scan {
	return &models.Scan{
		ID:             uuid.New(),
		DealID:         dealID,
		Status:         models.ScanScored,
		RiskIndexScore: &score,
		RiskBand:       &band,
		ModelVersion:   version,
	}
}

func TestRecorder_Entry(t *testing.T) {
	recorder := NewRecorder()
	dealID := uuid.New()

	testCases := []struct {
		name           string
		scan           *models.Scan
		previous       *models.Scan
		wantPrevious   *int
		wantDelta      *int
		wantBandChange *string
	}{
		{
			name:     "First scan has no comparison fields",
			scan:     scoredScan(dealID, 55, models.BandElevated, "2.0"),
			previous: nil,
		},
		{
			name:           "Rescan records delta and band change",
			scan:           scoredScan(dealID, 55, models.BandElevated, "2.0"),
			previous:       scoredScan(dealID, 40, models.BandModerate, "2.0"),
			wantPrevious:   intPtr(40),
			wantDelta:      intPtr(15),
			wantBandChange: strPtr("Moderate → Elevated"),
		},
		{
			name:         "Same band produces no band change",
			scan:         scoredScan(dealID, 60, models.BandElevated, "2.0"),
			previous:     scoredScan(dealID, 56, models.BandElevated, "2.0"),
			wantPrevious: intPtr(56),
			wantDelta:    intPtr(4),
		},
		{
			name:           "Raw delta is recorded across model versions",
			scan:           scoredScan(dealID, 55, models.BandElevated, "2.0"),
			previous:       scoredScan(dealID, 40, models.BandModerate, "1.9"),
			wantPrevious:   intPtr(40),
			wantDelta:      intPtr(15),
			wantBandChange: strPtr("Moderate → Elevated"),
		},
		{
			name:           "Score drops yield negative deltas",
			scan:           scoredScan(dealID, 30, models.BandLow, "2.0"),
			previous:       scoredScan(dealID, 62, models.BandElevated, "2.0"),
			wantPrevious:   intPtr(62),
			wantDelta:      intPtr(-32),
			wantBandChange: strPtr("Elevated → Low"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := recorder.Entry(tc.scan, tc.previous)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if entry.DealID != tc.scan.DealID {
				t.Errorf("Expected deal ID %s, got %s", tc.scan.DealID, entry.DealID)
			}
			if entry.ScanID != tc.scan.ID {
				t.Errorf("Expected scan ID %s, got %s", tc.scan.ID, entry.ScanID)
			}
			if entry.NewScore != *tc.scan.RiskIndexScore {
				t.Errorf("Expected new score %d, got %d", *tc.scan.RiskIndexScore, entry.NewScore)
			}
			if entry.ModelVersion != tc.scan.ModelVersion {
				t.Errorf("Expected model version %s, got %s", tc.scan.ModelVersion, entry.ModelVersion)
			}

			assertIntPtr(t, "previous_score", tc.wantPrevious, entry.PreviousScore)
			assertIntPtr(t, "delta", tc.wantDelta, entry.Delta)
			assertStrPtr(t, "band_change", tc.wantBandChange, entry.BandChange)
		})
	}
}

func TestRecorder_Entry_RejectsUnscoredScan(t *testing.T) {
	recorder := NewRecorder()

	unscored := &models.Scan{
		ID:     uuid.New(),
		DealID: uuid.New(),
		Status: models.ScanPending,
	}

	if _, err := recorder.Entry(unscored, nil); err == nil {
		t.Error("Expected error for unscored scan")
	}
	if _, err := recorder.Entry(nil, nil); err == nil {
		t.Error("Expected error for nil scan")
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func assertIntPtr(t *testing.T, field string, want, got *int) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("Expected %s to be nil, got %d", field, *got)
		}
		return
	}
	if got == nil {
		t.Errorf("Expected %s %d, got nil", field, *want)
		return
	}
	if *got != *want {
		t.Errorf("Expected %s %d, got %d", field, *want, *got)
	}
}

func assertStrPtr(t *testing.T, field string, want, got *string) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("Expected %s to be nil, got %q", field, *got)
		}
		return
	}
	if got == nil {
		t.Errorf("Expected %s %q, got nil", field, *want)
		return
	}
	if *got != *want {
		t.Errorf("Expected %s %q, got %q", field, *want, *got)
	}
}
