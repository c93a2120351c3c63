package audit

import (
	"fmt"

	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/models"
)

// Recorder builds audit log entries for completed scoring runs. Entries are
// pure values; persistence and its one-entry-per-scan guarantee live in the
// repository layer.
type Recorder struct{}

// NewRecorder creates a new audit recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Entry derives the audit record for a scored scan against the deal's most
// recent prior scored scan. The delta is the raw score movement even when the
// two runs used different model versions; version context is preserved on the
// entry so readers can weigh comparability themselves. A first scan produces
// nil previous_score, delta, and band_change.
func (r *Recorder) Entry(scan *models.Scan, previous *models.Scan) (*models.AuditLogEntry, error) {
	if scan == nil {
		return nil, errors.ValidationError("cannot audit a nil scan", nil)
	}
	if scan.RiskIndexScore == nil || scan.RiskBand == nil {
		return nil, errors.ValidationError("cannot audit a scan that has not been scored", nil).
			WithDetails(fmt.Sprintf("scan %s has status %s", scan.ID, scan.Status))
	}

	entry := &models.AuditLogEntry{
		DealID:       scan.DealID,
		ScanID:       scan.ID,
		NewScore:     *scan.RiskIndexScore,
		ModelVersion: scan.ModelVersion,
	}

	if previous == nil || previous.RiskIndexScore == nil {
		return entry, nil
	}

	prevScore := *previous.RiskIndexScore
	delta := entry.NewScore - prevScore
	entry.PreviousScore = &prevScore
	entry.Delta = &delta

	if previous.RiskBand != nil && *previous.RiskBand != *scan.RiskBand {
		change := fmt.Sprintf("%s → %s", *previous.RiskBand, *scan.RiskBand)
		entry.BandChange = &change
	}

	return entry, nil
}
