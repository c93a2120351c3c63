package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records one scoring event for a deal. Entries are append-only
// and unique per scan; PreviousScore is relative to the same deal's prior
// completed scan, never a global value.
type AuditLogEntry struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DealID        uuid.UUID `json:"deal_id" db:"deal_id"`
	ScanID        uuid.UUID `json:"scan_id" db:"scan_id"`
	PreviousScore *int      `json:"previous_score" db:"previous_score"`
	NewScore      int       `json:"new_score" db:"new_score"`
	Delta         *int      `json:"delta" db:"delta"`
	BandChange    *string   `json:"band_change" db:"band_change"`
	ModelVersion  string    `json:"model_version" db:"model_version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
