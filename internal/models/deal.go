package models

import (
	"time"

	"github.com/google/uuid"
)

// Deal represents one underwriting target under analysis
type Deal struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	AssetType     string    `json:"asset_type" db:"asset_type"`
	Market        string    `json:"market" db:"market"`
	PurchasePrice *float64  `json:"purchase_price" db:"purchase_price"`
	CreatedBy     uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// DealContext is the slice of deal attributes relevance matching needs
type DealContext struct {
	AssetType string `json:"asset_type"`
	Market    string `json:"market"`
}

// Context returns the deal attributes used for relevance matching
func (d *Deal) Context() DealContext {
	return DealContext{AssetType: d.AssetType, Market: d.Market}
}

// Common asset classes. AssetType is free text at intake; matching against
// signals is case-insensitive and substring-tolerant, so these are reference
// values rather than a closed set.
const (
	AssetMultifamily = "Multifamily"
	AssetOffice      = "Office"
	AssetRetail      = "Retail"
	AssetIndustrial  = "Industrial"
	AssetHospitality = "Hospitality"
)
