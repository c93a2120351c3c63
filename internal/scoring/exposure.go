package scoring

import "github.com/jmcgrail/riskindex-engine/internal/models"

// AlertConcentrationWatch tags scans that are both high-band and large
// relative to the portfolio
const AlertConcentrationWatch = "concentration_watch"

// ExposurePercentile is the portfolio size percentile at or above which a
// deal is bucketed High
const ExposurePercentile = 80.0

// LabelExposure tags a breakdown with the portfolio exposure bucket computed
// by the caller. This is a labeling step only; score and band are never
// touched here.
func LabelExposure(b *models.RiskIndexBreakdown, band models.Band, bucket models.ExposureBucket) {
	b.ExposureBucket = bucket
	if bucket != models.ExposureHigh {
		return
	}
	if band != models.BandElevated && band != models.BandHigh {
		return
	}
	for _, tag := range b.AlertTags {
		if tag == AlertConcentrationWatch {
			return
		}
	}
	b.AlertTags = append(b.AlertTags, AlertConcentrationWatch)
}
