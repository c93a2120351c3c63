package services

import (
	"testing"
	"time"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/scoring"
)

func seedPricedDeal(t *testing.T, tr *testRepos, name string, price *float64) *models.Deal {
	t.Helper()
	deal := seedDeal(t, tr, "Multifamily", "Dallas, TX")
	deal.Name = name
	deal.PurchasePrice = price
	if err := tr.deals.Update(deal); err != nil {
		t.Fatalf("seed priced deal: %v", err)
	}
	return deal
}

func TestPortfolioService_Summary(t *testing.T) {
	tr := newTestRepos()
	svc := newPortfolioService(tr.repos)

	small := seedPricedDeal(t, tr, "Small Deal", floatPtr(100))
	mid := seedPricedDeal(t, tr, "Mid Deal", floatPtr(200))
	large := seedPricedDeal(t, tr, "Large Deal", floatPtr(1000))
	seedPricedDeal(t, tr, "Unpriced Deal", nil)

	created := time.Now().UTC().Add(-time.Hour)
	seedScoredScan(tr, small.ID, 80, created)
	seedScoredScan(tr, mid.ID, 40, created)
	seedScoredScan(tr, large.ID, 60, created)

	summary, err := svc.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.DealCount != 4 {
		t.Errorf("expected 4 deals, got %d", summary.DealCount)
	}
	if summary.ScoredDealCount != 3 {
		t.Errorf("expected 3 scored deals, got %d", summary.ScoredDealCount)
	}
	if summary.AverageScore == nil || *summary.AverageScore != 60 {
		t.Errorf("expected average score 60, got %v", summary.AverageScore)
	}
	if summary.SizePercentile80 == nil || *summary.SizePercentile80 != 600 {
		t.Errorf("expected 80th percentile 600, got %v", summary.SizePercentile80)
	}

	want := map[models.Band]int{
		models.BandLow:      0,
		models.BandModerate: 1,
		models.BandElevated: 1,
		models.BandHigh:     1,
	}
	for band, count := range want {
		if summary.BandCounts[band] != count {
			t.Errorf("band %s: expected %d, got %d", band, count, summary.BandCounts[band])
		}
	}

	if len(summary.HighExposureDeals) != 1 {
		t.Fatalf("expected 1 high-exposure deal, got %d", len(summary.HighExposureDeals))
	}
	watch := summary.HighExposureDeals[0]
	if watch.Deal.ID != large.ID {
		t.Errorf("expected the large deal on the watch list, got %s", watch.Deal.Name)
	}
	if watch.ExposureBucket != string(models.ExposureHigh) {
		t.Errorf("expected High exposure bucket, got %q", watch.ExposureBucket)
	}
	found := false
	for _, tag := range watch.AlertTags {
		if tag == scoring.AlertConcentrationWatch {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s tag on a large elevated deal, got %v", scoring.AlertConcentrationWatch, watch.AlertTags)
	}
}

func TestPortfolioService_Summary_TooFewPricedDeals(t *testing.T) {
	tr := newTestRepos()
	svc := newPortfolioService(tr.repos)

	only := seedPricedDeal(t, tr, "Only Priced Deal", floatPtr(5000))
	seedScoredScan(tr, only.ID, 80, time.Now().UTC().Add(-time.Hour))

	summary, err := svc.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.SizePercentile80 != nil {
		t.Errorf("one priced deal gives no threshold, got %v", summary.SizePercentile80)
	}
	if len(summary.HighExposureDeals) != 0 {
		t.Errorf("no threshold means no high-exposure deals, got %d", len(summary.HighExposureDeals))
	}
}

func TestPortfolioService_Entries_UnscoredDeal(t *testing.T) {
	tr := newTestRepos()
	svc := newPortfolioService(tr.repos)
	seedPricedDeal(t, tr, "Fresh Deal", floatPtr(300))

	entries, err := svc.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LatestScore != nil || entries[0].LatestBand != nil {
		t.Error("a deal with no scored scan carries no score or band")
	}
	if entries[0].ExposureBucket != string(models.ExposureNormal) {
		t.Errorf("expected Normal exposure, got %q", entries[0].ExposureBucket)
	}
}
