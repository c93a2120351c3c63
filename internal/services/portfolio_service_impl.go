package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/internal/scoring"
)

// portfolioServiceImpl implements PortfolioService
type portfolioServiceImpl struct {
	repos *repository.Repositories
}

// newPortfolioService creates a new portfolio service implementation
func newPortfolioService(repos *repository.Repositories) PortfolioService {
	return &portfolioServiceImpl{
		repos: repos,
	}
}

// Summary aggregates the latest scored scan of every deal into band counts,
// average score, and the high-exposure watch list. Exposure bucketing labels
// only; no stored score or band is touched.
func (s *portfolioServiceImpl) Summary() (*repository.PortfolioSummary, error) {
	entries, threshold, err := s.buildEntries()
	if err != nil {
		return nil, err
	}

	summary := &repository.PortfolioSummary{
		DealCount:        len(entries),
		BandCounts:       map[models.Band]int{},
		SizePercentile80: threshold,
		GeneratedAt:      time.Now().UTC(),
	}
	for _, band := range models.AllBands {
		summary.BandCounts[band] = 0
	}

	var scores stats.Float64Data
	for _, entry := range entries {
		if entry.LatestScore == nil {
			continue
		}
		summary.ScoredDealCount++
		summary.BandCounts[*entry.LatestBand]++
		scores = append(scores, float64(*entry.LatestScore))
		if entry.ExposureBucket == string(models.ExposureHigh) {
			summary.HighExposureDeals = append(summary.HighExposureDeals, entry)
		}
	}

	if len(scores) > 0 {
		mean, err := stats.Mean(scores)
		if err != nil {
			return nil, fmt.Errorf("failed to compute average score: %w", err)
		}
		summary.AverageScore = &mean
	}

	return summary, nil
}

// Entries returns one line per deal with its latest score, band, and
// exposure labeling
func (s *portfolioServiceImpl) Entries() ([]repository.PortfolioDealEntry, error) {
	entries, _, err := s.buildEntries()
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *portfolioServiceImpl) buildEntries() ([]repository.PortfolioDealEntry, *float64, error) {
	deals, err := s.repos.Deal.GetAll(repository.DealFilters{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get deals: %w", err)
	}

	threshold, err := s.exposureThreshold()
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	entries := make([]repository.PortfolioDealEntry, 0, len(deals))
	for _, deal := range deals {
		entry := repository.PortfolioDealEntry{
			Deal:           deal,
			ExposureBucket: string(exposureBucket(deal.PurchasePrice, threshold)),
		}

		latest, err := s.repos.Scan.GetPreviousScored(deal.ID, now, uuid.Nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get latest scan for deal %s: %w", deal.ID, err)
		}
		if latest != nil {
			entry.LatestScore = latest.RiskIndexScore
			entry.LatestBand = latest.RiskBand
			if latest.Breakdown != nil {
				labeled := *latest.Breakdown
				scoring.LabelExposure(&labeled, *latest.RiskBand, exposureBucket(deal.PurchasePrice, threshold))
				entry.AlertTags = labeled.AlertTags
			}
		}

		entries = append(entries, entry)
	}

	return entries, threshold, nil
}

// exposureThreshold computes the portfolio purchase-price percentile above
// which a deal is bucketed High. Fewer than two priced deals means no
// threshold and everything stays Normal.
func (s *portfolioServiceImpl) exposureThreshold() (*float64, error) {
	prices, err := s.repos.Deal.GetPurchasePrices()
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase prices: %w", err)
	}
	if len(prices) < 2 {
		return nil, nil
	}

	p, err := stats.Percentile(stats.Float64Data(prices), scoring.ExposurePercentile)
	if err != nil {
		return nil, fmt.Errorf("failed to compute exposure percentile: %w", err)
	}
	return &p, nil
}

func exposureBucket(price, threshold *float64) models.ExposureBucket {
	if price == nil || threshold == nil {
		return models.ExposureNormal
	}
	if *price >= *threshold {
		return models.ExposureHigh
	}
	return models.ExposureNormal
}
