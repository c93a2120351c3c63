package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmcgrail/riskindex-engine/internal/logger"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

const (
	// Direct fetches are throttled so a long source list cannot hammer a
	// publisher.
	requestsPerSecond = 2

	// maxItemsPerSource keeps one noisy publisher from flooding a run
	maxItemsPerSource = 25
)

// Service turns configured market commentary pages into macro signal drafts.
// Persistence and deduplication stay with the caller; the service only
// fetches, parses, and classifies.
type Service struct {
	fetcher Fetcher
	parser  *Parser
	sources []string
	health  *HealthMonitor
	logger  logger.Logger
}

// NewService creates an ingestion service from the configured source list.
// The rendering API is used when configured, direct fetches otherwise.
func NewService(cfg *config.Config) (*Service, error) {
	sources := cfg.GetSignalSourceURLs()
	if len(sources) == 0 {
		return nil, fmt.Errorf("no commentary sources configured")
	}

	var fetcher Fetcher
	if cfg.HasRenderAPI() {
		fetcher = NewRenderClient(cfg)
	} else {
		fetcher = NewClient(requestsPerSecond)
	}

	return &Service{
		fetcher: fetcher,
		parser:  NewParser(),
		sources: sources,
		health:  NewHealthMonitor(),
		logger:  logger.NewComponentLogger("ingest"),
	}, nil
}

// FetchSignals fetches every configured source and returns the signal drafts
// found there. An unreachable source degrades the run rather than failing it;
// the run errors only when every source fails.
func (s *Service) FetchSignals(ctx context.Context) ([]models.MacroSignal, error) {
	var signals []models.MacroSignal
	reached := 0

	for _, source := range s.sources {
		name := sourceName(source)

		doc, err := s.fetcher.Get(ctx, source)
		if err != nil {
			s.health.RecordFailure(name, err.Error(), source)
			s.logger.Warn("Skipping unreachable commentary source", "source", name, "error", err.Error())
			continue
		}
		reached++
		s.health.RecordSuccess(name)

		items := s.parser.Parse(doc)
		if len(items) > maxItemsPerSource {
			items = items[:maxItemsPerSource]
		}

		kept := 0
		for _, item := range items {
			signal, ok := s.toSignal(item, name)
			if !ok {
				continue
			}
			signals = append(signals, signal)
			kept++
		}

		s.logger.Info("Parsed commentary source", "source", name, "items", len(items), "signals", kept)
	}

	if reached == 0 {
		return nil, fmt.Errorf("all %d commentary sources failed", len(s.sources))
	}

	return signals, nil
}

// toSignal converts a parsed item into a signal draft. Items that cannot be
// classified are dropped, as are items whose parsed date sits in the future,
// which almost always means the date belonged to something else on the page.
func (s *Service) toSignal(item Item, source string) (models.MacroSignal, bool) {
	signalType, ok := Classify(item.Title, item.Text)
	if !ok {
		return models.MacroSignal{}, false
	}

	observedAt := time.Now().UTC()
	if item.PublishedAt != nil {
		if item.PublishedAt.After(observedAt) {
			return models.MacroSignal{}, false
		}
		observedAt = item.PublishedAt.UTC()
	}

	return models.MacroSignal{
		SignalType: signalType,
		Title:      item.Title,
		Text:       item.Text,
		Source:     source,
		ObservedAt: observedAt,
	}, true
}

// HealthStatus reports fetch health across recent runs
func (s *Service) HealthStatus() HealthStatus {
	return s.health.GetHealthStatus()
}

// ResetHealth clears the fetch health counters
func (s *Service) ResetHealth() {
	s.health.Reset()
}

// Close releases fetch client resources
func (s *Service) Close() {
	s.fetcher.Close()
}

// sourceName derives a stable signal source label from a URL
func sourceName(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
