package services

import (
	"fmt"
	"time"

	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
)

// signalServiceImpl implements SignalService
type signalServiceImpl struct {
	repos *repository.Repositories
}

// newSignalService creates a new signal service implementation
func newSignalService(repos *repository.Repositories) SignalService {
	return &signalServiceImpl{
		repos: repos,
	}
}

// Create records a macro signal in the catalog
func (s *signalServiceImpl) Create(form *repository.SignalForm) (*models.MacroSignal, error) {
	signalType := models.ParseSignalType(form.SignalType)
	if signalType == models.SignalUnknown {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown signal type %q", form.SignalType), nil)
	}

	observedAt := time.Now().UTC()
	if form.ObservedAt != nil {
		observedAt = form.ObservedAt.UTC()
	}
	if observedAt.After(time.Now().UTC()) {
		return nil, errors.ValidationError("observed_at must not be in the future", nil)
	}

	signal := &models.MacroSignal{
		SignalType: signalType,
		Title:      form.Title,
		Text:       form.Text,
		Source:     form.Source,
		ObservedAt: observedAt,
	}

	if err := s.repos.Signal.Create(signal); err != nil {
		return nil, fmt.Errorf("failed to create signal: %w", err)
	}

	return signal, nil
}

// CreateBatch stores a batch of signals, skipping ones already in the
// catalog. Returns the number actually inserted.
func (s *signalServiceImpl) CreateBatch(signals []models.MacroSignal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}

	inserted, err := s.repos.Signal.CreateBatch(signals)
	if err != nil {
		return 0, fmt.Errorf("failed to store signals: %w", err)
	}
	return inserted, nil
}

// GetAll retrieves signals with filters, newest first
func (s *signalServiceImpl) GetAll(filters repository.SignalFilters) ([]models.MacroSignal, error) {
	signals, err := s.repos.Signal.GetAll(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get signals: %w", err)
	}
	return signals, nil
}

// PruneUnlinked removes signals older than the retention window that no scan
// ever linked to. Linked signals are kept forever so stored link reasons stay
// resolvable.
func (s *signalServiceImpl) PruneUnlinked(olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, errors.ValidationError("retention window must be positive", nil)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	deleted, err := s.repos.Signal.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune signals: %w", err)
	}
	return deleted, nil
}
