package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
)

// dealServiceImpl implements DealService
type dealServiceImpl struct {
	repos *repository.Repositories
}

// newDealService creates a new deal service implementation
func newDealService(repos *repository.Repositories) DealService {
	return &dealServiceImpl{
		repos: repos,
	}
}

// GetByID retrieves a deal by ID
func (s *dealServiceImpl) GetByID(id string) (*models.Deal, error) {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", id), err)
	}

	deal, err := s.repos.Deal.GetByID(dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return deal, nil
}

// GetAll retrieves deals with filters
func (s *dealServiceImpl) GetAll(filters repository.DealFilters) ([]models.Deal, error) {
	deals, err := s.repos.Deal.GetAll(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get deals: %w", err)
	}
	return deals, nil
}

// Create creates a new deal
func (s *dealServiceImpl) Create(form *repository.DealForm, userID string) (*models.Deal, error) {
	creatorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid user ID: %s", userID), err)
	}
	if form.PurchasePrice != nil && *form.PurchasePrice <= 0 {
		return nil, errors.ValidationError("purchase_price must be positive", nil)
	}

	deal := &models.Deal{
		Name:          form.Name,
		AssetType:     form.AssetType,
		Market:        form.Market,
		PurchasePrice: form.PurchasePrice,
		CreatedBy:     creatorID,
	}

	if err := s.repos.Deal.Create(deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	return deal, nil
}

// Update updates an existing deal
func (s *dealServiceImpl) Update(id string, form *repository.DealForm) (*models.Deal, error) {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", id), err)
	}
	if form.PurchasePrice != nil && *form.PurchasePrice <= 0 {
		return nil, errors.ValidationError("purchase_price must be positive", nil)
	}

	deal, err := s.repos.Deal.GetByID(dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	deal.Name = form.Name
	deal.AssetType = form.AssetType
	deal.Market = form.Market
	deal.PurchasePrice = form.PurchasePrice

	if err := s.repos.Deal.Update(deal); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	return deal, nil
}

// Delete deletes a deal and everything cascaded from it
func (s *dealServiceImpl) Delete(id string) error {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", id), err)
	}

	if err := s.repos.Deal.Delete(dealID); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}

	return nil
}

// RecordOutcome stores the realized outcome for a deal. Recording twice
// replaces the earlier annotation; backtests always read the latest one.
func (s *dealServiceImpl) RecordOutcome(dealID string, form *repository.OutcomeForm, userID string) (*models.DealOutcome, error) {
	dealUUID, err := uuid.Parse(dealID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", dealID), err)
	}
	recordedBy, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid user ID: %s", userID), err)
	}

	outcomeType := models.ParseOutcomeType(form.OutcomeType)
	if outcomeType == models.OutcomeUnknown {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown outcome type %q", form.OutcomeType), nil)
	}
	if form.OutcomeValue != nil && *form.OutcomeValue < 0 {
		return nil, errors.ValidationError("outcome_value must not be negative", nil)
	}

	if _, err := s.repos.Deal.GetByID(dealUUID); err != nil {
		return nil, errors.NotFound("deal not found", err)
	}

	outcome := &models.DealOutcome{
		DealID:       dealUUID,
		OutcomeType:  outcomeType,
		OutcomeValue: form.OutcomeValue,
		Notes:        form.Notes,
		RecordedBy:   recordedBy,
	}

	if err := s.repos.Outcome.Upsert(outcome); err != nil {
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}

	return outcome, nil
}

// GetOutcome retrieves the recorded outcome for a deal
func (s *dealServiceImpl) GetOutcome(dealID string) (*models.DealOutcome, error) {
	dealUUID, err := uuid.Parse(dealID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", dealID), err)
	}

	outcome, err := s.repos.Outcome.GetByDeal(dealUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}
	return outcome, nil
}
