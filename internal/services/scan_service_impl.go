package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/audit"
	"github.com/jmcgrail/riskindex-engine/internal/errors"
	"github.com/jmcgrail/riskindex-engine/internal/logger"
	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/relevance"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
	"github.com/jmcgrail/riskindex-engine/internal/scoring"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

// scanServiceImpl implements ScanService
type scanServiceImpl struct {
	repos    *repository.Repositories
	engine   *scoring.Engine
	matcher  *relevance.Matcher
	recorder *audit.Recorder
	cfg      *config.Config
	logger   logger.Logger
}

// newScanService creates a new scan service implementation
func newScanService(repos *repository.Repositories, cfg *config.Config) ScanService {
	return &scanServiceImpl{
		repos:    repos,
		engine:   scoring.NewEngine(),
		matcher:  relevance.NewMatcher(),
		recorder: audit.NewRecorder(),
		cfg:      cfg,
		logger:   logger.NewSimpleLogger(),
	}
}

// Submit validates a submission and stores a pending scan with its findings.
// A submission whose content hash matches a non-failed scan for the same deal
// inside the resubmission window returns that scan instead of creating a new
// one.
func (s *scanServiceImpl) Submit(dealID string, sub *repository.ScanSubmission) (*repository.ScanResponse, bool, error) {
	dealUUID, err := uuid.Parse(dealID)
	if err != nil {
		return nil, false, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", dealID), err)
	}

	deal, err := s.repos.Deal.GetByID(dealUUID)
	if err != nil {
		return nil, false, errors.NotFound("deal not found", err)
	}

	if err := validateSubmission(sub); err != nil {
		return nil, false, err
	}

	hash := submissionHash(deal.ID, sub)

	// Resubmission window: identical content inside the window reuses the
	// earlier scan. Failed scans never block a retry.
	window := time.Duration(s.cfg.ScanDedupeWindowHours) * time.Hour
	existing, err := s.repos.Scan.FindRecentByHash(deal.ID, hash, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, false, errors.DatabaseError("failed to check resubmission window", err).WithOperation("Submit")
	}
	if existing != nil {
		s.logger.Info("Scan submission matched recent scan", "deal", deal.ID, "scan", existing.ID)
		resp, err := s.buildResponse(existing)
		if err != nil {
			return nil, false, err
		}
		return resp, true, nil
	}

	scan := &models.Scan{
		DealID:      deal.ID,
		Status:      models.ScanPending,
		InputHash:   hash,
		SourceText:  sub.SourceText,
		Assumptions: sub.Assumptions,
	}

	findings := make([]models.RiskFinding, len(sub.Findings))
	err = s.repos.Tx.WithTransaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Scan.Create(scan); err != nil {
			return fmt.Errorf("failed to create scan: %w", err)
		}
		for i := range sub.Findings {
			findings[i] = sub.Findings[i].ToModel()
			findings[i].ScanID = scan.ID
		}
		if len(findings) > 0 {
			if err := txRepos.Finding.CreateBatch(findings); err != nil {
				return fmt.Errorf("failed to store findings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.DatabaseError("failed to store scan", err).WithOperation("Submit")
	}

	return &repository.ScanResponse{
		Scan:     *scan,
		Findings: findings,
		Links:    []models.SignalLink{},
	}, false, nil
}

// Process runs the full scoring chain on one pending scan: claim, relevance
// matching, severity escalation, scoring, and the audit entry. Everything
// after the claim runs in one transaction; a failure marks the scan failed
// with the reason.
func (s *scanServiceImpl) Process(scanID string) (*models.Scan, error) {
	scanUUID, err := uuid.Parse(scanID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid scan ID: %s", scanID), err)
	}

	scan, err := s.repos.Scan.GetByID(scanUUID)
	if err != nil {
		return nil, errors.NotFound("scan not found", err)
	}

	// Claim the scan. The pending guard makes concurrent processors lose
	// cleanly instead of double-scoring.
	if err := s.repos.Scan.MarkScoring(scan.ID); err != nil {
		return nil, fmt.Errorf("failed to claim scan %s: %w", scan.ID, err)
	}

	scored, err := s.score(scan)
	if err != nil {
		s.logger.Error("Scan scoring failed", err, "scan", scan.ID)
		if failErr := s.repos.Scan.MarkFailed(scan.ID, err.Error()); failErr != nil {
			s.logger.Error("Failed to mark scan failed", failErr, "scan", scan.ID)
		}
		return nil, err
	}

	s.logger.Info("Scan scored", "scan", scored.ID, "score", *scored.RiskIndexScore, "band", *scored.RiskBand)
	return scored, nil
}

// score performs the matcher, scorer, and audit chain for a claimed scan
func (s *scanServiceImpl) score(scan *models.Scan) (*models.Scan, error) {
	deal, err := s.repos.Deal.GetByID(scan.DealID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	findings, err := s.repos.Finding.GetByScan(scan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get findings: %w", err)
	}

	signals, err := s.repos.Signal.GetWindow(scan.CreatedAt, s.cfg.SignalWindowDays, s.cfg.SignalWindowLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get signal window: %w", err)
	}

	previous, err := s.repos.Scan.GetPreviousScored(scan.DealID, scan.CreatedAt, scan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous scan: %w", err)
	}

	match := s.matcher.Match(findings, signals, deal.Context())

	// Escalations from corroborating signals and deterministic assumption
	// overrides both only ever raise severity; merging keeps the higher.
	severities := make(map[uuid.UUID]models.Severity)
	for id, sev := range match.Escalations {
		severities[id] = sev
	}
	for id, sev := range s.engine.SeverityOverrides(findings, scan.Assumptions) {
		if current, ok := severities[id]; !ok || sev.Rank() > current.Rank() {
			severities[id] = sev
		}
	}
	for i := range findings {
		if sev, ok := severities[findings[i].ID]; ok && sev.Rank() > findings[i].SeverityCurrent.Rank() {
			findings[i].SeverityCurrent = sev
		}
	}

	macroCount, macroDecayed := relevance.MacroExposure(match.Links, signals, scan.CreatedAt)

	in := scoring.Input{
		Findings:           findings,
		Assumptions:        scan.Assumptions,
		MacroLinkedCount:   macroCount,
		MacroDecayedWeight: macroDecayed,
	}
	if previous != nil {
		in.PreviousScore = previous.RiskIndexScore
		in.PreviousModelVersion = previous.ModelVersion
	}
	result := s.engine.Score(in)

	scan.Status = models.ScanScored
	scan.RiskIndexScore = &result.Score
	scan.RiskBand = &result.Band
	scan.Breakdown = &result.Breakdown
	scan.ModelVersion = s.engine.ModelVersion()
	scan.ScoredAt = &result.ScoredAt

	err = s.repos.Tx.WithTransaction(func(txRepos *repository.Repositories) error {
		if len(match.Links) > 0 {
			if _, err := txRepos.Link.UpsertBatch(match.Links); err != nil {
				return fmt.Errorf("failed to store signal links: %w", err)
			}
		}
		if len(severities) > 0 {
			if err := txRepos.Finding.UpdateSeverities(severities); err != nil {
				return fmt.Errorf("failed to update severities: %w", err)
			}
		}
		if err := txRepos.Scan.StoreScore(scan); err != nil {
			return fmt.Errorf("failed to store score: %w", err)
		}
		entry, err := s.recorder.Entry(scan, previous)
		if err != nil {
			return fmt.Errorf("failed to build audit entry: %w", err)
		}
		if err := txRepos.Audit.Insert(entry); err != nil {
			return fmt.Errorf("failed to insert audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return scan, nil
}

// GetByID retrieves a scan with its findings and signal links
func (s *scanServiceImpl) GetByID(id string) (*repository.ScanResponse, error) {
	scanUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid scan ID: %s", id), err)
	}

	scan, err := s.repos.Scan.GetByID(scanUUID)
	if err != nil {
		return nil, errors.NotFound("scan not found", err)
	}

	return s.buildResponse(scan)
}

// GetByDeal retrieves scans for a deal, newest first
func (s *scanServiceImpl) GetByDeal(dealID string, limit int) ([]models.Scan, error) {
	dealUUID, err := uuid.Parse(dealID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", dealID), err)
	}

	scans, err := s.repos.Scan.GetByDeal(dealUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get scans: %w", err)
	}
	return scans, nil
}

// AuditTrail retrieves the score history for a deal, newest first
func (s *scanServiceImpl) AuditTrail(dealID string, limit int) ([]models.AuditLogEntry, error) {
	dealUUID, err := uuid.Parse(dealID)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid deal ID: %s", dealID), err)
	}

	entries, err := s.repos.Audit.GetByDeal(dealUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return entries, nil
}

func (s *scanServiceImpl) buildResponse(scan *models.Scan) (*repository.ScanResponse, error) {
	findings, err := s.repos.Finding.GetByScan(scan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get findings: %w", err)
	}
	links, err := s.repos.Link.GetByScan(scan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}
	return &repository.ScanResponse{
		Scan:     *scan,
		Findings: findings,
		Links:    links,
	}, nil
}

// validateSubmission rejects malformed enum values before anything is stored.
// Unknown variants exist in the data model for reading back foreign rows, not
// for accepting new ones.
func validateSubmission(sub *repository.ScanSubmission) error {
	if sub == nil || sub.SourceText == "" {
		return errors.ValidationError("source_text is required", nil)
	}
	for i, f := range sub.Findings {
		if models.ParseRiskType(f.RiskType) == models.RiskUnknown {
			return errors.InvalidInput(fmt.Sprintf("findings[%d]: unknown risk type %q", i, f.RiskType), nil)
		}
		switch models.Severity(f.Severity) {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
		default:
			return errors.InvalidInput(fmt.Sprintf("findings[%d]: invalid severity %q", i, f.Severity), nil)
		}
		if f.Confidence != "" {
			switch models.Confidence(f.Confidence) {
			case models.ConfidenceLow, models.ConfidenceMedium, models.ConfidenceHigh:
			default:
				return errors.InvalidInput(fmt.Sprintf("findings[%d]: invalid confidence %q", i, f.Confidence), nil)
			}
		}
	}
	return nil
}

// submissionHash fingerprints a submission's content for the resubmission
// window. Findings are sorted into a canonical order so submission order
// never changes the hash.
func submissionHash(dealID uuid.UUID, sub *repository.ScanSubmission) string {
	findings := make([]repository.FindingForm, len(sub.Findings))
	copy(findings, sub.Findings)
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].RiskType != findings[j].RiskType {
			return findings[i].RiskType < findings[j].RiskType
		}
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity < findings[j].Severity
		}
		return findings[i].Rationale < findings[j].Rationale
	})

	payload := struct {
		DealID      uuid.UUID                `json:"deal_id"`
		SourceText  string                   `json:"source_text"`
		Assumptions models.Assumptions       `json:"assumptions"`
		Findings    []repository.FindingForm `json:"findings"`
	}{dealID, sub.SourceText, sub.Assumptions, findings}

	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
