package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmcgrail/riskindex-engine/internal/models"
	"github.com/jmcgrail/riskindex-engine/internal/repository"
)

// In-memory repository mocks shared by the service tests. Each mirrors the
// ordering and idempotence rules of the Postgres implementation closely
// enough for orchestration tests.

type MockDealRepository struct {
	deals map[uuid.UUID]models.Deal
}

func NewMockDealRepository() *MockDealRepository {
	return &MockDealRepository{deals: make(map[uuid.UUID]models.Deal)}
}

func (m *MockDealRepository) GetByID(id uuid.UUID) (*models.Deal, error) {
	deal, ok := m.deals[id]
	if !ok {
		return nil, fmt.Errorf("deal not found")
	}
	return &deal, nil
}

func (m *MockDealRepository) Create(deal *models.Deal) error {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	deal.CreatedAt = time.Now().UTC()
	deal.UpdatedAt = deal.CreatedAt
	m.deals[deal.ID] = *deal
	return nil
}

func (m *MockDealRepository) Update(deal *models.Deal) error {
	if _, ok := m.deals[deal.ID]; !ok {
		return fmt.Errorf("deal not found")
	}
	deal.UpdatedAt = time.Now().UTC()
	m.deals[deal.ID] = *deal
	return nil
}

func (m *MockDealRepository) Delete(id uuid.UUID) error {
	if _, ok := m.deals[id]; !ok {
		return fmt.Errorf("deal not found")
	}
	delete(m.deals, id)
	return nil
}

func (m *MockDealRepository) GetAll(filters repository.DealFilters) ([]models.Deal, error) {
	var deals []models.Deal
	for _, deal := range m.deals {
		deals = append(deals, deal)
	}
	sort.Slice(deals, func(i, j int) bool {
		if !deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].CreatedAt.After(deals[j].CreatedAt)
		}
		return deals[i].ID.String() > deals[j].ID.String()
	})
	return deals, nil
}

func (m *MockDealRepository) GetAllIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range m.deals {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockDealRepository) GetPurchasePrices() ([]float64, error) {
	var prices []float64
	for _, deal := range m.deals {
		if deal.PurchasePrice != nil {
			prices = append(prices, *deal.PurchasePrice)
		}
	}
	return prices, nil
}

type MockScanRepository struct {
	scans map[uuid.UUID]models.Scan
}

func NewMockScanRepository() *MockScanRepository {
	return &MockScanRepository{scans: make(map[uuid.UUID]models.Scan)}
}

func (m *MockScanRepository) GetByID(id uuid.UUID) (*models.Scan, error) {
	scan, ok := m.scans[id]
	if !ok {
		return nil, fmt.Errorf("scan not found")
	}
	return &scan, nil
}

func (m *MockScanRepository) Create(scan *models.Scan) error {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	if scan.Status == "" {
		scan.Status = models.ScanPending
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	m.scans[scan.ID] = *scan
	return nil
}

func (m *MockScanRepository) GetByDeal(dealID uuid.UUID, limit int) ([]models.Scan, error) {
	var scans []models.Scan
	for _, scan := range m.scans {
		if scan.DealID == dealID {
			scans = append(scans, scan)
		}
	}
	sortScansDesc(scans)
	if limit > 0 && len(scans) > limit {
		scans = scans[:limit]
	}
	return scans, nil
}

func (m *MockScanRepository) GetPending(limit int) ([]models.Scan, error) {
	var scans []models.Scan
	for _, scan := range m.scans {
		if scan.Status == models.ScanPending {
			scans = append(scans, scan)
		}
	}
	sort.Slice(scans, func(i, j int) bool { return scans[i].CreatedAt.Before(scans[j].CreatedAt) })
	if limit > 0 && len(scans) > limit {
		scans = scans[:limit]
	}
	return scans, nil
}

func (m *MockScanRepository) MarkScoring(id uuid.UUID) error {
	scan, ok := m.scans[id]
	if !ok {
		return fmt.Errorf("scan not found")
	}
	if scan.Status != models.ScanPending {
		return fmt.Errorf("scan is not pending")
	}
	scan.Status = models.ScanScoring
	m.scans[id] = scan
	return nil
}

func (m *MockScanRepository) StoreScore(scan *models.Scan) error {
	if _, ok := m.scans[scan.ID]; !ok {
		return fmt.Errorf("scan not found")
	}
	m.scans[scan.ID] = *scan
	return nil
}

func (m *MockScanRepository) MarkFailed(id uuid.UUID, message string) error {
	scan, ok := m.scans[id]
	if !ok {
		return fmt.Errorf("scan not found")
	}
	scan.Status = models.ScanFailed
	scan.ErrorMessage = message
	m.scans[id] = scan
	return nil
}

func (m *MockScanRepository) GetPreviousScored(dealID uuid.UUID, before time.Time, excludeID uuid.UUID) (*models.Scan, error) {
	var candidates []models.Scan
	for _, scan := range m.scans {
		if scan.DealID != dealID || scan.Status != models.ScanScored || scan.ID == excludeID {
			continue
		}
		if scan.CreatedAt.Before(before) ||
			(scan.CreatedAt.Equal(before) && strings.Compare(scan.ID.String(), excludeID.String()) < 0) {
			candidates = append(candidates, scan)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortScansDesc(candidates)
	return &candidates[0], nil
}

func (m *MockScanRepository) FindRecentByHash(dealID uuid.UUID, inputHash string, since time.Time) (*models.Scan, error) {
	var candidates []models.Scan
	for _, scan := range m.scans {
		if scan.DealID != dealID || scan.InputHash != inputHash || scan.Status == models.ScanFailed {
			continue
		}
		if !scan.CreatedAt.Before(since) {
			candidates = append(candidates, scan)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortScansDesc(candidates)
	return &candidates[0], nil
}

func sortScansDesc(scans []models.Scan) {
	sort.Slice(scans, func(i, j int) bool {
		if !scans[i].CreatedAt.Equal(scans[j].CreatedAt) {
			return scans[i].CreatedAt.After(scans[j].CreatedAt)
		}
		return strings.Compare(scans[i].ID.String(), scans[j].ID.String()) > 0
	})
}

type MockFindingRepository struct {
	findings map[uuid.UUID][]models.RiskFinding
	getErr   error
}

func NewMockFindingRepository() *MockFindingRepository {
	return &MockFindingRepository{findings: make(map[uuid.UUID][]models.RiskFinding)}
}

func (m *MockFindingRepository) CreateBatch(findings []models.RiskFinding) error {
	for i := range findings {
		if findings[i].ID == uuid.Nil {
			findings[i].ID = uuid.New()
		}
		if findings[i].SeverityCurrent == "" {
			findings[i].SeverityCurrent = findings[i].SeverityOriginal
		}
		findings[i].CreatedAt = time.Now().UTC()
		m.findings[findings[i].ScanID] = append(m.findings[findings[i].ScanID], findings[i])
	}
	return nil
}

func (m *MockFindingRepository) GetByScan(scanID uuid.UUID) ([]models.RiskFinding, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	findings := make([]models.RiskFinding, len(m.findings[scanID]))
	copy(findings, m.findings[scanID])
	return findings, nil
}

func (m *MockFindingRepository) UpdateSeverities(severities map[uuid.UUID]models.Severity) error {
	for scanID, findings := range m.findings {
		for i := range findings {
			if sev, ok := severities[findings[i].ID]; ok {
				findings[i].SeverityCurrent = sev
			}
		}
		m.findings[scanID] = findings
	}
	return nil
}

type MockSignalRepository struct {
	signals []models.MacroSignal
	linked  map[uuid.UUID]bool
}

func NewMockSignalRepository() *MockSignalRepository {
	return &MockSignalRepository{linked: make(map[uuid.UUID]bool)}
}

func (m *MockSignalRepository) GetByID(id uuid.UUID) (*models.MacroSignal, error) {
	for _, signal := range m.signals {
		if signal.ID == id {
			return &signal, nil
		}
	}
	return nil, fmt.Errorf("signal not found")
}

func (m *MockSignalRepository) Create(signal *models.MacroSignal) error {
	if signal.ID == uuid.Nil {
		signal.ID = uuid.New()
	}
	signal.CreatedAt = time.Now().UTC()
	m.signals = append(m.signals, *signal)
	return nil
}

func (m *MockSignalRepository) CreateBatch(signals []models.MacroSignal) (int, error) {
	inserted := 0
	for i := range signals {
		if m.exists(signals[i]) {
			continue
		}
		if err := m.Create(&signals[i]); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (m *MockSignalRepository) exists(signal models.MacroSignal) bool {
	for _, existing := range m.signals {
		if existing.Source == signal.Source && existing.Title == signal.Title &&
			existing.ObservedAt.Equal(signal.ObservedAt) {
			return true
		}
	}
	return false
}

func (m *MockSignalRepository) GetWindow(until time.Time, windowDays, limit int) ([]models.MacroSignal, error) {
	from := until.AddDate(0, 0, -windowDays)
	var window []models.MacroSignal
	for _, signal := range m.signals {
		if signal.ObservedAt.After(from) && !signal.ObservedAt.After(until) {
			window = append(window, signal)
		}
	}
	sort.Slice(window, func(i, j int) bool { return window[i].ObservedAt.After(window[j].ObservedAt) })
	if limit > 0 && len(window) > limit {
		window = window[:limit]
	}
	return window, nil
}

func (m *MockSignalRepository) GetAll(filters repository.SignalFilters) ([]models.MacroSignal, error) {
	signals := make([]models.MacroSignal, len(m.signals))
	copy(signals, m.signals)
	sort.Slice(signals, func(i, j int) bool { return signals[i].ObservedAt.After(signals[j].ObservedAt) })
	return signals, nil
}

func (m *MockSignalRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var kept []models.MacroSignal
	var deleted int64
	for _, signal := range m.signals {
		if signal.ObservedAt.Before(cutoff) && !m.linked[signal.ID] {
			deleted++
			continue
		}
		kept = append(kept, signal)
	}
	m.signals = kept
	return deleted, nil
}

type MockLinkRepository struct {
	links    []models.SignalLink
	findings *MockFindingRepository
}

func NewMockLinkRepository(findings *MockFindingRepository) *MockLinkRepository {
	return &MockLinkRepository{findings: findings}
}

func (m *MockLinkRepository) UpsertBatch(links []models.SignalLink) (int, error) {
	inserted := 0
	for _, link := range links {
		if m.has(link.RiskFindingID, link.SignalID) {
			continue
		}
		if link.ID == uuid.Nil {
			link.ID = uuid.New()
		}
		link.CreatedAt = time.Now().UTC()
		m.links = append(m.links, link)
		inserted++
	}
	return inserted, nil
}

func (m *MockLinkRepository) has(findingID, signalID uuid.UUID) bool {
	for _, link := range m.links {
		if link.RiskFindingID == findingID && link.SignalID == signalID {
			return true
		}
	}
	return false
}

func (m *MockLinkRepository) GetByScan(scanID uuid.UUID) ([]models.SignalLink, error) {
	ids := make(map[uuid.UUID]bool)
	for _, finding := range m.findings.findings[scanID] {
		ids[finding.ID] = true
	}
	var links []models.SignalLink
	for _, link := range m.links {
		if ids[link.RiskFindingID] {
			links = append(links, link)
		}
	}
	return links, nil
}

func (m *MockLinkRepository) GetByFinding(findingID uuid.UUID) ([]models.SignalLink, error) {
	var links []models.SignalLink
	for _, link := range m.links {
		if link.RiskFindingID == findingID {
			links = append(links, link)
		}
	}
	return links, nil
}

type MockAuditRepository struct {
	entries []models.AuditLogEntry
	byScan  map[uuid.UUID]bool
	scans   *MockScanRepository
}

func NewMockAuditRepository(scans *MockScanRepository) *MockAuditRepository {
	return &MockAuditRepository{byScan: make(map[uuid.UUID]bool), scans: scans}
}

func (m *MockAuditRepository) Insert(entry *models.AuditLogEntry) error {
	if m.byScan[entry.ScanID] {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, *entry)
	m.byScan[entry.ScanID] = true
	return nil
}

func (m *MockAuditRepository) GetByDeal(dealID uuid.UUID, limit int) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	for _, entry := range m.entries {
		if entry.DealID == dealID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MockAuditRepository) GetScansMissingEntries(limit int) ([]uuid.UUID, error) {
	var missing []models.Scan
	for _, scan := range m.scans.scans {
		if scan.Status == models.ScanScored && !m.byScan[scan.ID] {
			missing = append(missing, scan)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		return missing[i].ScoredAt.Before(*missing[j].ScoredAt)
	})
	var ids []uuid.UUID
	for _, scan := range missing {
		ids = append(ids, scan.ID)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids, nil
}

type MockOutcomeRepository struct {
	outcomes map[uuid.UUID]models.DealOutcome
	records  []models.BacktestRecord
}

func NewMockOutcomeRepository() *MockOutcomeRepository {
	return &MockOutcomeRepository{outcomes: make(map[uuid.UUID]models.DealOutcome)}
}

func (m *MockOutcomeRepository) Upsert(outcome *models.DealOutcome) error {
	if existing, ok := m.outcomes[outcome.DealID]; ok {
		outcome.ID = existing.ID
	} else if outcome.ID == uuid.Nil {
		outcome.ID = uuid.New()
	}
	outcome.RecordedAt = time.Now().UTC()
	m.outcomes[outcome.DealID] = *outcome
	return nil
}

func (m *MockOutcomeRepository) GetByDeal(dealID uuid.UUID) (*models.DealOutcome, error) {
	outcome, ok := m.outcomes[dealID]
	if !ok {
		return nil, fmt.Errorf("outcome not found")
	}
	return &outcome, nil
}

func (m *MockOutcomeRepository) GetBacktestRecords() ([]models.BacktestRecord, error) {
	return m.records, nil
}

type MockUserRepository struct {
	users map[uuid.UUID]models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]models.User)}
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockUserRepository) Create(user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *MockUserRepository) Update(user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MockUserRepository) Delete(id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

// MockTransactionManager runs the function against the same repositories;
// rollback behavior is not simulated
type MockTransactionManager struct {
	repos *repository.Repositories
}

func (m *MockTransactionManager) WithTransaction(fn func(repos *repository.Repositories) error) error {
	return fn(m.repos)
}

// testRepos bundles the mocks behind a Repositories value
type testRepos struct {
	repos    *repository.Repositories
	deals    *MockDealRepository
	scans    *MockScanRepository
	findings *MockFindingRepository
	signals  *MockSignalRepository
	links    *MockLinkRepository
	audit    *MockAuditRepository
	outcomes *MockOutcomeRepository
	users    *MockUserRepository
}

func newTestRepos() *testRepos {
	deals := NewMockDealRepository()
	scans := NewMockScanRepository()
	findings := NewMockFindingRepository()
	signals := NewMockSignalRepository()
	links := NewMockLinkRepository(findings)
	audit := NewMockAuditRepository(scans)
	outcomes := NewMockOutcomeRepository()
	users := NewMockUserRepository()

	tx := &MockTransactionManager{}
	repos := &repository.Repositories{
		Deal:    deals,
		Scan:    scans,
		Finding: findings,
		Signal:  signals,
		Link:    links,
		Audit:   audit,
		Outcome: outcomes,
		User:    users,
		Tx:      tx,
	}
	tx.repos = repos

	return &testRepos{
		repos:    repos,
		deals:    deals,
		scans:    scans,
		findings: findings,
		signals:  signals,
		links:    links,
		audit:    audit,
		outcomes: outcomes,
		users:    users,
	}
}
