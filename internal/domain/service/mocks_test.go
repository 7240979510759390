package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// --- Mock implementations ---

// memJournal is an in-memory port.JournalRepository that also maintains
// per-account balances the way the real repository does in one transaction.
type memJournal struct {
	mu        sync.Mutex
	entries   map[uuid.UUID]model.JournalEntry
	byKey     map[string]uuid.UUID
	reversals map[uuid.UUID]uuid.UUID // original -> reversal
	balances  map[uuid.UUID]decimal.Decimal
	events    []events.DomainEvent

	sumSinceFunc func(accountID uuid.UUID, asOf time.Time) (decimal.Decimal, error)
	createErr    error
}

func newMemJournal() *memJournal {
	return &memJournal{
		entries:   map[uuid.UUID]model.JournalEntry{},
		byKey:     map[string]uuid.UUID{},
		reversals: map[uuid.UUID]uuid.UUID{},
		balances:  map[uuid.UUID]decimal.Decimal{},
	}
}

func (m *memJournal) CreateEntry(_ context.Context, entry model.JournalEntry, evts ...events.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, dup := m.byKey[entry.IdempotencyKey()]; dup {
		return model.ErrDuplicateIdempotencyKey
	}
	m.entries[entry.ID()] = entry
	m.byKey[entry.IdempotencyKey()] = entry.ID()
	for _, p := range entry.Postings() {
		m.balances[p.AccountID()] = m.balances[p.AccountID()].Add(p.Amount())
	}
	m.events = append(m.events, evts...)
	return nil
}

func (m *memJournal) FindByID(_ context.Context, _, id uuid.UUID) (model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return model.JournalEntry{}, model.ErrEntryNotFound
	}
	return m.withLinks(entry), nil
}

func (m *memJournal) FindByIdempotencyKey(_ context.Context, _ uuid.UUID, key string) (model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key]
	if !ok {
		return model.JournalEntry{}, model.ErrEntryNotFound
	}
	return m.withLinks(m.entries[id]), nil
}

func (m *memJournal) ListByAccount(_ context.Context, _, accountID uuid.UUID, _ port.ActivityFilter) ([]model.JournalEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.JournalEntry
	for _, e := range m.entries {
		for _, p := range e.Postings() {
			if p.AccountID() == accountID {
				out = append(out, e)
				break
			}
		}
	}
	return out, len(out), nil
}

func (m *memJournal) SumPostingsSince(_ context.Context, _, accountID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	if m.sumSinceFunc != nil {
		return m.sumSinceFunc(accountID, asOf)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, e := range m.entries {
		if !e.EffectiveDate().After(asOf) {
			continue
		}
		for _, p := range e.Postings() {
			if p.AccountID() == accountID {
				total = total.Add(p.Amount())
			}
		}
	}
	return total, nil
}

// CreateReversal mirrors the real repository: the reversal insert, its
// balance deltas, and the back-link on the original commit together or not
// at all.
func (m *memJournal) CreateReversal(_ context.Context, reversal model.JournalEntry, evts ...events.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, dup := m.byKey[reversal.IdempotencyKey()]; dup {
		return model.ErrDuplicateIdempotencyKey
	}
	originalID := *reversal.ReversesEntryID()
	if _, linked := m.reversals[originalID]; linked {
		return fmt.Errorf("%w: entry %s", model.ErrAlreadyReversed, originalID)
	}
	m.entries[reversal.ID()] = reversal
	m.byKey[reversal.IdempotencyKey()] = reversal.ID()
	for _, p := range reversal.Postings() {
		m.balances[p.AccountID()] = m.balances[p.AccountID()].Add(p.Amount())
	}
	m.reversals[originalID] = reversal.ID()
	m.events = append(m.events, evts...)
	return nil
}

// withLinks rehydrates the reversed_by link recorded via CreateReversal.
func (m *memJournal) withLinks(e model.JournalEntry) model.JournalEntry {
	revID, ok := m.reversals[e.ID()]
	if !ok {
		return e
	}
	return model.ReconstructJournalEntry(
		e.ID(), e.OrgID(), e.EntryDate(), e.EffectiveDate(),
		e.Description(), e.Memo(), e.SourceType(), e.SourceID(),
		e.IsReversal(), e.ReversesEntryID(), &revID,
		e.IdempotencyKey(), e.TraceID(), e.Postings(), e.CreatedAt(), e.CreatedBy(),
	)
}

// mockBalances implements port.BalanceRepository over a memJournal.
type mockBalances struct {
	journal       *memJournal
	trialLines    []model.TrialBalanceLine
	trialErr      error
	overrides     map[uuid.UUID]decimal.Decimal // materialized-table injections
	listBalances  []model.AccountBalance
	dimensional   []model.DimensionalBalance
}

func (m *mockBalances) GetBalance(_ context.Context, orgID, accountID uuid.UUID) (model.AccountBalance, error) {
	if v, ok := m.overrides[accountID]; ok {
		return model.AccountBalance{OrgID: orgID, AccountID: accountID, Balance: v}, nil
	}
	m.journal.mu.Lock()
	defer m.journal.mu.Unlock()
	return model.AccountBalance{OrgID: orgID, AccountID: accountID, Balance: m.journal.balances[accountID], UpdatedAt: time.Now()}, nil
}

func (m *mockBalances) ListBalances(_ context.Context, orgID uuid.UUID) ([]model.AccountBalance, error) {
	if m.listBalances != nil {
		return m.listBalances, nil
	}
	m.journal.mu.Lock()
	defer m.journal.mu.Unlock()
	var out []model.AccountBalance
	for id, b := range m.journal.balances {
		balance := b
		if v, ok := m.overrides[id]; ok {
			balance = v
		}
		out = append(out, model.AccountBalance{OrgID: orgID, AccountID: id, Balance: balance})
	}
	return out, nil
}

func (m *mockBalances) GetDimensionalBalances(_ context.Context, _, _ uuid.UUID, _ valueobject.Dimensions) ([]model.DimensionalBalance, error) {
	return m.dimensional, nil
}

func (m *mockBalances) TrialBalance(_ context.Context, _ uuid.UUID) ([]model.TrialBalanceLine, error) {
	return m.trialLines, m.trialErr
}

func (m *mockBalances) SumPostingsByAccount(_ context.Context, _ uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	m.journal.mu.Lock()
	defer m.journal.mu.Unlock()
	out := make(map[uuid.UUID]decimal.Decimal, len(m.journal.balances))
	for id, b := range m.journal.balances {
		out[id] = b
	}
	return out, nil
}

// mockAccounts implements port.AccountRepository.
type mockAccounts struct {
	accounts map[uuid.UUID]model.Account
}

func newMockAccounts(accounts ...model.Account) *mockAccounts {
	m := &mockAccounts{accounts: map[uuid.UUID]model.Account{}}
	for _, a := range accounts {
		m.accounts[a.ID()] = a
	}
	return m
}

func (m *mockAccounts) Save(_ context.Context, account model.Account) error {
	m.accounts[account.ID()] = account
	return nil
}

func (m *mockAccounts) FindByID(_ context.Context, _, id uuid.UUID) (model.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return a, nil
}

func (m *mockAccounts) FindByCode(_ context.Context, _ uuid.UUID, code valueobject.AccountCode) (model.Account, error) {
	for _, a := range m.accounts {
		if a.Code().Equal(code) {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (m *mockAccounts) ListActive(_ context.Context, _ uuid.UUID) ([]model.Account, error) {
	var out []model.Account
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAccounts) FindBySubtype(_ context.Context, _ uuid.UUID, subtype valueobject.AccountSubtype) (model.Account, error) {
	for _, a := range m.accounts {
		if a.Subtype() == subtype {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

// mockPeriods implements port.PeriodRepository with a set of defined
// periods; dates outside any period resolve to an implicit open one.
type mockPeriods struct {
	periods []valueobject.AccountingPeriod
}

func (m *mockPeriods) Save(_ context.Context, _ uuid.UUID, p valueobject.AccountingPeriod) error {
	m.periods = append(m.periods, p)
	return nil
}

func (m *mockPeriods) FindContaining(_ context.Context, _ uuid.UUID, date time.Time) (valueobject.AccountingPeriod, error) {
	for _, p := range m.periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	d := valueobject.DateOf(date)
	return valueobject.ReconstructPeriod(d, d, valueobject.PeriodStatusOpen), nil
}

func (m *mockPeriods) Close(_ context.Context, _ uuid.UUID, closed valueobject.AccountingPeriod) error {
	for i, p := range m.periods {
		if p.Start().Equal(closed.Start()) {
			m.periods[i] = closed
		}
	}
	return nil
}

// mockRules implements port.ComplianceRuleRepository.
type mockRules struct {
	rules []model.ComplianceRule
}

func (m *mockRules) add(stateCode, ruleType, ruleKey, value string, effective time.Time) {
	m.rules = append(m.rules, model.ComplianceRule{
		ID:            uuid.New(),
		StateCode:     stateCode,
		RuleType:      ruleType,
		RuleKey:       ruleKey,
		RuleValue:     value,
		EffectiveDate: effective,
	})
}

func (m *mockRules) Upsert(_ context.Context, rule model.ComplianceRule) error {
	m.rules = append(m.rules, rule)
	return nil
}

func (m *mockRules) FindActive(_ context.Context, _ uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (model.ComplianceRule, error) {
	for _, r := range m.rules {
		if r.StateCode == stateCode && r.RuleType == ruleType && r.RuleKey == ruleKey && r.ActiveAt(onDate) {
			return r, nil
		}
	}
	return model.ComplianceRule{}, model.ErrComplianceRuleNotFound
}

func (m *mockRules) ListByState(_ context.Context, _ uuid.UUID, stateCode string, onDate time.Time) ([]model.ComplianceRule, error) {
	var out []model.ComplianceRule
	for _, r := range m.rules {
		if r.StateCode == stateCode && r.ActiveAt(onDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockIntegrity implements port.IntegrityRepository.
type mockIntegrity struct {
	subtypeSums    map[valueobject.AccountSubtype]decimal.Decimal
	orphanPostings int
	emptyEntries   int
}

func (m *mockIntegrity) SumBalanceBySubtype(_ context.Context, _ uuid.UUID, subtype valueobject.AccountSubtype) (decimal.Decimal, error) {
	return m.subtypeSums[subtype], nil
}

func (m *mockIntegrity) OrphanCounts(_ context.Context, _ uuid.UUID) (int, int, error) {
	return m.orphanPostings, m.emptyEntries, nil
}

// mockOwners implements port.OwnerRepository.
type mockOwners struct {
	owners    []model.Owner
	liability map[uuid.UUID]decimal.Decimal
}

func (m *mockOwners) FindByID(_ context.Context, _, id uuid.UUID) (model.Owner, error) {
	for _, o := range m.owners {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Owner{}, model.ErrAccountNotFound
}

func (m *mockOwners) ListByProperty(_ context.Context, _, _ uuid.UUID) ([]model.Owner, error) {
	return m.owners, nil
}

func (m *mockOwners) LiabilityBalance(_ context.Context, _, ownerID uuid.UUID) (decimal.Decimal, error) {
	return m.liability[ownerID], nil
}

// mockDistributions implements port.DistributionRepository.
type mockDistributions struct {
	records map[uuid.UUID]model.Distribution
}

func newMockDistributions() *mockDistributions {
	return &mockDistributions{records: map[uuid.UUID]model.Distribution{}}
}

func (m *mockDistributions) SaveAll(_ context.Context, records []model.Distribution) error {
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *mockDistributions) Update(_ context.Context, record model.Distribution) error {
	m.records[record.ID] = record
	return nil
}

func (m *mockDistributions) ListBySaga(_ context.Context, sagaID uuid.UUID) ([]model.Distribution, error) {
	var out []model.Distribution
	for _, r := range m.records {
		if r.SagaID == sagaID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockDistributions) MarkProcessed(_ context.Context, sagaID uuid.UUID, processedAt time.Time) error {
	for id, r := range m.records {
		if r.SagaID == sagaID {
			r.Status = model.DistributionStatusProcessed
			r.ProcessedAt = &processedAt
			m.records[id] = r
		}
	}
	return nil
}

func (m *mockDistributions) DeleteBySaga(_ context.Context, sagaID uuid.UUID) error {
	for id, r := range m.records {
		if r.SagaID == sagaID {
			delete(m.records, id)
		}
	}
	return nil
}

// mockNachaFiles implements port.NachaFileRepository.
type mockNachaFiles struct {
	files map[uuid.UUID]*model.NachaFile
}

func newMockNachaFiles() *mockNachaFiles {
	return &mockNachaFiles{files: map[uuid.UUID]*model.NachaFile{}}
}

func (m *mockNachaFiles) Save(_ context.Context, file *model.NachaFile) error {
	m.files[file.ID] = file
	return nil
}

func (m *mockNachaFiles) FindByID(_ context.Context, _, id uuid.UUID) (*model.NachaFile, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, model.ErrNachaFileNotFound
	}
	return f, nil
}

func (m *mockNachaFiles) FindBySaga(_ context.Context, sagaID uuid.UUID) (*model.NachaFile, error) {
	for _, f := range m.files {
		if f.SagaID == sagaID {
			return f, nil
		}
	}
	return nil, model.ErrNachaFileNotFound
}

func (m *mockNachaFiles) UpdateStatus(_ context.Context, id uuid.UUID, status model.NachaFileStatus, submittedAt *time.Time) error {
	f, ok := m.files[id]
	if !ok {
		return model.ErrNachaFileNotFound
	}
	f.Status = status
	if submittedAt != nil {
		f.SubmittedAt = submittedAt
	}
	return nil
}

// mockDeposits implements port.DepositRepository.
type mockDeposits struct {
	deposits map[uuid.UUID]*model.SecurityDeposit
}

func newMockDeposits(deposits ...*model.SecurityDeposit) *mockDeposits {
	m := &mockDeposits{deposits: map[uuid.UUID]*model.SecurityDeposit{}}
	for _, d := range deposits {
		m.deposits[d.ID] = d
	}
	return m
}

func (m *mockDeposits) Save(_ context.Context, d *model.SecurityDeposit) error {
	m.deposits[d.ID] = d
	return nil
}

func (m *mockDeposits) Update(_ context.Context, d *model.SecurityDeposit) error {
	m.deposits[d.ID] = d
	return nil
}

func (m *mockDeposits) FindByID(_ context.Context, _, id uuid.UUID) (*model.SecurityDeposit, error) {
	d, ok := m.deposits[id]
	if !ok {
		return nil, model.ErrDepositNotFound
	}
	return d, nil
}

func (m *mockDeposits) FindHeldByTenant(_ context.Context, _, tenantID uuid.UUID) (*model.SecurityDeposit, error) {
	for _, d := range m.deposits {
		if d.TenantID == tenantID && d.Status == model.DepositStatusHeld {
			return d, nil
		}
	}
	return nil, model.ErrDepositNotFound
}

// mockCheckNumbers implements port.CheckNumberProvider.
type mockCheckNumbers struct {
	next int64
}

func (m *mockCheckNumbers) NextCheckNumber(_ context.Context, _ uuid.UUID) (int64, error) {
	m.next++
	return m.next, nil
}
