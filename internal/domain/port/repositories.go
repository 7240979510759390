package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// ActivityFilter narrows account activity and time-travel queries.
type ActivityFilter struct {
	From       time.Time
	To         time.Time
	Dimensions valueobject.Dimensions
	SourceType model.SourceType
	Limit      int
	Offset     int
}

// JournalRepository defines persistence operations for journal entries.
// CreateEntry is the single write path: the entry, its postings, the balance
// upserts, and the outbox rows commit in one transaction or not at all.
type JournalRepository interface {
	CreateEntry(ctx context.Context, entry model.JournalEntry, evts ...events.DomainEvent) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (model.JournalEntry, error)
	// FindByIdempotencyKey returns the existing entry for a key, or
	// model.ErrEntryNotFound when the key has never been used.
	FindByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (model.JournalEntry, error)
	ListByAccount(ctx context.Context, orgID, accountID uuid.UUID, f ActivityFilter) ([]model.JournalEntry, int, error)
	// SumPostingsSince returns the signed sum of postings for an account with
	// an effective date strictly after asOf. Time-travel balances subtract
	// this from the current materialized balance.
	SumPostingsSince(ctx context.Context, orgID, accountID uuid.UUID, asOf time.Time) (decimal.Decimal, error)
	// CreateReversal writes the reversal entry and links the original to it
	// in the same transaction. A second reversal of the same original fails
	// with model.ErrAlreadyReversed and nothing commits.
	CreateReversal(ctx context.Context, reversal model.JournalEntry, evts ...events.DomainEvent) error
}

// BalanceRepository reads the materialized balance tables.
type BalanceRepository interface {
	GetBalance(ctx context.Context, orgID, accountID uuid.UUID) (model.AccountBalance, error)
	ListBalances(ctx context.Context, orgID uuid.UUID) ([]model.AccountBalance, error)
	GetDimensionalBalances(ctx context.Context, orgID, accountID uuid.UUID, filter valueobject.Dimensions) ([]model.DimensionalBalance, error)
	// TrialBalance returns one line per account with a nonzero balance.
	TrialBalance(ctx context.Context, orgID uuid.UUID) ([]model.TrialBalanceLine, error)
	// SumPostingsByAccount recomputes balances from raw postings; the
	// diagnostics service compares it against the materialized table.
	SumPostingsByAccount(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// IntegrityRepository serves the diagnostic checks with raw aggregate
// queries that bypass the materialized tables.
type IntegrityRepository interface {
	// SumBalanceBySubtype totals the materialized balances of all accounts
	// carrying the given subtype.
	SumBalanceBySubtype(ctx context.Context, orgID uuid.UUID, subtype valueobject.AccountSubtype) (decimal.Decimal, error)
	// OrphanCounts returns postings without a parent entry and entries with
	// zero postings.
	OrphanCounts(ctx context.Context, orgID uuid.UUID) (orphanPostings, emptyEntries int, err error)
}

// AccountRepository defines persistence operations for the chart of accounts.
type AccountRepository interface {
	Save(ctx context.Context, account model.Account) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (model.Account, error)
	FindByCode(ctx context.Context, orgID uuid.UUID, code valueobject.AccountCode) (model.Account, error)
	ListActive(ctx context.Context, orgID uuid.UUID) ([]model.Account, error)
	// FindBySubtype locates the designated account for a role, such as the
	// trust bank account or the security deposit liability account.
	FindBySubtype(ctx context.Context, orgID uuid.UUID, subtype valueobject.AccountSubtype) (model.Account, error)
}

// PeriodRepository defines persistence operations for accounting periods.
type PeriodRepository interface {
	Save(ctx context.Context, orgID uuid.UUID, period valueobject.AccountingPeriod) error
	// FindContaining returns the period covering the given calendar date. A
	// date with no defined period resolves to an open implicit period.
	FindContaining(ctx context.Context, orgID uuid.UUID, date time.Time) (valueobject.AccountingPeriod, error)
	Close(ctx context.Context, orgID uuid.UUID, period valueobject.AccountingPeriod) error
}

// ComplianceRuleRepository defines persistence for jurisdictional rules.
type ComplianceRuleRepository interface {
	// Upsert end-dates any currently open rule for (state, type, key) at the
	// new rule's effective date, then inserts the new row.
	Upsert(ctx context.Context, rule model.ComplianceRule) error
	// FindActive returns the rule in force for the tuple on the given date,
	// or model.ErrComplianceRuleNotFound.
	FindActive(ctx context.Context, orgID uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (model.ComplianceRule, error)
	ListByState(ctx context.Context, orgID uuid.UUID, stateCode string, onDate time.Time) ([]model.ComplianceRule, error)
}

// SagaRepository defines persistence for sagas and their step logs.
type SagaRepository interface {
	Save(ctx context.Context, saga *model.Saga) error
	// Update persists saga state guarded by optimistic version check.
	Update(ctx context.Context, saga *model.Saga) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Saga, error)
	AppendStepLog(ctx context.Context, log model.SagaStepLog) error
	ListStepLogs(ctx context.Context, sagaID uuid.UUID) ([]model.SagaStepLog, error)
	// ListStalled returns non-terminal sagas past their timeout or with a
	// stale heartbeat, for the reaper.
	ListStalled(ctx context.Context, olderThan time.Time, limit int) ([]*model.Saga, error)
}

// OwnerRepository reads owner payment data for distribution runs.
type OwnerRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (model.Owner, error)
	ListByProperty(ctx context.Context, orgID, propertyID uuid.UUID) ([]model.Owner, error)
	// LiabilityBalance returns the owner's current payable balance from the
	// dimensional balance table.
	LiabilityBalance(ctx context.Context, orgID, ownerID uuid.UUID) (decimal.Decimal, error)
}

// DistributionRepository defines persistence for distribution records.
type DistributionRepository interface {
	SaveAll(ctx context.Context, records []model.Distribution) error
	Update(ctx context.Context, record model.Distribution) error
	ListBySaga(ctx context.Context, sagaID uuid.UUID) ([]model.Distribution, error)
	MarkProcessed(ctx context.Context, sagaID uuid.UUID, processedAt time.Time) error
	// DeleteBySaga removes pending records during compensation.
	DeleteBySaga(ctx context.Context, sagaID uuid.UUID) error
}

// DepositRepository defines persistence for security deposits.
type DepositRepository interface {
	Save(ctx context.Context, deposit *model.SecurityDeposit) error
	Update(ctx context.Context, deposit *model.SecurityDeposit) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.SecurityDeposit, error)
	FindHeldByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (*model.SecurityDeposit, error)
}

// NachaFileRepository defines persistence for generated ACH files.
type NachaFileRepository interface {
	Save(ctx context.Context, file *model.NachaFile) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.NachaFile, error)
	FindBySaga(ctx context.Context, sagaID uuid.UUID) (*model.NachaFile, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.NachaFileStatus, submittedAt *time.Time) error
}

// CheckNumberProvider hands out sequential check numbers per org.
type CheckNumberProvider interface {
	NextCheckNumber(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// TaxRepository aggregates payments for information returns.
type TaxRepository interface {
	// VendorPaymentsForYear returns total payments per vendor for a calendar
	// year, from the vendor dimension on expense postings.
	VendorPaymentsForYear(ctx context.Context, orgID uuid.UUID, year int) (map[uuid.UUID]decimal.Decimal, error)
	// OwnerIncomeForYear returns gross rents collected per owner.
	OwnerIncomeForYear(ctx context.Context, orgID uuid.UUID, year int) (map[uuid.UUID]decimal.Decimal, error)
	FindVendor(ctx context.Context, orgID, vendorID uuid.UUID) (model.Vendor, error)
}

// EventPublisher publishes domain events to a message broker. The outbox
// worker is the only caller; handlers never publish directly.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error
}

// BankSubmitter submits an ACH file to the originating bank.
type BankSubmitter interface {
	Submit(ctx context.Context, file *model.NachaFile) (confirmation string, err error)
}
