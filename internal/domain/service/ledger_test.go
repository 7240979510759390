package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ledgerFixture struct {
	orgID    uuid.UUID
	journal  *memJournal
	balances *mockBalances
	accounts *mockAccounts
	periods  *mockPeriods
	ledger   *service.LedgerService

	cash       model.Account
	receivable model.Account
	income     model.Account
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	orgID := uuid.New()

	cash, err := model.NewAccount(orgID, valueobject.MustAccountCode("1000"), "Operating Cash", valueobject.AccountTypeAsset, "")
	require.NoError(t, err)
	receivable, err := model.NewAccount(orgID, valueobject.MustAccountCode("1050"), "Accounts Receivable", valueobject.AccountTypeAsset, "")
	require.NoError(t, err)
	income, err := model.NewAccount(orgID, valueobject.MustAccountCode("4000"), "Rental Income", valueobject.AccountTypeRevenue, "")
	require.NoError(t, err)

	journal := newMemJournal()
	balances := &mockBalances{journal: journal}
	accounts := newMockAccounts(cash, receivable, income)
	periods := &mockPeriods{}

	ledger := service.NewLedgerService(
		journal, balances,
		service.NewPostingValidator(accounts),
		service.NewPeriodManager(periods),
		discardLogger(),
	)
	return &ledgerFixture{
		orgID: orgID, journal: journal, balances: balances,
		accounts: accounts, periods: periods, ledger: ledger,
		cash: cash, receivable: receivable, income: income,
	}
}

func (f *ledgerFixture) post(t *testing.T, key string, lines ...model.Posting) model.JournalEntry {
	t.Helper()
	entry, err := f.ledger.CreateEntry(context.Background(), model.EntryInput{
		OrgID:          f.orgID,
		Description:    "test entry",
		SourceType:     model.SourcePayment,
		IdempotencyKey: key,
		Postings:       lines,
	})
	require.NoError(t, err)
	return entry
}

func posting(t *testing.T, accountID uuid.UUID, amount string) model.Posting {
	t.Helper()
	p, err := model.NewPosting(accountID, decimal.RequireFromString(amount), valueobject.Dimensions{}, "")
	require.NoError(t, err)
	return p
}

// Rent charge then payment: A/R nets to zero, cash and income carry the
// month's rent.
func TestLedgerService_RentChargeAndPayment(t *testing.T) {
	f := newLedgerFixture(t)

	f.post(t, "charge-1",
		posting(t, f.receivable.ID(), "1500"),
		posting(t, f.income.ID(), "-1500"))
	f.post(t, "payment-1",
		posting(t, f.cash.ID(), "1500"),
		posting(t, f.receivable.ID(), "-1500"))

	ar, err := f.ledger.ReadBalance(context.Background(), f.orgID, f.receivable.ID())
	require.NoError(t, err)
	assert.True(t, ar.Balance.IsZero(), "A/R should net to zero, got %s", ar.Balance)

	cash, err := f.ledger.ReadBalance(context.Background(), f.orgID, f.cash.ID())
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(decimal.NewFromInt(1500)))

	income, err := f.ledger.ReadBalance(context.Background(), f.orgID, f.income.ID())
	require.NoError(t, err)
	assert.True(t, income.Balance.Equal(decimal.NewFromInt(-1500)), "revenue carries a credit balance")
}

func TestLedgerService_CreateEntry_EmitsPostedEvent(t *testing.T) {
	f := newLedgerFixture(t)
	f.post(t, "evt-1",
		posting(t, f.cash.ID(), "100"),
		posting(t, f.income.ID(), "-100"))

	require.Len(t, f.journal.events, 1)
	assert.Equal(t, "journal.posted", f.journal.events[0].EventType())
}

func TestLedgerService_CreateEntry_IdempotentReplay(t *testing.T) {
	f := newLedgerFixture(t)

	first := f.post(t, "same-key",
		posting(t, f.cash.ID(), "100"),
		posting(t, f.income.ID(), "-100"))
	second := f.post(t, "same-key",
		posting(t, f.cash.ID(), "100"),
		posting(t, f.income.ID(), "-100"))

	assert.Equal(t, first.ID(), second.ID())
	assert.Len(t, f.journal.entries, 1)

	// Balances unchanged by the replay.
	cash, err := f.ledger.ReadBalance(context.Background(), f.orgID, f.cash.ID())
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(decimal.NewFromInt(100)))
}

func TestLedgerService_CreateEntry_RejectsUnknownAccount(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.CreateEntry(context.Background(), model.EntryInput{
		OrgID:          f.orgID,
		IdempotencyKey: "bad-acct",
		Postings: []model.Posting{
			posting(t, uuid.New(), "100"),
			posting(t, f.income.ID(), "-100"),
		},
	})
	assert.ErrorIs(t, err, model.ErrInvalidAccount)
	assert.Empty(t, f.journal.entries, "no mutation on failure")
}

func TestLedgerService_CreateEntry_RejectsUnbalanced(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.CreateEntry(context.Background(), model.EntryInput{
		OrgID:          f.orgID,
		IdempotencyKey: "unbalanced",
		Postings: []model.Posting{
			posting(t, f.cash.ID(), "100"),
			posting(t, f.income.ID(), "-99.99"),
		},
	})
	assert.ErrorIs(t, err, model.ErrUnbalanced)
}

func TestLedgerService_ReverseEntry(t *testing.T) {
	f := newLedgerFixture(t)
	entry := f.post(t, "to-reverse",
		posting(t, f.cash.ID(), "250"),
		posting(t, f.income.ID(), "-250"))

	reversal, err := f.ledger.ReverseEntry(context.Background(), f.orgID, entry.ID(), "posted in error", "rev-1", "", "ops")
	require.NoError(t, err)

	assert.True(t, reversal.IsReversal())
	require.NotNil(t, reversal.ReversesEntryID())
	assert.Equal(t, entry.ID(), *reversal.ReversesEntryID())

	// Balances net back to zero.
	cash, err := f.ledger.ReadBalance(context.Background(), f.orgID, f.cash.ID())
	require.NoError(t, err)
	assert.True(t, cash.Balance.IsZero())

	// Original now carries the back-link and refuses a second reversal.
	_, err = f.ledger.ReverseEntry(context.Background(), f.orgID, entry.ID(), "again", "rev-2", "", "ops")
	assert.ErrorIs(t, err, model.ErrAlreadyReversed)
}

// A reversal write that fails commits nothing, so a retry with a fresh key
// posts exactly one reversal and any further attempt is refused. The insert
// and the back-link share one transaction; a committed reversal without the
// link would let a retried key double-credit the account.
func TestLedgerService_ReverseEntry_FailedWriteLeavesNoPartialState(t *testing.T) {
	f := newLedgerFixture(t)
	entry := f.post(t, "orig-1500",
		posting(t, f.cash.ID(), "1500"),
		posting(t, f.income.ID(), "-1500"))

	f.journal.createErr = errors.New("connection reset")
	_, err := f.ledger.ReverseEntry(context.Background(), f.orgID, entry.ID(), "nsf", "rev-key-1", "", "ops")
	require.Error(t, err)

	// Nothing committed: balance intact, no back-link.
	cash, err := f.ledger.ReadBalance(context.Background(), f.orgID, f.cash.ID())
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(decimal.NewFromInt(1500)))

	f.journal.createErr = nil
	_, err = f.ledger.ReverseEntry(context.Background(), f.orgID, entry.ID(), "nsf", "rev-key-2", "", "ops")
	require.NoError(t, err)

	cash, err = f.ledger.ReadBalance(context.Background(), f.orgID, f.cash.ID())
	require.NoError(t, err)
	assert.True(t, cash.Balance.IsZero(), "exactly one reversal must land, got %s", cash.Balance)

	_, err = f.ledger.ReverseEntry(context.Background(), f.orgID, entry.ID(), "nsf", "rev-key-3", "", "ops")
	assert.ErrorIs(t, err, model.ErrAlreadyReversed)
}

// Reversing an entry whose period has closed lands the reversal on today's
// date, leaving the closed period untouched.
func TestLedgerService_ReverseEntry_ClosedPeriodDatedToday(t *testing.T) {
	f := newLedgerFixture(t)

	december := valueobject.MonthPeriod(2024, time.December)
	f.periods.periods = []valueobject.AccountingPeriod{december}

	entry, err := f.ledger.CreateEntry(context.Background(), model.EntryInput{
		OrgID:          f.orgID,
		EntryDate:      time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
		EffectiveDate:  time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
		IdempotencyKey: "dec-entry",
		Postings: []model.Posting{
			posting(t, f.cash.ID(), "500"),
			posting(t, f.income.ID(), "-500"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), entry.EffectiveDate())

	closed, err := december.Close()
	require.NoError(t, err)
	f.periods.periods = []valueobject.AccountingPeriod{closed}

	reversal, err := f.ledger.ReverseEntry(context.Background(), f.orgID, entry.ID(), "void", "dec-void", "", "ops")
	require.NoError(t, err)

	today := valueobject.DateOf(time.Now().UTC())
	assert.Equal(t, today, reversal.EffectiveDate(), "reversal must not land in the closed period")
}

func TestLedgerService_BalanceAsOf(t *testing.T) {
	f := newLedgerFixture(t)

	f.post(t, "old",
		posting(t, f.cash.ID(), "1000"),
		posting(t, f.income.ID(), "-1000"))
	f.post(t, "new",
		posting(t, f.cash.ID(), "200"),
		posting(t, f.income.ID(), "-200"))

	// Pretend the second entry happened after the asOf cut.
	f.journal.sumSinceFunc = func(accountID uuid.UUID, _ time.Time) (decimal.Decimal, error) {
		if accountID == f.cash.ID() {
			return decimal.NewFromInt(200), nil
		}
		return decimal.Zero, nil
	}

	historical, err := f.ledger.BalanceAsOf(context.Background(), f.orgID, f.cash.ID(), time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.True(t, historical.Equal(decimal.NewFromInt(1000)), "B_asOf = B_now - delta, got %s", historical)

	// As-of today short-circuits to the materialized balance.
	current, err := f.ledger.BalanceAsOf(context.Background(), f.orgID, f.cash.ID(), time.Now())
	require.NoError(t, err)
	assert.True(t, current.Equal(decimal.NewFromInt(1200)))
}
