package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

type diagFixture struct {
	orgID     uuid.UUID
	journal   *memJournal
	balances  *mockBalances
	integrity *mockIntegrity
	diag      *service.Diagnostics
}

// newDiagFixture seeds a consistent book: trust bank $5,000 against owner
// liability $3,800, deposits $1,200, no outstanding checks.
func newDiagFixture() *diagFixture {
	journal := newMemJournal()
	balances := &mockBalances{
		journal: journal,
		trialLines: []model.TrialBalanceLine{
			{Debit: decimal.NewFromInt(5000)},
			{Credit: decimal.NewFromInt(3800)},
			{Credit: decimal.NewFromInt(1200)},
		},
	}
	integrity := &mockIntegrity{
		subtypeSums: map[valueobject.AccountSubtype]decimal.Decimal{
			valueobject.SubtypeTrustBank:       decimal.NewFromInt(5000),
			valueobject.SubtypeOwnerLiability:  decimal.NewFromInt(-3800),
			valueobject.SubtypeSecurityDeposit: decimal.NewFromInt(-1200),
		},
	}
	return &diagFixture{
		orgID:     uuid.New(),
		journal:   journal,
		balances:  balances,
		integrity: integrity,
		diag:      service.NewDiagnostics(balances, integrity, decimal.Zero, decimal.Zero, discardLogger()),
	}
}

func TestDiagnostics_FullAllPass(t *testing.T) {
	f := newDiagFixture()

	report, err := f.diag.Full(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, report.Passed)
	require.Len(t, report.Checks, 4)
	for _, c := range report.Checks {
		assert.True(t, c.Passed, c.Name)
	}
}

func TestDiagnostics_TrustIntegrityVariance(t *testing.T) {
	f := newDiagFixture()
	// Trust bank off by exactly one dollar.
	f.integrity.subtypeSums[valueobject.SubtypeTrustBank] = decimal.NewFromInt(5001)

	res, err := f.diag.TrustIntegrity(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "1.00", res.Variance.StringFixed(2))
	assert.NotEmpty(t, res.Detail)
}

func TestDiagnostics_TrustIntegrityWithinEpsilon(t *testing.T) {
	f := newDiagFixture()
	// Half a cent of drift stays under the one-cent tolerance.
	f.integrity.subtypeSums[valueobject.SubtypeTrustBank] = decimal.RequireFromString("5000.005")

	res, err := f.diag.TrustIntegrity(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestDiagnostics_TrialBalanceImbalance(t *testing.T) {
	f := newDiagFixture()
	f.balances.trialLines = append(f.balances.trialLines, model.TrialBalanceLine{Debit: decimal.RequireFromString("0.50")})

	res, err := f.diag.TrialBalance(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "0.50", res.Variance.StringFixed(2))
}

func TestDiagnostics_Orphans(t *testing.T) {
	f := newDiagFixture()
	f.integrity.orphanPostings = 2
	f.integrity.emptyEntries = 1

	res, err := f.diag.Orphans(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Detail, "2 orphan postings")
}

func TestDiagnostics_BalanceConsistency(t *testing.T) {
	f := newDiagFixture()
	accountID := uuid.New()
	f.journal.balances[accountID] = decimal.NewFromInt(100)

	res, err := f.diag.BalanceConsistency(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.True(t, res.Passed)

	// Materialized row diverges from the recomputed posting sum by $1.
	f.balances.overrides = map[uuid.UUID]decimal.Decimal{accountID: decimal.NewFromInt(101)}

	res, err = f.diag.BalanceConsistency(context.Background(), f.orgID)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "1.00", res.Variance.StringFixed(2))
}

func TestDiagnostics_GateBlocksOnFailure(t *testing.T) {
	f := newDiagFixture()

	_, err := f.diag.Gate(context.Background(), f.orgID)
	require.NoError(t, err)

	f.integrity.subtypeSums[valueobject.SubtypeTrustBank] = decimal.NewFromInt(5001)
	report, err := f.diag.Gate(context.Background(), f.orgID)
	assert.ErrorIs(t, err, model.ErrDiagnosticGateFailed)
	assert.False(t, report.Passed)
}
