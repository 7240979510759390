package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

type depositFixture struct {
	orgID    uuid.UUID
	journal  *memJournal
	deposits *mockDeposits
	rules    *mockRules
	saga     *service.SecurityDepositSaga

	trust      model.Account
	liability  model.Account
	interest   model.Account
	deductions model.Account
	receivable model.Account
}

func newDepositFixture(t *testing.T) *depositFixture {
	t.Helper()
	orgID := uuid.New()

	trust, err := model.NewAccount(orgID, valueobject.MustAccountCode("1010"), "Trust Bank", valueobject.AccountTypeAsset, valueobject.SubtypeTrustBank)
	require.NoError(t, err)
	liability, err := model.NewAccount(orgID, valueobject.MustAccountCode("2200"), "Security Deposits Held", valueobject.AccountTypeLiability, valueobject.SubtypeSecurityDeposit)
	require.NoError(t, err)
	interest, err := model.NewAccount(orgID, valueobject.MustAccountCode("6100"), "Deposit Interest Expense", valueobject.AccountTypeExpense, "")
	require.NoError(t, err)
	deductions, err := model.NewAccount(orgID, valueobject.MustAccountCode("4100"), "Deduction Income", valueobject.AccountTypeRevenue, "")
	require.NoError(t, err)
	receivable, err := model.NewAccount(orgID, valueobject.MustAccountCode("1050"), "Tenant Receivable", valueobject.AccountTypeAsset, "")
	require.NoError(t, err)

	journal := newMemJournal()
	accounts := newMockAccounts(trust, liability, interest, deductions, receivable)
	ledger := service.NewLedgerService(
		journal, &mockBalances{journal: journal},
		service.NewPostingValidator(accounts),
		service.NewPeriodManager(&mockPeriods{}),
		discardLogger(),
	)

	rules := &mockRules{}
	rules.add("CA", model.RuleTypeSecurityDeposit, model.RuleKeyMaxMonthsRent, "2", ruleEpoch)
	rules.add("NC", model.RuleTypeSecurityDeposit, model.RuleKeyReturnDays, "30", ruleEpoch)
	rules.add("FL", model.RuleTypeSecurityDeposit, model.RuleKeySeparateAccount, "true", ruleEpoch)

	f := &depositFixture{
		orgID:      orgID,
		journal:    journal,
		deposits:   newMockDeposits(),
		rules:      rules,
		trust:      trust,
		liability:  liability,
		interest:   interest,
		deductions: deductions,
		receivable: receivable,
	}
	f.saga = service.NewSecurityDepositSaga(
		f.deposits, accounts, &mockCheckNumbers{}, ledger,
		service.NewComplianceService(rules),
		service.DepositAccounts{
			InterestExpenseCode: valueobject.MustAccountCode("6100"),
			DeductionIncomeCode: valueobject.MustAccountCode("4100"),
			ReceivableCode:      valueobject.MustAccountCode("1050"),
		},
		discardLogger(),
	)
	return f
}

func (f *depositFixture) newCollectSaga(t *testing.T, p service.CollectPayload) *model.Saga {
	t.Helper()
	payload, err := json.Marshal(p)
	require.NoError(t, err)
	s, err := model.NewSaga(f.orgID, service.SagaNameDepositCollect, service.StepValidateAmount, payload, "trace-dep", "leasing", 30*time.Minute)
	require.NoError(t, err)
	return s
}

func (f *depositFixture) newReturnSaga(t *testing.T, p service.ReturnPayload) *model.Saga {
	t.Helper()
	payload, err := json.Marshal(p)
	require.NoError(t, err)
	s, err := model.NewSaga(f.orgID, service.SagaNameDepositReturn, service.StepCalculateInterest, payload, "trace-ret", "leasing", 30*time.Minute)
	require.NoError(t, err)
	return s
}

func runSaga(t *testing.T, exec service.SagaExecutor, s *model.Saga) []events.DomainEvent {
	t.Helper()
	var emitted []events.DomainEvent
	for {
		out, err := exec.ExecuteStep(context.Background(), s)
		require.NoError(t, err, "step %s", s.CurrentStep)
		emitted = append(emitted, out.Events...)
		if out.Done {
			require.NoError(t, s.Complete(out.Result))
			return emitted
		}
		require.NoError(t, s.Advance(out.Next))
	}
}

func eventTypes(evts []events.DomainEvent) []string {
	var types []string
	for _, e := range evts {
		types = append(types, e.EventType())
	}
	return types
}

func TestDepositCollect_FullRun(t *testing.T) {
	f := newDepositFixture(t)
	depositID := uuid.New()
	s := f.newCollectSaga(t, service.CollectPayload{
		DepositID:   depositID,
		PropertyID:  uuid.New(),
		TenantID:    uuid.New(),
		Amount:      decimal.NewFromInt(2000),
		MonthlyRent: decimal.NewFromInt(1500),
		StateCode:   "CA",
	})

	emitted := runSaga(t, f.saga.CollectExecutor(), s)

	assert.Equal(t, model.SagaStatusCompleted, s.Status)

	deposit, err := f.deposits.FindByID(context.Background(), f.orgID, depositID)
	require.NoError(t, err)
	assert.Equal(t, model.DepositStatusHeld, deposit.Status)

	// Funds in trust, liability booked against them.
	assert.True(t, f.journal.balances[f.trust.ID()].Equal(decimal.NewFromInt(2000)))
	assert.True(t, f.journal.balances[f.liability.ID()].Equal(decimal.NewFromInt(-2000)))

	types := eventTypes(emitted)
	assert.Contains(t, types, "security_deposit.collected")
	assert.Contains(t, types, "notification.send")
	assert.NotContains(t, types, "sweep.security_deposit", "CA does not require a segregated account")
}

func TestDepositCollect_ExceedsStateCap(t *testing.T) {
	f := newDepositFixture(t)
	s := f.newCollectSaga(t, service.CollectPayload{
		DepositID:   uuid.New(),
		TenantID:    uuid.New(),
		Amount:      decimal.NewFromInt(3500),
		MonthlyRent: decimal.NewFromInt(1500),
		StateCode:   "CA", // cap is 2 months rent = $3,000
	})

	_, err := f.saga.CollectExecutor().ExecuteStep(context.Background(), s)
	assert.ErrorIs(t, err, model.ErrExceedsStateMax)
	assert.Empty(t, f.journal.entries)
}

func TestDepositCollect_SegregationSweep(t *testing.T) {
	f := newDepositFixture(t)
	s := f.newCollectSaga(t, service.CollectPayload{
		DepositID:   uuid.New(),
		PropertyID:  uuid.New(),
		TenantID:    uuid.New(),
		Amount:      decimal.NewFromInt(1000),
		MonthlyRent: decimal.NewFromInt(1000),
		StateCode:   "FL",
	})

	emitted := runSaga(t, f.saga.CollectExecutor(), s)
	assert.Contains(t, eventTypes(emitted), "sweep.security_deposit")
}

// Deposit $1,200 held since 2024-01-10 in a state with no interest mandate,
// returned after move-out with a $150 cleaning deduction.
func TestDepositReturn_FullRun(t *testing.T) {
	f := newDepositFixture(t)
	tenantID := uuid.New()
	deposit, err := model.NewSecurityDeposit(f.orgID, uuid.New(), tenantID,
		decimal.NewFromInt(1200), "NC", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, f.deposits.Save(context.Background(), deposit))

	s := f.newReturnSaga(t, service.ReturnPayload{
		DepositID:   deposit.ID,
		MoveOutDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Deductions: []model.DepositDeduction{
			{Category: "cleaning", Description: "move-out cleaning", Amount: decimal.NewFromInt(150)},
		},
	})

	emitted := runSaga(t, f.saga.ReturnExecutor(), s)
	assert.Equal(t, model.SagaStatusCompleted, s.Status)

	// Liability released, deduction recognized as income, refund out of trust.
	assert.True(t, f.journal.balances[f.liability.ID()].Equal(decimal.NewFromInt(1200)))
	assert.True(t, f.journal.balances[f.deductions.ID()].Equal(decimal.NewFromInt(-150)))
	assert.True(t, f.journal.balances[f.trust.ID()].Equal(decimal.NewFromInt(-1050)))
	assert.True(t, f.journal.balances[f.interest.ID()].IsZero(), "no interest mandate in NC")

	assert.Equal(t, model.DepositStatusReturned, deposit.Status)
	assert.True(t, deposit.ReturnedAmount.Equal(decimal.NewFromInt(1050)))
	require.NotNil(t, deposit.CheckNumber)

	var stmt service.ReturnStatement
	require.NoError(t, json.Unmarshal(s.Result, &stmt))
	assert.Equal(t, "1050.00", stmt.Refund)
	assert.Equal(t, "0.00", stmt.Interest)
	assert.Equal(t, time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC), stmt.ReturnDeadline)

	types := eventTypes(emitted)
	assert.Contains(t, types, "check.print.queue")
	assert.Contains(t, types, "security_deposit.returned")
	assert.Contains(t, types, "notification.send")
}

// Deductions beyond the deposit leave nothing to refund; the excess becomes
// a tenant receivable and no check is cut.
func TestDepositReturn_OverDeducted(t *testing.T) {
	f := newDepositFixture(t)
	deposit, err := model.NewSecurityDeposit(f.orgID, uuid.New(), uuid.New(),
		decimal.NewFromInt(1200), "NC", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, f.deposits.Save(context.Background(), deposit))

	s := f.newReturnSaga(t, service.ReturnPayload{
		DepositID:   deposit.ID,
		MoveOutDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Deductions: []model.DepositDeduction{
			{Category: "damage", Description: "carpet replacement", Amount: decimal.NewFromInt(1500)},
		},
	})

	emitted := runSaga(t, f.saga.ReturnExecutor(), s)

	assert.True(t, f.journal.balances[f.trust.ID()].IsZero(), "nothing leaves trust")
	assert.True(t, f.journal.balances[f.receivable.ID()].Equal(decimal.NewFromInt(300)))
	assert.True(t, deposit.ReturnedAmount.IsZero())
	assert.Nil(t, deposit.CheckNumber)
	assert.NotContains(t, eventTypes(emitted), "check.print.queue")
}

func TestDepositReturn_CompensationReversesEntry(t *testing.T) {
	f := newDepositFixture(t)
	deposit, err := model.NewSecurityDeposit(f.orgID, uuid.New(), uuid.New(),
		decimal.NewFromInt(1200), "NC", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, f.deposits.Save(context.Background(), deposit))

	exec := f.saga.ReturnExecutor()
	s := f.newReturnSaga(t, service.ReturnPayload{
		DepositID:   deposit.ID,
		MoveOutDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	})

	// Forward through CREATE_ENTRIES, then fail on the statement.
	for s.CurrentStep != service.StepGenerateStatement {
		out, err := exec.ExecuteStep(context.Background(), s)
		require.NoError(t, err)
		require.NoError(t, s.Advance(out.Next))
	}
	require.NoError(t, s.Fail(s.CurrentStep, assert.AnError))
	require.NoError(t, s.StartCompensation())

	for s.Status == model.SagaStatusCompensating {
		_, err := exec.CompensateStep(context.Background(), s, s.CurrentStep)
		require.NoError(t, err)
		require.NoError(t, s.AdvanceCompensation())
	}
	assert.Equal(t, model.SagaStatusCompensated, s.Status)

	assert.True(t, f.journal.balances[f.trust.ID()].IsZero())
	assert.True(t, f.journal.balances[f.liability.ID()].IsZero())
	assert.Equal(t, model.DepositStatusHeld, deposit.Status, "deposit stays held after unwind")
}
