package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

var ruleEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestComplianceService_CalculateLateFee_Capped(t *testing.T) {
	rules := &mockRules{}
	rules.add("CA", model.RuleTypeLateFee, model.RuleKeyMaxPercent, "0.05", ruleEpoch)
	rules.add("CA", model.RuleTypeLateFee, model.RuleKeyMaxAmount, "50", ruleEpoch)
	svc := service.NewComplianceService(rules)

	// 5% of $1,200 is $60, capped at $50.
	fee, err := svc.CalculateLateFee(context.Background(), uuid.New(), "CA", decimal.NewFromInt(1200), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "50.00", fee.StringFixed(2))

	// 5% of $800 is $40, under the cap.
	fee, err = svc.CalculateLateFee(context.Background(), uuid.New(), "CA", decimal.NewFromInt(800), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "40.00", fee.StringFixed(2))
}

func TestComplianceService_CalculateLateFee_MissingRule(t *testing.T) {
	svc := service.NewComplianceService(&mockRules{})
	_, err := svc.CalculateLateFee(context.Background(), uuid.New(), "WY", decimal.NewFromInt(1000), time.Now())
	assert.ErrorIs(t, err, model.ErrComplianceRuleNotFound)
}

func TestComplianceService_TemporalLookup(t *testing.T) {
	rules := &mockRules{}
	old := model.ComplianceRule{
		ID: uuid.New(), StateCode: "TX",
		RuleType: model.RuleTypeLateFee, RuleKey: model.RuleKeyMaxAmount,
		RuleValue:     "25",
		EffectiveDate: ruleEpoch,
	}
	cutover := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	old.EndDate = &cutover
	rules.rules = append(rules.rules, old)
	rules.add("TX", model.RuleTypeLateFee, model.RuleKeyMaxAmount, "40", cutover)

	svc := service.NewComplianceService(rules)

	before, err := svc.Lookup(context.Background(), uuid.New(), "TX", model.RuleTypeLateFee, model.RuleKeyMaxAmount, cutover.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, "25", before)

	after, err := svc.Lookup(context.Background(), uuid.New(), "TX", model.RuleTypeLateFee, model.RuleKeyMaxAmount, cutover)
	require.NoError(t, err)
	assert.Equal(t, "40", after)
}

func TestComplianceService_MaxSecurityDeposit(t *testing.T) {
	rules := &mockRules{}
	rules.add("CA", model.RuleTypeSecurityDeposit, model.RuleKeyMaxMonthsRent, "2", ruleEpoch)
	svc := service.NewComplianceService(rules)

	max, capped, err := svc.MaxSecurityDeposit(context.Background(), uuid.New(), "CA", decimal.NewFromInt(1500), time.Now())
	require.NoError(t, err)
	assert.True(t, capped)
	assert.Equal(t, "3000.00", max.StringFixed(2))

	// A state with no cap rule does not cap.
	_, capped, err = svc.MaxSecurityDeposit(context.Background(), uuid.New(), "WY", decimal.NewFromInt(1500), time.Now())
	require.NoError(t, err)
	assert.False(t, capped)
}

func TestComplianceService_DepositInterest_AbsentRuleMeansZero(t *testing.T) {
	svc := service.NewComplianceService(&mockRules{})

	interest, err := svc.DepositInterest(context.Background(), uuid.New(), "NC",
		decimal.NewFromInt(1200),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, interest.IsZero())
}

func TestComplianceService_DepositInterest_SimpleDailyAccrual(t *testing.T) {
	rules := &mockRules{}
	rules.add("IL", model.RuleTypeSecurityDeposit, model.RuleKeyInterestRate, "0.01", ruleEpoch)
	svc := service.NewComplianceService(rules)

	// $1,000 at 1% simple for a 365-day year.
	interest, err := svc.DepositInterest(context.Background(), uuid.New(), "IL",
		decimal.NewFromInt(1000),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "10.03", interest.StringFixed(2)) // 366 days across the leap year
}

func TestComplianceService_ReturnDeadline(t *testing.T) {
	rules := &mockRules{}
	rules.add("NC", model.RuleTypeSecurityDeposit, model.RuleKeyReturnDays, "30", ruleEpoch)
	svc := service.NewComplianceService(rules)

	deadline, err := svc.ReturnDeadline(context.Background(), uuid.New(), "NC", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC), deadline)
}

func TestComplianceService_RequiresSegregatedAccount(t *testing.T) {
	rules := &mockRules{}
	rules.add("FL", model.RuleTypeSecurityDeposit, model.RuleKeySeparateAccount, "true", ruleEpoch)
	svc := service.NewComplianceService(rules)

	required, err := svc.RequiresSegregatedAccount(context.Background(), uuid.New(), "FL", time.Now())
	require.NoError(t, err)
	assert.True(t, required)

	// Absence reads as not required.
	required, err = svc.RequiresSegregatedAccount(context.Background(), uuid.New(), "NC", time.Now())
	require.NoError(t, err)
	assert.False(t, required)
}
