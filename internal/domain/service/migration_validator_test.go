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
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

func newMigrationValidator(t *testing.T) (*service.MigrationValidator, uuid.UUID) {
	t.Helper()
	orgID := uuid.New()
	cash, err := model.NewAccount(orgID, valueobject.MustAccountCode("1000"), "Operating Cash", valueobject.AccountTypeAsset, "")
	require.NoError(t, err)
	income, err := model.NewAccount(orgID, valueobject.MustAccountCode("4000"), "Rental Income", valueobject.AccountTypeRevenue, "")
	require.NoError(t, err)
	return service.NewMigrationValidator(newMockAccounts(cash, income)), orgID
}

func balancedRow(id string, date time.Time, amount string) service.ImportRow {
	return service.ImportRow{
		ExternalID:  id,
		Date:        date,
		Description: "legacy txn " + id,
		Lines: []service.ImportLine{
			{AccountCode: "1000", Amount: decimal.RequireFromString(amount)},
			{AccountCode: "4000", Amount: decimal.RequireFromString(amount).Neg()},
		},
	}
}

func TestMigrationValidator_CleanBatch(t *testing.T) {
	v, orgID := newMigrationValidator(t)
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	report, err := v.Validate(context.Background(), orgID, []service.ImportRow{
		balancedRow("t-1", yesterday, "1500"),
		balancedRow("t-2", yesterday, "250.50"),
	})
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.Rows)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.NoError(t, report.Err())
}

func TestMigrationValidator_UnbalancedRow(t *testing.T) {
	v, orgID := newMigrationValidator(t)
	row := balancedRow("t-1", time.Now().UTC(), "100")
	row.Lines[1].Amount = decimal.RequireFromString("-99.99")

	report, err := v.Validate(context.Background(), orgID, []service.ImportRow{row})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, service.RuleAccountingEquation, report.Errors[0].Rule)
	assert.ErrorIs(t, report.Err(), model.ErrMigrationValidationFailed)
}

func TestMigrationValidator_UnknownAccount(t *testing.T) {
	v, orgID := newMigrationValidator(t)
	row := service.ImportRow{
		ExternalID: "t-1",
		Date:       time.Now().UTC(),
		Lines: []service.ImportLine{
			{AccountCode: "9999", Amount: decimal.NewFromInt(50)},
			{AccountCode: "4000", Amount: decimal.NewFromInt(-50)},
		},
	}

	report, err := v.Validate(context.Background(), orgID, []service.ImportRow{row})
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, service.RuleAccountExists, report.Errors[0].Rule)
}

func TestMigrationValidator_DateBounds(t *testing.T) {
	v, orgID := newMigrationValidator(t)
	now := time.Now().UTC()

	report, err := v.Validate(context.Background(), orgID, []service.ImportRow{
		balancedRow("future", now.AddDate(0, 0, 3), "10"),
		balancedRow("ancient", now.AddDate(-31, 0, 0), "10"),
		balancedRow("tomorrow", now.Add(12*time.Hour), "10"), // within tolerance
	})
	require.NoError(t, err)
	require.Len(t, report.Errors, 2)
	for _, issue := range report.Errors {
		assert.Equal(t, service.RuleDateValidity, issue.Rule)
	}
}

// Owner cash may only dip negative on loan-flagged lines.
func TestMigrationValidator_NegativeOwnerCash(t *testing.T) {
	v, orgID := newMigrationValidator(t)
	owner := uuid.New()
	now := time.Now().UTC()

	withdrawal := service.ImportRow{
		ExternalID:  "w-1",
		Date:        now,
		Description: "owner draw",
		Lines: []service.ImportLine{
			{AccountCode: "1000", Amount: decimal.NewFromInt(500), OwnerID: &owner},
			{AccountCode: "4000", Amount: decimal.NewFromInt(-500)},
		},
	}
	overdraw := service.ImportRow{
		ExternalID:  "w-2",
		Date:        now,
		Description: "owner overdraw",
		Lines: []service.ImportLine{
			{AccountCode: "1000", Amount: decimal.NewFromInt(-700), OwnerID: &owner},
			{AccountCode: "4000", Amount: decimal.NewFromInt(700)},
		},
	}

	report, err := v.Validate(context.Background(), orgID, []service.ImportRow{withdrawal, overdraw})
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, service.RuleNegativeCash, report.Errors[0].Rule)
	assert.Equal(t, "w-2", report.Errors[0].ExternalID)

	// The same overdraw marked as a loan passes.
	overdraw.Lines[0].IsLoan = true
	overdraw.Description = "owner loan"
	report, err = v.Validate(context.Background(), orgID, []service.ImportRow{withdrawal, overdraw})
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestMigrationValidator_DuplicateIsWarningOnly(t *testing.T) {
	v, orgID := newMigrationValidator(t)
	date := time.Now().UTC().AddDate(0, 0, -1)

	a := balancedRow("t-1", date, "300")
	b := balancedRow("t-2", date, "300")
	b.Description = a.Description // same date, total, and description

	report, err := v.Validate(context.Background(), orgID, []service.ImportRow{a, b})
	require.NoError(t, err)
	assert.True(t, report.Valid, "duplicates do not abort the import")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, service.RuleDuplicate, report.Warnings[0].Rule)
	assert.Equal(t, "t-2", report.Warnings[0].ExternalID)
}
