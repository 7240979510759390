package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

// ImportLine is one posting line of a migrated transaction.
type ImportLine struct {
	AccountCode string          `json:"account_code"`
	Amount      decimal.Decimal `json:"amount"`
	OwnerID     *uuid.UUID      `json:"owner_id,omitempty"`
	IsLoan      bool            `json:"is_loan,omitempty"`
}

// ImportRow is one transaction from a legacy system awaiting import.
type ImportRow struct {
	ExternalID  string       `json:"external_id"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
	Lines       []ImportLine `json:"lines"`
}

// MigrationIssue is one finding against one row.
type MigrationIssue struct {
	ExternalID string `json:"external_id"`
	Rule       string `json:"rule"`
	Detail     string `json:"detail"`
}

// MigrationReport is the validation result document. Errors abort the
// import; warnings do not.
type MigrationReport struct {
	Rows     int              `json:"rows"`
	Valid    bool             `json:"valid"`
	Errors   []MigrationIssue `json:"errors,omitempty"`
	Warnings []MigrationIssue `json:"warnings,omitempty"`
}

// Validation rule names.
const (
	RuleAccountingEquation = "accounting_equation"
	RuleNegativeCash       = "no_negative_cash"
	RuleAccountExists      = "account_exists"
	RuleDateValidity       = "date_validity"
	RuleDuplicate          = "duplicate_fingerprint"
)

// Date tolerance for imports: nothing beyond tomorrow, nothing older than
// thirty years.
const (
	importFutureTolerance = 24 * time.Hour
	importMaxAge          = 30 * 365 * 24 * time.Hour
)

// MigrationValidator is the offline pre-check for bulk imports. It never
// writes; it only reports.
type MigrationValidator struct {
	accounts port.AccountRepository
	now      func() time.Time
}

func NewMigrationValidator(accounts port.AccountRepository) *MigrationValidator {
	return &MigrationValidator{accounts: accounts, now: time.Now}
}

// Validate runs every check over the batch. The report is complete even
// when the batch fails: importers fix everything in one pass.
func (v *MigrationValidator) Validate(ctx context.Context, orgID uuid.UUID, rows []ImportRow) (MigrationReport, error) {
	report := MigrationReport{Rows: len(rows), Valid: true}
	now := v.now().UTC()

	knownAccounts := map[string]bool{}
	ownerCash := map[uuid.UUID]decimal.Decimal{}
	fingerprints := map[string]string{}

	for _, row := range rows {
		// Per-transaction accounting equation.
		total := decimal.Zero
		for _, line := range row.Lines {
			total = total.Add(line.Amount)
		}
		if !money.WithinEpsilon(total, money.BalanceEpsilon) {
			report.fail(row.ExternalID, RuleAccountingEquation,
				fmt.Sprintf("lines sum to %s", total.StringFixed(4)))
		}

		// Account references.
		for _, line := range row.Lines {
			exists, ok := knownAccounts[line.AccountCode]
			if !ok {
				exists = v.accountExists(ctx, orgID, line.AccountCode)
				knownAccounts[line.AccountCode] = exists
			}
			if !exists {
				report.fail(row.ExternalID, RuleAccountExists,
					fmt.Sprintf("account %q does not exist", line.AccountCode))
			}
		}

		// Date validity.
		if row.Date.After(now.Add(importFutureTolerance)) {
			report.fail(row.ExternalID, RuleDateValidity,
				fmt.Sprintf("date %s is in the future", row.Date.Format(time.DateOnly)))
		} else if row.Date.Before(now.Add(-importMaxAge)) {
			report.fail(row.ExternalID, RuleDateValidity,
				fmt.Sprintf("date %s is implausibly old", row.Date.Format(time.DateOnly)))
		}

		// Running per-owner cash, loans exempted.
		for _, line := range row.Lines {
			if line.OwnerID == nil {
				continue
			}
			balance := ownerCash[*line.OwnerID].Add(line.Amount)
			ownerCash[*line.OwnerID] = balance
			if balance.IsNegative() && !line.IsLoan {
				report.fail(row.ExternalID, RuleNegativeCash,
					fmt.Sprintf("owner %s cash goes negative (%s)", line.OwnerID, balance.StringFixed(2)))
			}
		}

		// Duplicate detection is advisory only.
		fp := fmt.Sprintf("%s|%s|%s", row.Date.Format(time.DateOnly), sumAbs(row.Lines).StringFixed(4), row.Description)
		if prior, dup := fingerprints[fp]; dup {
			report.warn(row.ExternalID, RuleDuplicate,
				fmt.Sprintf("same date, total, and description as row %q", prior))
		} else {
			fingerprints[fp] = row.ExternalID
		}
	}

	return report, nil
}

// Err converts a failed report into the abort error importers check for.
func (r MigrationReport) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %d errors across %d rows", model.ErrMigrationValidationFailed, len(r.Errors), r.Rows)
}

func (r *MigrationReport) fail(externalID, rule, detail string) {
	r.Valid = false
	r.Errors = append(r.Errors, MigrationIssue{ExternalID: externalID, Rule: rule, Detail: detail})
}

func (r *MigrationReport) warn(externalID, rule, detail string) {
	r.Warnings = append(r.Warnings, MigrationIssue{ExternalID: externalID, Rule: rule, Detail: detail})
}

func (v *MigrationValidator) accountExists(ctx context.Context, orgID uuid.UUID, code string) bool {
	ac, err := valueobject.NewAccountCode(code)
	if err != nil {
		return false
	}
	_, err = v.accounts.FindByCode(ctx, orgID, ac)
	return !errors.Is(err, model.ErrAccountNotFound) && err == nil
}

// sumAbs totals line magnitudes: the debit-side total of a balanced row.
func sumAbs(lines []ImportLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Amount.IsPositive() {
			total = total.Add(l.Amount)
		}
	}
	return total
}
