package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckResponse is the outcome of one integrity check.
type CheckResponse struct {
	Name     string          `json:"name"`
	Passed   bool            `json:"passed"`
	Variance decimal.Decimal `json:"variance"`
	Detail   string          `json:"detail,omitempty"`
}

// DiagnosticsResponse is the full canary report.
type DiagnosticsResponse struct {
	OrgID  uuid.UUID       `json:"org_id"`
	Passed bool            `json:"passed"`
	Checks []CheckResponse `json:"checks"`
	RanAt  time.Time       `json:"ran_at"`
}

// TrialBalanceLineResponse is one account line on the trial balance.
type TrialBalanceLineResponse struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceResponse is the gated trial balance report.
type TrialBalanceResponse struct {
	OrgID        uuid.UUID                  `json:"org_id"`
	Lines        []TrialBalanceLineResponse `json:"lines"`
	TotalDebits  decimal.Decimal            `json:"total_debits"`
	TotalCredits decimal.Decimal            `json:"total_credits"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}
