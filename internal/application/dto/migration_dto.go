package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportLineRequest is one posting line of a migrated transaction.
type ImportLineRequest struct {
	AccountCode string          `json:"account_code"`
	Amount      decimal.Decimal `json:"amount"`
	OwnerID     *uuid.UUID      `json:"owner_id,omitempty"`
	IsLoan      bool            `json:"is_loan,omitempty"`
}

// ImportRowRequest is one legacy transaction awaiting import.
type ImportRowRequest struct {
	ExternalID  string              `json:"external_id"`
	Date        time.Time           `json:"date"`
	Description string              `json:"description"`
	Lines       []ImportLineRequest `json:"lines"`
}

// ValidateMigrationRequest is a batch to pre-check before import.
type ValidateMigrationRequest struct {
	OrgID uuid.UUID          `json:"org_id"`
	Rows  []ImportRowRequest `json:"rows"`
}

// MigrationIssueResponse is one finding against one row.
type MigrationIssueResponse struct {
	ExternalID string `json:"external_id"`
	Rule       string `json:"rule"`
	Detail     string `json:"detail"`
}

// MigrationReportResponse is the validation result. Errors abort the
// import; warnings do not.
type MigrationReportResponse struct {
	Rows     int                      `json:"rows"`
	Valid    bool                     `json:"valid"`
	Errors   []MigrationIssueResponse `json:"errors,omitempty"`
	Warnings []MigrationIssueResponse `json:"warnings,omitempty"`
}
