package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// AccountBalance is the materialized current balance of one account:
// a monotone-consistent snapshot of the sum of its signed postings,
// maintained in the same transaction as posting inserts.
type AccountBalance struct {
	OrgID       uuid.UUID
	AccountID   uuid.UUID
	Balance     decimal.Decimal
	LastEntryID uuid.UUID
	UpdatedAt   time.Time
}

// DimensionalBalance is the materialized balance of one account sliced by a
// tag subset. Rows are sparse: only tag combinations that have been posted
// to exist.
type DimensionalBalance struct {
	OrgID      uuid.UUID
	AccountID  uuid.UUID
	Dimensions valueobject.Dimensions
	Balance    decimal.Decimal
	UpdatedAt  time.Time
}

// TrialBalanceLine is one account row of a trial balance report.
type TrialBalanceLine struct {
	AccountID   uuid.UUID
	AccountCode valueobject.AccountCode
	AccountName string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// AccountActivity is the composite read over one account and date range.
type AccountActivity struct {
	AccountID      uuid.UUID
	From           time.Time
	To             time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalDebits    decimal.Decimal
	TotalCredits   decimal.Decimal
	Entries        []JournalEntry
	TotalCount     int
}
