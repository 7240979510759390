package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingRequest is one signed line of an entry request. Positive amounts
// are debits.
type PostingRequest struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	LineMemo   string          `json:"line_memo,omitempty"`
	OwnerID    *uuid.UUID      `json:"owner_id,omitempty"`
	PropertyID *uuid.UUID      `json:"property_id,omitempty"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	VendorID   *uuid.UUID      `json:"vendor_id,omitempty"`
}

// CreateEntryRequest is the DTO for posting a journal entry.
type CreateEntryRequest struct {
	OrgID          uuid.UUID        `json:"org_id"`
	EntryDate      time.Time        `json:"entry_date,omitempty"`
	EffectiveDate  time.Time        `json:"effective_date,omitempty"`
	Description    string           `json:"description"`
	Memo           string           `json:"memo,omitempty"`
	SourceType     string           `json:"source_type"`
	SourceID       string           `json:"source_id,omitempty"`
	IdempotencyKey string           `json:"idempotency_key"`
	CreatedBy      string           `json:"created_by,omitempty"`
	Postings       []PostingRequest `json:"postings"`
}

// ReverseEntryRequest is the DTO for reversing an entry.
type ReverseEntryRequest struct {
	OrgID          uuid.UUID `json:"org_id"`
	EntryID        uuid.UUID `json:"entry_id"`
	Reason         string    `json:"reason"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedBy      string    `json:"created_by,omitempty"`
}

// PostingResponse is one posting line in responses.
type PostingResponse struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	LineMemo   string          `json:"line_memo,omitempty"`
	OwnerID    *uuid.UUID      `json:"owner_id,omitempty"`
	PropertyID *uuid.UUID      `json:"property_id,omitempty"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	VendorID   *uuid.UUID      `json:"vendor_id,omitempty"`
}

// EntryResponse is the DTO representing a journal entry.
type EntryResponse struct {
	EntryID         uuid.UUID         `json:"entry_id"`
	OrgID           uuid.UUID         `json:"org_id"`
	EntryDate       time.Time         `json:"entry_date"`
	EffectiveDate   time.Time         `json:"effective_date"`
	Description     string            `json:"description"`
	Memo            string            `json:"memo,omitempty"`
	SourceType      string            `json:"source_type"`
	SourceID        string            `json:"source_id,omitempty"`
	IsReversal      bool              `json:"is_reversal"`
	ReversesEntryID *uuid.UUID        `json:"reverses_entry_id,omitempty"`
	ReversedByID    *uuid.UUID        `json:"reversed_by_id,omitempty"`
	Postings        []PostingResponse `json:"postings"`
	CreatedAt       time.Time         `json:"created_at"`
	CreatedBy       string            `json:"created_by,omitempty"`
}

// BalanceRequest is the DTO for a balance read; a zero AsOf means current.
type BalanceRequest struct {
	OrgID     uuid.UUID `json:"org_id"`
	AccountID uuid.UUID `json:"account_id"`
	AsOf      time.Time `json:"as_of,omitempty"`
}

// BalanceResponse is the DTO for a balance read. The presented balance is
// rounded to cents; the raw balance keeps accumulation precision.
type BalanceResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Raw       decimal.Decimal `json:"raw_balance"`
	AsOf      *time.Time      `json:"as_of,omitempty"`
}

// DimensionalBalanceResponse is one tagged balance slice.
type DimensionalBalanceResponse struct {
	AccountID  uuid.UUID       `json:"account_id"`
	OwnerID    *uuid.UUID      `json:"owner_id,omitempty"`
	PropertyID *uuid.UUID      `json:"property_id,omitempty"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	VendorID   *uuid.UUID      `json:"vendor_id,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
}

// ActivityRequest is the DTO for the account activity read.
type ActivityRequest struct {
	OrgID     uuid.UUID `json:"org_id"`
	AccountID uuid.UUID `json:"account_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}

// ActivityResponse brackets a paginated entry listing with balances.
type ActivityResponse struct {
	AccountID      uuid.UUID       `json:"account_id"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalDebits    decimal.Decimal `json:"total_debits"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
	Entries        []EntryResponse `json:"entries"`
	TotalCount     int             `json:"total_count"`
}
