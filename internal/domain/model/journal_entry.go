package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

// SourceType records what produced a journal entry.
type SourceType string

const (
	SourcePayment      SourceType = "payment"
	SourceInvoice      SourceType = "invoice"
	SourceAdjustment   SourceType = "adjustment"
	SourceClosing      SourceType = "closing"
	SourceReversal     SourceType = "reversal"
	SourceDistribution SourceType = "distribution"
	SourceCharge       SourceType = "charge"
	SourceRefund       SourceType = "refund"
)

// Posting is one signed line of a journal entry: positive amounts are
// debits, negative amounts are credits. Amounts carry at most four decimal
// places and belong to exactly one entry.
type Posting struct {
	accountID       uuid.UUID
	amount          decimal.Decimal
	dimensions      valueobject.Dimensions
	lineDescription string
}

// NewPosting creates a signed posting line.
func NewPosting(accountID uuid.UUID, amount decimal.Decimal, dims valueobject.Dimensions, lineDescription string) (Posting, error) {
	if accountID == uuid.Nil {
		return Posting{}, fmt.Errorf("%w: posting requires an account id", ErrInvalidAccount)
	}
	if amount.IsZero() {
		return Posting{}, fmt.Errorf("posting amount must be non-zero")
	}
	if amount.Exponent() < -money.PostingScale {
		return Posting{}, fmt.Errorf("posting amount %s exceeds %d decimal places", amount, money.PostingScale)
	}
	return Posting{accountID: accountID, amount: amount, dimensions: dims, lineDescription: lineDescription}, nil
}

// ReconstructPosting recreates a posting from persistence.
func ReconstructPosting(accountID uuid.UUID, amount decimal.Decimal, dims valueobject.Dimensions, lineDescription string) Posting {
	return Posting{accountID: accountID, amount: amount, dimensions: dims, lineDescription: lineDescription}
}

func (p Posting) AccountID() uuid.UUID                 { return p.accountID }
func (p Posting) Amount() decimal.Decimal              { return p.amount }
func (p Posting) Dimensions() valueobject.Dimensions   { return p.dimensions }
func (p Posting) LineDescription() string              { return p.lineDescription }
func (p Posting) IsDebit() bool                        { return p.amount.IsPositive() }

// Negate returns the mirror posting used by reversals.
func (p Posting) Negate() Posting {
	n := p
	n.amount = p.amount.Neg()
	return n
}

// JournalEntry is the root aggregate of the ledger. Entries are immutable:
// they are never updated or deleted, and only a reversal entry may
// semantically undo one.
type JournalEntry struct {
	id                uuid.UUID
	orgID             uuid.UUID
	entryDate         time.Time
	effectiveDate     time.Time
	description       string
	memo              string
	sourceType        SourceType
	sourceID          string
	isReversal        bool
	reversesEntryID   *uuid.UUID
	reversedByEntryID *uuid.UUID
	idempotencyKey    string
	traceID           string
	postings          []Posting
	createdAt         time.Time
	createdBy         string
}

// EntryInput carries the caller-supplied fields of a new journal entry.
type EntryInput struct {
	OrgID          uuid.UUID
	EntryDate      time.Time
	EffectiveDate  time.Time
	Description    string
	Memo           string
	SourceType     SourceType
	SourceID       string
	IdempotencyKey string
	TraceID        string
	CreatedBy      string
	Postings       []Posting
}

// NewJournalEntry creates a balanced journal entry. The effective date is
// expected to have been resolved through the period manager already.
func NewJournalEntry(in EntryInput) (JournalEntry, error) {
	if in.OrgID == uuid.Nil {
		return JournalEntry{}, fmt.Errorf("organization id is required")
	}
	if in.IdempotencyKey == "" {
		return JournalEntry{}, fmt.Errorf("idempotency key is required")
	}
	if len(in.Postings) == 0 {
		return JournalEntry{}, fmt.Errorf("%w: entry has no postings", ErrUnbalanced)
	}
	if err := ValidateDoubleEntry(in.Postings); err != nil {
		return JournalEntry{}, err
	}

	now := time.Now().UTC()
	entryDate := in.EntryDate
	if entryDate.IsZero() {
		entryDate = now
	}
	effective := in.EffectiveDate
	if effective.IsZero() {
		effective = valueobject.DateOf(entryDate)
	}
	traceID := in.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	return JournalEntry{
		id:             uuid.New(),
		orgID:          in.OrgID,
		entryDate:      entryDate,
		effectiveDate:  valueobject.DateOf(effective),
		description:    in.Description,
		memo:           in.Memo,
		sourceType:     in.SourceType,
		sourceID:       in.SourceID,
		idempotencyKey: in.IdempotencyKey,
		traceID:        traceID,
		postings:       in.Postings,
		createdAt:      now,
		createdBy:      in.CreatedBy,
	}, nil
}

// ValidateDoubleEntry is the pure balanced-entry check: signed postings must
// sum to zero within the balance epsilon.
func ValidateDoubleEntry(postings []Posting) error {
	if len(postings) == 0 {
		return fmt.Errorf("%w: entry has no postings", ErrUnbalanced)
	}
	total := decimal.Zero
	for _, p := range postings {
		total = total.Add(p.amount)
	}
	if !money.WithinEpsilon(total, money.BalanceEpsilon) {
		return fmt.Errorf("%w: postings sum to %s", ErrUnbalanced, total.StringFixed(money.PostingScale))
	}
	return nil
}

// BuildReversal creates the mirror entry that undoes this one. The reversal
// carries negated postings and cross-links to the original; the effective
// date comes from the period manager (today when the original period has
// closed). Reversing an entry twice, or reversing a reversal, is refused.
func (je JournalEntry) BuildReversal(effectiveDate time.Time, reason, idempotencyKey, traceID, createdBy string) (JournalEntry, error) {
	if idempotencyKey == "" {
		return JournalEntry{}, fmt.Errorf("idempotency key is required")
	}
	if je.reversedByEntryID != nil {
		return JournalEntry{}, fmt.Errorf("%w: entry %s", ErrAlreadyReversed, je.id)
	}
	if je.isReversal {
		return JournalEntry{}, fmt.Errorf("%w: entry %s is itself a reversal", ErrAlreadyReversed, je.id)
	}

	now := time.Now().UTC()
	mirrored := make([]Posting, len(je.postings))
	for i, p := range je.postings {
		mirrored[i] = p.Negate()
	}
	originalID := je.id
	if traceID == "" {
		traceID = je.traceID
	}

	return JournalEntry{
		id:              uuid.New(),
		orgID:           je.orgID,
		entryDate:       now,
		effectiveDate:   valueobject.DateOf(effectiveDate),
		description:     fmt.Sprintf("Reversal of %s: %s", je.id, reason),
		sourceType:      SourceReversal,
		sourceID:        je.id.String(),
		isReversal:      true,
		reversesEntryID: &originalID,
		idempotencyKey:  idempotencyKey,
		traceID:         traceID,
		postings:        mirrored,
		createdAt:       now,
		createdBy:       createdBy,
	}, nil
}

// ReconstructJournalEntry recreates an entry from persistence (no
// validation, no events).
func ReconstructJournalEntry(
	id, orgID uuid.UUID,
	entryDate, effectiveDate time.Time,
	description, memo string,
	sourceType SourceType, sourceID string,
	isReversal bool,
	reversesEntryID, reversedByEntryID *uuid.UUID,
	idempotencyKey, traceID string,
	postings []Posting,
	createdAt time.Time, createdBy string,
) JournalEntry {
	return JournalEntry{
		id:                id,
		orgID:             orgID,
		entryDate:         entryDate,
		effectiveDate:     effectiveDate,
		description:       description,
		memo:              memo,
		sourceType:        sourceType,
		sourceID:          sourceID,
		isReversal:        isReversal,
		reversesEntryID:   reversesEntryID,
		reversedByEntryID: reversedByEntryID,
		idempotencyKey:    idempotencyKey,
		traceID:           traceID,
		postings:          postings,
		createdAt:         createdAt,
		createdBy:         createdBy,
	}
}

func (je JournalEntry) ID() uuid.UUID                 { return je.id }
func (je JournalEntry) OrgID() uuid.UUID              { return je.orgID }
func (je JournalEntry) EntryDate() time.Time          { return je.entryDate }
func (je JournalEntry) EffectiveDate() time.Time      { return je.effectiveDate }
func (je JournalEntry) Description() string           { return je.description }
func (je JournalEntry) Memo() string                  { return je.memo }
func (je JournalEntry) SourceType() SourceType        { return je.sourceType }
func (je JournalEntry) SourceID() string              { return je.sourceID }
func (je JournalEntry) IsReversal() bool              { return je.isReversal }
func (je JournalEntry) ReversesEntryID() *uuid.UUID   { return je.reversesEntryID }
func (je JournalEntry) ReversedByEntryID() *uuid.UUID { return je.reversedByEntryID }
func (je JournalEntry) IdempotencyKey() string        { return je.idempotencyKey }
func (je JournalEntry) TraceID() string               { return je.traceID }
func (je JournalEntry) Postings() []Posting           { return je.postings }
func (je JournalEntry) CreatedAt() time.Time          { return je.createdAt }
func (je JournalEntry) CreatedBy() string             { return je.createdBy }

// TotalDebits sums the positive postings.
func (je JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, p := range je.postings {
		if p.IsDebit() {
			total = total.Add(p.amount)
		}
	}
	return total
}

// TotalCredits sums the negative postings as a positive magnitude.
func (je JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, p := range je.postings {
		if !p.IsDebit() {
			total = total.Add(p.amount.Neg())
		}
	}
	return total
}
