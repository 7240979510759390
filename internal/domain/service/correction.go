package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// CorrectionService implements the correction patterns. Every correction is
// a new balanced entry; nothing is ever edited in place.
type CorrectionService struct {
	ledger *LedgerService
}

func NewCorrectionService(ledger *LedgerService) *CorrectionService {
	return &CorrectionService{ledger: ledger}
}

// Void reverses an entry, dated per the period manager.
func (c *CorrectionService) Void(ctx context.Context, orgID, entryID uuid.UUID, reason, idempotencyKey, traceID, by string) (model.JournalEntry, error) {
	return c.ledger.ReverseEntry(ctx, orgID, entryID, reason, idempotencyKey, traceID, by)
}

// ReclassAccountInput moves an amount between two accounts: a two-legged
// transfer.
type ReclassAccountInput struct {
	OrgID          uuid.UUID
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Amount         decimal.Decimal
	Dimensions     valueobject.Dimensions
	Description    string
	IdempotencyKey string
	TraceID        string
	CreatedBy      string
}

// ReclassAccount posts Dr target, Cr source.
func (c *CorrectionService) ReclassAccount(ctx context.Context, in ReclassAccountInput) (model.JournalEntry, error) {
	if in.FromAccountID == in.ToAccountID {
		return model.JournalEntry{}, fmt.Errorf("%w: reclass between identical accounts", model.ErrInvalidAccount)
	}
	out, err := model.NewPosting(in.FromAccountID, in.Amount.Neg(), in.Dimensions, "reclass out")
	if err != nil {
		return model.JournalEntry{}, err
	}
	into, err := model.NewPosting(in.ToAccountID, in.Amount, in.Dimensions, "reclass in")
	if err != nil {
		return model.JournalEntry{}, err
	}
	return c.ledger.CreateEntry(ctx, model.EntryInput{
		OrgID:          in.OrgID,
		Description:    in.Description,
		SourceType:     model.SourceAdjustment,
		IdempotencyKey: in.IdempotencyKey,
		TraceID:        in.TraceID,
		CreatedBy:      in.CreatedBy,
		Postings:       []model.Posting{out, into},
	})
}

// ReclassPropertyInput moves an expense between properties: a four-legged
// transfer that keeps per-property trust integrity intact.
type ReclassPropertyInput struct {
	OrgID            uuid.UUID
	ExpenseAccountID uuid.UUID
	TrustAccountID   uuid.UUID
	SourceProperty   uuid.UUID
	TargetProperty   uuid.UUID
	Amount           decimal.Decimal
	Description      string
	IdempotencyKey   string
	TraceID          string
	CreatedBy        string
}

// ReclassProperty credits the expense and debits trust cash on the source
// property, then mirrors both on the target.
func (c *CorrectionService) ReclassProperty(ctx context.Context, in ReclassPropertyInput) (model.JournalEntry, error) {
	if in.SourceProperty == in.TargetProperty {
		return model.JournalEntry{}, fmt.Errorf("reclass between identical properties")
	}
	srcDims := valueobject.WithProperty(in.SourceProperty)
	dstDims := valueobject.WithProperty(in.TargetProperty)

	legs := make([]model.Posting, 0, 4)
	for _, leg := range []struct {
		account uuid.UUID
		amount  decimal.Decimal
		dims    valueobject.Dimensions
		line    string
	}{
		{in.ExpenseAccountID, in.Amount.Neg(), srcDims, "expense moved off source property"},
		{in.TrustAccountID, in.Amount, srcDims, "trust cash restored to source property"},
		{in.ExpenseAccountID, in.Amount, dstDims, "expense moved onto target property"},
		{in.TrustAccountID, in.Amount.Neg(), dstDims, "trust cash charged to target property"},
	} {
		p, err := model.NewPosting(leg.account, leg.amount, leg.dims, leg.line)
		if err != nil {
			return model.JournalEntry{}, err
		}
		legs = append(legs, p)
	}

	return c.ledger.CreateEntry(ctx, model.EntryInput{
		OrgID:          in.OrgID,
		Description:    in.Description,
		SourceType:     model.SourceAdjustment,
		IdempotencyKey: in.IdempotencyKey,
		TraceID:        in.TraceID,
		CreatedBy:      in.CreatedBy,
		Postings:       legs,
	})
}

// WriteOffInput moves an uncollectible receivable to bad debt.
type WriteOffInput struct {
	OrgID            uuid.UUID
	BadDebtAccountID uuid.UUID
	ReceivableID     uuid.UUID
	Amount           decimal.Decimal
	Dimensions       valueobject.Dimensions
	Description      string
	IdempotencyKey   string
	TraceID          string
	CreatedBy        string
}

// WriteOff posts Dr bad debt expense, Cr accounts receivable.
func (c *CorrectionService) WriteOff(ctx context.Context, in WriteOffInput) (model.JournalEntry, error) {
	expense, err := model.NewPosting(in.BadDebtAccountID, in.Amount, in.Dimensions, "bad debt write-off")
	if err != nil {
		return model.JournalEntry{}, err
	}
	receivable, err := model.NewPosting(in.ReceivableID, in.Amount.Neg(), in.Dimensions, "receivable written off")
	if err != nil {
		return model.JournalEntry{}, err
	}
	return c.ledger.CreateEntry(ctx, model.EntryInput{
		OrgID:          in.OrgID,
		Description:    in.Description,
		SourceType:     model.SourceAdjustment,
		IdempotencyKey: in.IdempotencyKey,
		TraceID:        in.TraceID,
		CreatedBy:      in.CreatedBy,
		Postings:       []model.Posting{expense, receivable},
	})
}

// VoidAndReplace bundles a void and its corrected replacement under twin
// idempotency keys derived from the caller's base key, so a retry replays
// both halves consistently.
func (c *CorrectionService) VoidAndReplace(ctx context.Context, orgID, entryID uuid.UUID, replacement model.EntryInput, reason, baseKey, traceID, by string) (voided, replaced model.JournalEntry, err error) {
	voided, err = c.ledger.ReverseEntry(ctx, orgID, entryID, reason, baseKey+":void", traceID, by)
	if err != nil {
		return model.JournalEntry{}, model.JournalEntry{}, err
	}
	replacement.OrgID = orgID
	replacement.IdempotencyKey = baseKey + ":replace"
	replacement.TraceID = traceID
	replacement.CreatedBy = by
	if replacement.SourceType == "" {
		replacement.SourceType = model.SourceAdjustment
	}
	replaced, err = c.ledger.CreateEntry(ctx, replacement)
	if err != nil {
		return model.JournalEntry{}, model.JournalEntry{}, err
	}
	return voided, replaced, nil
}
