package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// LedgerService is the single write path into the journal. Every entry goes
// through CreateEntry: idempotency check, period resolution, account
// validation, then the co-transactional insert of entry, postings, balance
// upserts, and outbox events.
type LedgerService struct {
	journal   port.JournalRepository
	balances  port.BalanceRepository
	validator *PostingValidator
	periods   *PeriodManager
	logger    *slog.Logger
}

func NewLedgerService(journal port.JournalRepository, balances port.BalanceRepository, validator *PostingValidator, periods *PeriodManager, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		journal:   journal,
		balances:  balances,
		validator: validator,
		periods:   periods,
		logger:    logger,
	}
}

// CreateEntry posts a balanced journal entry. A replayed idempotency key
// returns the original entry with no new write. Extra events ride the same
// transaction as the entry.
func (s *LedgerService) CreateEntry(ctx context.Context, in model.EntryInput, extra ...events.DomainEvent) (model.JournalEntry, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.journal.FindByIdempotencyKey(ctx, in.OrgID, in.IdempotencyKey)
		if err == nil {
			s.logger.InfoContext(ctx, "idempotent replay, returning existing entry",
				slog.String("idempotency_key", in.IdempotencyKey),
				slog.String("entry_id", existing.ID().String()))
			return existing, nil
		}
		if !errors.Is(err, model.ErrEntryNotFound) {
			return model.JournalEntry{}, err
		}
	}

	if err := s.validator.ValidatePostings(ctx, in.OrgID, in.Postings); err != nil {
		return model.JournalEntry{}, err
	}

	requested := in.EffectiveDate
	if requested.IsZero() {
		requested = in.EntryDate
	}
	if requested.IsZero() {
		requested = time.Now().UTC()
	}
	effective, err := s.periods.ResolveEffectiveDate(ctx, in.OrgID, requested)
	if err != nil {
		return model.JournalEntry{}, err
	}
	in.EffectiveDate = effective

	entry, err := model.NewJournalEntry(in)
	if err != nil {
		return model.JournalEntry{}, err
	}

	evts := append([]events.DomainEvent{
		event.NewEntryPosted(entry.ID(), entry.OrgID(), entry.EffectiveDate(), string(entry.SourceType()), entry.TotalDebits(), entry.TraceID()),
	}, extra...)

	if err := s.journal.CreateEntry(ctx, entry, evts...); err != nil {
		// Lost race on the idempotency key: another writer committed first.
		if errors.Is(err, model.ErrDuplicateIdempotencyKey) {
			return s.journal.FindByIdempotencyKey(ctx, in.OrgID, in.IdempotencyKey)
		}
		return model.JournalEntry{}, err
	}

	s.logger.InfoContext(ctx, "journal entry posted",
		slog.String("entry_id", entry.ID().String()),
		slog.String("org_id", entry.OrgID().String()),
		slog.String("source_type", string(entry.SourceType())),
		slog.Int("postings", len(entry.Postings())))
	return entry, nil
}

// ReverseEntry posts the mirror of an existing entry and cross-links the
// pair. The reversal's effective date goes through the period manager, so
// reversing into a closed period lands today.
func (s *LedgerService) ReverseEntry(ctx context.Context, orgID, entryID uuid.UUID, reason, idempotencyKey, traceID, createdBy string) (model.JournalEntry, error) {
	if idempotencyKey != "" {
		existing, err := s.journal.FindByIdempotencyKey(ctx, orgID, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, model.ErrEntryNotFound) {
			return model.JournalEntry{}, err
		}
	}

	original, err := s.journal.FindByID(ctx, orgID, entryID)
	if err != nil {
		return model.JournalEntry{}, err
	}

	effective, err := s.periods.ResolveEffectiveDate(ctx, orgID, original.EffectiveDate())
	if err != nil {
		return model.JournalEntry{}, err
	}

	reversal, err := original.BuildReversal(effective, reason, idempotencyKey, traceID, createdBy)
	if err != nil {
		return model.JournalEntry{}, err
	}

	reversed := event.NewEntryReversed(original.ID(), reversal.ID(), orgID, reason, reversal.TraceID())
	if err := s.journal.CreateReversal(ctx, reversal, reversed); err != nil {
		if errors.Is(err, model.ErrDuplicateIdempotencyKey) {
			return s.journal.FindByIdempotencyKey(ctx, orgID, idempotencyKey)
		}
		return model.JournalEntry{}, err
	}

	s.logger.InfoContext(ctx, "journal entry reversed",
		slog.String("entry_id", original.ID().String()),
		slog.String("reversal_entry_id", reversal.ID().String()),
		slog.String("reason", reason))
	return reversal, nil
}

// ReadBalance is the O(1) current balance read.
func (s *LedgerService) ReadBalance(ctx context.Context, orgID, accountID uuid.UUID) (model.AccountBalance, error) {
	return s.balances.GetBalance(ctx, orgID, accountID)
}

// ReadDimensionalBalances returns balances for the tag combinations
// matching the filter.
func (s *LedgerService) ReadDimensionalBalances(ctx context.Context, orgID, accountID uuid.UUID, filter valueobject.Dimensions) ([]model.DimensionalBalance, error) {
	return s.balances.GetDimensionalBalances(ctx, orgID, accountID, filter)
}

// BalanceAsOf computes the historical balance by subtracting the postings
// delta since asOf from the current materialized balance. asOf at or after
// today short-circuits to the O(1) read.
func (s *LedgerService) BalanceAsOf(ctx context.Context, orgID, accountID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	current, err := s.balances.GetBalance(ctx, orgID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	asOf = valueobject.DateOf(asOf)
	if !asOf.Before(valueobject.DateOf(time.Now().UTC())) {
		return current.Balance, nil
	}
	delta, err := s.journal.SumPostingsSince(ctx, orgID, accountID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return current.Balance.Sub(delta), nil
}

// AccountActivity returns the composite read: opening and closing balances
// bracketing a paginated entry listing with debit and credit totals.
func (s *LedgerService) AccountActivity(ctx context.Context, orgID, accountID uuid.UUID, f port.ActivityFilter) (model.AccountActivity, error) {
	opening, err := s.BalanceAsOf(ctx, orgID, accountID, f.From.AddDate(0, 0, -1))
	if err != nil {
		return model.AccountActivity{}, err
	}
	closing, err := s.BalanceAsOf(ctx, orgID, accountID, f.To)
	if err != nil {
		return model.AccountActivity{}, err
	}
	entries, total, err := s.journal.ListByAccount(ctx, orgID, accountID, f)
	if err != nil {
		return model.AccountActivity{}, err
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		for _, p := range e.Postings() {
			if p.AccountID() != accountID {
				continue
			}
			if p.IsDebit() {
				debits = debits.Add(p.Amount())
			} else {
				credits = credits.Add(p.Amount().Neg())
			}
		}
	}

	return model.AccountActivity{
		AccountID:      accountID,
		From:           f.From,
		To:             f.To,
		OpeningBalance: opening,
		ClosingBalance: closing,
		TotalDebits:    debits,
		TotalCredits:   credits,
		Entries:        entries,
		TotalCount:     total,
	}, nil
}
