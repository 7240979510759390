package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
	"github.com/GoLearn21/propmaster-sub001/pkg/nacha"
)

// SagaNameDistribution identifies the owner distribution workflow.
const SagaNameDistribution = "OWNER_DISTRIBUTION"

// Distribution saga steps, in declared order.
const (
	StepCalculateDistribution = "CALCULATE_DISTRIBUTION"
	StepValidateReserves      = "VALIDATE_RESERVES"
	StepCreateJournalEntries  = "CREATE_JOURNAL_ENTRIES"
	StepGenerateNacha         = "GENERATE_NACHA"
	StepSubmitToBank          = "SUBMIT_TO_BANK"
	StepRecordConfirmation    = "RECORD_CONFIRMATION"
)

// DistributionPayload is the saga's initial payload.
type DistributionPayload struct {
	PropertyID uuid.UUID `json:"property_id"`
}

// DistributionResult is the saga's completion result.
type DistributionResult struct {
	PropertyID uuid.UUID `json:"property_id"`
	OwnerCount int       `json:"owner_count"`
	Total      string    `json:"total"`
}

// ACHOriginator carries the company-side banking identity stamped on every
// generated NACHA file.
type ACHOriginator struct {
	CompanyName        string
	CompanyID          string
	ODFIRouting        string // first 8 digits of the originating bank routing
	OriginRoutingID    string
	DestinationRouting string
	OriginName         string
	DestinationName    string
}

// DistributionSaga pays property owners their liability balance above the
// per-owner reserve: journal entries move funds out of the trust account,
// ACH-paid owners go into a NACHA batch, check-paid owners are queued for
// printing.
type DistributionSaga struct {
	owners        port.OwnerRepository
	distributions port.DistributionRepository
	nachaFiles    port.NachaFileRepository
	accounts      port.AccountRepository
	ledger        *LedgerService
	originator    ACHOriginator
	logger        *slog.Logger
}

func NewDistributionSaga(
	owners port.OwnerRepository,
	distributions port.DistributionRepository,
	nachaFiles port.NachaFileRepository,
	accounts port.AccountRepository,
	ledger *LedgerService,
	originator ACHOriginator,
	logger *slog.Logger,
) *DistributionSaga {
	return &DistributionSaga{
		owners:        owners,
		distributions: distributions,
		nachaFiles:    nachaFiles,
		accounts:      accounts,
		ledger:        ledger,
		originator:    originator,
		logger:        logger,
	}
}

func (d *DistributionSaga) Name() string { return SagaNameDistribution }

func (d *DistributionSaga) ExecuteStep(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	var payload DistributionPayload
	if err := json.Unmarshal(s.Payload, &payload); err != nil {
		return StepOutcome{}, fmt.Errorf("distribution saga %s: bad payload: %w", s.ID, err)
	}

	switch s.CurrentStep {
	case StepCalculateDistribution:
		return d.calculate(ctx, s, payload)
	case StepValidateReserves:
		return d.validateReserves(ctx, s)
	case StepCreateJournalEntries:
		return d.createJournalEntries(ctx, s)
	case StepGenerateNacha:
		return d.generateNacha(ctx, s)
	case StepSubmitToBank:
		return d.submitToBank(ctx, s)
	case StepRecordConfirmation:
		return d.recordConfirmation(ctx, s, payload)
	default:
		return StepOutcome{}, fmt.Errorf("%w: %s step %q", model.ErrStepUnknown, SagaNameDistribution, s.CurrentStep)
	}
}

// calculate selects eligible owners and records a pending distribution row
// for each. An owner is eligible when liability balance exceeds the owner's
// minimum reserve; the paid amount is the excess.
func (d *DistributionSaga) calculate(ctx context.Context, s *model.Saga, payload DistributionPayload) (StepOutcome, error) {
	owners, err := d.owners.ListByProperty(ctx, s.OrgID, payload.PropertyID)
	if err != nil {
		return StepOutcome{}, err
	}

	var records []model.Distribution
	total := decimal.Zero
	now := time.Now().UTC()
	for _, o := range owners {
		balance, err := d.owners.LiabilityBalance(ctx, s.OrgID, o.ID)
		if err != nil {
			return StepOutcome{}, err
		}
		amount := balance.Sub(o.MinimumReserve)
		if !amount.IsPositive() {
			d.logger.InfoContext(ctx, "owner below reserve, excluded from distribution",
				slog.String("saga_id", s.ID.String()),
				slog.String("owner_id", o.ID.String()),
				slog.String("balance", balance.String()))
			continue
		}
		records = append(records, model.Distribution{
			ID:        uuid.New(),
			OrgID:     s.OrgID,
			SagaID:    s.ID,
			OwnerID:   o.ID,
			Amount:    amount,
			Method:    o.Method,
			Status:    model.DistributionStatusPending,
			CreatedAt: now,
		})
		total = total.Add(amount)
	}
	if len(records) == 0 {
		return StepOutcome{}, fmt.Errorf("%w: property %s", model.ErrNoEligibleOwners, payload.PropertyID)
	}
	if err := d.distributions.SaveAll(ctx, records); err != nil {
		return StepOutcome{}, err
	}

	return StepOutcome{
		Next: StepValidateReserves,
		Events: []events.DomainEvent{
			event.NewDistributionScheduled(s.ID, payload.PropertyID, len(records), total, s.TraceID),
		},
	}, nil
}

// validateReserves confirms the trust account holds the full payout.
func (d *DistributionSaga) validateReserves(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	records, err := d.distributions.ListBySaga(ctx, s.ID)
	if err != nil {
		return StepOutcome{}, err
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}

	trustBank, err := d.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeTrustBank)
	if err != nil {
		return StepOutcome{}, err
	}
	balance, err := d.ledger.ReadBalance(ctx, s.OrgID, trustBank.ID())
	if err != nil {
		return StepOutcome{}, err
	}
	if balance.Balance.LessThan(total) {
		return StepOutcome{}, fmt.Errorf("%w: trust bank holds %s, distribution needs %s",
			model.ErrInsufficientFunds, balance.Balance.StringFixed(2), total.StringFixed(2))
	}
	return StepOutcome{Next: StepCreateJournalEntries}, nil
}

// createJournalEntries posts one entry per owner: debit owner liability,
// credit trust bank. Idempotency keys derive from the saga and owner so a
// resumed step never double-posts. A run with no ACH-paid owners skips the
// NACHA legs and goes straight to confirmation.
func (d *DistributionSaga) createJournalEntries(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	records, err := d.distributions.ListBySaga(ctx, s.ID)
	if err != nil {
		return StepOutcome{}, err
	}
	ownerLiability, err := d.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeOwnerLiability)
	if err != nil {
		return StepOutcome{}, err
	}
	trustBank, err := d.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeTrustBank)
	if err != nil {
		return StepOutcome{}, err
	}

	next := StepRecordConfirmation
	for _, r := range records {
		if r.Method == model.PaymentMethodACH {
			next = StepGenerateNacha
		}
		dims := valueobject.WithOwner(r.OwnerID)
		debit, err := model.NewPosting(ownerLiability.ID(), r.Amount, dims, "owner distribution")
		if err != nil {
			return StepOutcome{}, err
		}
		credit, err := model.NewPosting(trustBank.ID(), r.Amount.Neg(), dims, "owner distribution")
		if err != nil {
			return StepOutcome{}, err
		}
		entry, err := d.ledger.CreateEntry(ctx, model.EntryInput{
			OrgID:          s.OrgID,
			Description:    fmt.Sprintf("Owner distribution %s", r.OwnerID),
			SourceType:     model.SourceDistribution,
			SourceID:       s.ID.String(),
			IdempotencyKey: fmt.Sprintf("dist:%s:%s", s.ID, r.OwnerID),
			TraceID:        s.TraceID,
			CreatedBy:      s.InitiatedBy,
			Postings:       []model.Posting{debit, credit},
		})
		if err != nil {
			return StepOutcome{}, err
		}
		entryID := entry.ID()
		r.JournalID = &entryID
		if err := d.distributions.Update(ctx, r); err != nil {
			return StepOutcome{}, err
		}
	}
	return StepOutcome{Next: next}, nil
}

// generateNacha renders the ACH file for ACH-paid owners.
func (d *DistributionSaga) generateNacha(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	records, err := d.distributions.ListBySaga(ctx, s.ID)
	if err != nil {
		return StepOutcome{}, err
	}

	var entries []nacha.Entry
	var totalCents int64
	for _, r := range records {
		if r.Method != model.PaymentMethodACH {
			continue
		}
		owner, err := d.owners.FindByID(ctx, s.OrgID, r.OwnerID)
		if err != nil {
			return StepOutcome{}, err
		}
		cents := money.Cents(r.Amount)
		entries = append(entries, nacha.Entry{
			TransactionCode: nacha.TranCodeCheckingCredit,
			RDFIRouting:     owner.BankRouting,
			AccountNumber:   owner.BankAccount,
			AmountCents:     cents,
			IndividualID:    owner.ID.String()[:8],
			Name:            owner.Name,
		})
		totalCents += cents
	}
	if len(entries) == 0 {
		return StepOutcome{Next: StepRecordConfirmation}, nil
	}

	now := time.Now().UTC()
	file := nacha.File{
		Header: nacha.FileHeader{
			ImmediateDestination: d.originator.DestinationRouting,
			ImmediateOrigin:      d.originator.OriginRoutingID,
			FileCreation:         now,
			FileIDModifier:       "A",
			DestinationName:      d.originator.DestinationName,
			OriginName:           d.originator.OriginName,
		},
		Batches: []nacha.Batch{{
			ServiceClass:     nacha.ServiceClassCreditsOnly,
			CompanyName:      d.originator.CompanyName,
			CompanyID:        d.originator.CompanyID,
			SECCode:          "PPD",
			EntryDescription: "OWNER PAY",
			DescriptiveDate:  now,
			EffectiveDate:    now,
			ODFIRouting:      d.originator.ODFIRouting,
			BatchNumber:      1,
			Entries:          entries,
		}},
	}
	contents, err := file.Render()
	if err != nil {
		return StepOutcome{}, fmt.Errorf("render nacha file: %w", err)
	}

	nf := &model.NachaFile{
		ID:         uuid.New(),
		OrgID:      s.OrgID,
		SagaID:     s.ID,
		Contents:   contents,
		TotalCents: totalCents,
		EntryCount: len(entries),
		Status:     model.NachaFileStatusGenerated,
		CreatedAt:  now,
	}
	if err := d.nachaFiles.Save(ctx, nf); err != nil {
		return StepOutcome{}, err
	}

	return StepOutcome{
		Next: StepSubmitToBank,
		Events: []events.DomainEvent{
			event.NewNachaGenerated(nf.ID, s.ID, nf.EntryCount, nf.TotalCents, s.TraceID),
		},
	}, nil
}

// submitToBank hands the file to the bank-link handler through the outbox.
func (d *DistributionSaga) submitToBank(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	file, err := d.nachaFiles.FindBySaga(ctx, s.ID)
	if err != nil {
		return StepOutcome{}, err
	}
	now := time.Now().UTC()
	if err := d.nachaFiles.UpdateStatus(ctx, file.ID, model.NachaFileStatusSubmitted, &now); err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Next: StepRecordConfirmation,
		Events: []events.DomainEvent{
			event.NewNachaSubmitRequested(file.ID, s.ID, s.TraceID),
		},
	}, nil
}

// recordConfirmation finalizes the run: marks every record processed and
// queues checks for non-ACH owners.
func (d *DistributionSaga) recordConfirmation(ctx context.Context, s *model.Saga, payload DistributionPayload) (StepOutcome, error) {
	records, err := d.distributions.ListBySaga(ctx, s.ID)
	if err != nil {
		return StepOutcome{}, err
	}
	if err := d.distributions.MarkProcessed(ctx, s.ID, time.Now().UTC()); err != nil {
		return StepOutcome{}, err
	}

	total := decimal.Zero
	evts := []events.DomainEvent{}
	for _, r := range records {
		total = total.Add(r.Amount)
		if r.Method != model.PaymentMethodCheck {
			continue
		}
		owner, err := d.owners.FindByID(ctx, s.OrgID, r.OwnerID)
		if err != nil {
			return StepOutcome{}, err
		}
		evts = append(evts, event.NewCheckPrintQueued(owner.ID, 0, owner.Name, r.Amount, "owner distribution", s.TraceID))
	}
	evts = append(evts, event.NewDistributionCompleted(s.ID, payload.PropertyID, total, s.TraceID))

	result, _ := json.Marshal(DistributionResult{
		PropertyID: payload.PropertyID,
		OwnerCount: len(records),
		Total:      total.StringFixed(2),
	})
	return StepOutcome{Done: true, Result: result, Events: evts}, nil
}

// CompensateStep undoes one completed forward step.
func (d *DistributionSaga) CompensateStep(ctx context.Context, s *model.Saga, step string) ([]events.DomainEvent, error) {
	switch step {
	case StepCalculateDistribution:
		return nil, d.distributions.DeleteBySaga(ctx, s.ID)

	case StepValidateReserves:
		return nil, nil

	case StepCreateJournalEntries:
		records, err := d.distributions.ListBySaga(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if r.JournalID == nil {
				continue
			}
			_, err := d.ledger.ReverseEntry(ctx, s.OrgID, *r.JournalID,
				"distribution compensation",
				fmt.Sprintf("dist-comp:%s:%s", s.ID, r.OwnerID),
				s.TraceID, s.InitiatedBy)
			if err != nil {
				return nil, err
			}
		}
		return nil, nil

	case StepGenerateNacha:
		file, err := d.nachaFiles.FindBySaga(ctx, s.ID)
		if errors.Is(err, model.ErrNachaFileNotFound) {
			// Check-only runs never generate a file.
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return nil, d.nachaFiles.UpdateStatus(ctx, file.ID, model.NachaFileStatusCancelled, nil)

	case StepSubmitToBank:
		// Already handed to the bank: cancellation happens out of band.
		file, err := d.nachaFiles.FindBySaga(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		return []events.DomainEvent{
			event.NewNachaCancelRequested(file.ID, s.ID, s.ErrorMessage, s.TraceID),
		}, nil

	case StepRecordConfirmation:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s compensation for %q", model.ErrStepUnknown, SagaNameDistribution, step)
	}
}
