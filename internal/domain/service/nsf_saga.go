package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// SagaNameNSF identifies the bounced-payment workflow.
const SagaNameNSF = "NSF"

// NSF steps.
const (
	StepReversePayment = "REVERSE_PAYMENT"
	StepAssessNSFFee   = "ASSESS_NSF_FEE"
	StepNotify         = "NOTIFY"
)

// NSFAccounts names the chart accounts the fee assessment posts to.
type NSFAccounts struct {
	ReceivableCode valueobject.AccountCode
	FeeIncomeCode  valueobject.AccountCode
}

// NSFPayload starts an NSF saga for a bounced tenant payment.
type NSFPayload struct {
	PaymentEntryID uuid.UUID       `json:"payment_entry_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
}

// NSFSaga unwinds a bounced payment: reverse the payment entry, assess the
// returned-check fee, notify the tenant.
type NSFSaga struct {
	accounts port.AccountRepository
	ledger   *LedgerService
	codes    NSFAccounts
	logger   *slog.Logger
}

func NewNSFSaga(accounts port.AccountRepository, ledger *LedgerService, codes NSFAccounts, logger *slog.Logger) *NSFSaga {
	return &NSFSaga{accounts: accounts, ledger: ledger, codes: codes, logger: logger}
}

func (n *NSFSaga) Name() string { return SagaNameNSF }

func (n *NSFSaga) ExecuteStep(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	var p NSFPayload
	if err := json.Unmarshal(s.Payload, &p); err != nil {
		return StepOutcome{}, fmt.Errorf("nsf saga %s: bad payload: %w", s.ID, err)
	}

	switch s.CurrentStep {
	case StepReversePayment:
		_, err := n.ledger.ReverseEntry(ctx, s.OrgID, p.PaymentEntryID,
			"payment returned NSF",
			fmt.Sprintf("nsf:%s", s.ID),
			s.TraceID, s.InitiatedBy)
		if err != nil {
			return StepOutcome{}, err
		}
		return StepOutcome{
			Next: StepAssessNSFFee,
			Events: []events.DomainEvent{
				event.NewPaymentNSF(p.PaymentEntryID, p.TenantID, p.Amount, s.TraceID),
			},
		}, nil

	case StepAssessNSFFee:
		if !p.Fee.IsPositive() {
			return StepOutcome{Next: StepNotify}, nil
		}
		receivable, err := n.accounts.FindByCode(ctx, s.OrgID, n.codes.ReceivableCode)
		if err != nil {
			return StepOutcome{}, err
		}
		income, err := n.accounts.FindByCode(ctx, s.OrgID, n.codes.FeeIncomeCode)
		if err != nil {
			return StepOutcome{}, err
		}
		dims := valueobject.WithTenant(p.TenantID)
		charge, err := model.NewPosting(receivable.ID(), p.Fee, dims, "NSF fee")
		if err != nil {
			return StepOutcome{}, err
		}
		fee, err := model.NewPosting(income.ID(), p.Fee.Neg(), dims, "NSF fee income")
		if err != nil {
			return StepOutcome{}, err
		}
		_, err = n.ledger.CreateEntry(ctx, model.EntryInput{
			OrgID:          s.OrgID,
			Description:    fmt.Sprintf("NSF fee, tenant %s", p.TenantID),
			SourceType:     model.SourceCharge,
			SourceID:       p.PaymentEntryID.String(),
			IdempotencyKey: fmt.Sprintf("nsf-fee:%s", s.ID),
			TraceID:        s.TraceID,
			CreatedBy:      s.InitiatedBy,
			Postings:       []model.Posting{charge, fee},
		})
		if err != nil {
			return StepOutcome{}, err
		}
		return StepOutcome{Next: StepNotify}, nil

	case StepNotify:
		result, _ := json.Marshal(map[string]string{"payment_entry_id": p.PaymentEntryID.String()})
		return StepOutcome{
			Done:   true,
			Result: result,
			Events: []events.DomainEvent{
				event.NewNotificationRequested(p.TenantID, "email", "payment_nsf",
					fmt.Sprintf("Your payment of %s was returned by the bank.", p.Amount.StringFixed(2)), s.TraceID),
			},
		}, nil

	default:
		return StepOutcome{}, fmt.Errorf("%w: %s step %q", model.ErrStepUnknown, SagaNameNSF, s.CurrentStep)
	}
}

func (n *NSFSaga) CompensateStep(ctx context.Context, s *model.Saga, step string) ([]events.DomainEvent, error) {
	var p NSFPayload
	if err := json.Unmarshal(s.Payload, &p); err != nil {
		return nil, err
	}
	switch step {
	case StepReversePayment:
		// A reversal cannot itself be reversed, so compensation re-posts the
		// original payment lines as a fresh adjustment.
		original, err := n.ledger.journal.FindByID(ctx, s.OrgID, p.PaymentEntryID)
		if err != nil {
			return nil, err
		}
		_, err = n.ledger.CreateEntry(ctx, model.EntryInput{
			OrgID:          s.OrgID,
			Description:    fmt.Sprintf("Reinstate payment %s after NSF compensation", p.PaymentEntryID),
			SourceType:     model.SourceAdjustment,
			SourceID:       p.PaymentEntryID.String(),
			IdempotencyKey: fmt.Sprintf("nsf-comp:%s", s.ID),
			TraceID:        s.TraceID,
			CreatedBy:      s.InitiatedBy,
			Postings:       original.Postings(),
		})
		return nil, err

	case StepAssessNSFFee:
		feeEntry, err := n.ledger.journal.FindByIdempotencyKey(ctx, s.OrgID, fmt.Sprintf("nsf-fee:%s", s.ID))
		if errors.Is(err, model.ErrEntryNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		_, err = n.ledger.ReverseEntry(ctx, s.OrgID, feeEntry.ID(),
			"NSF fee compensation",
			fmt.Sprintf("nsf-fee-comp:%s", s.ID),
			s.TraceID, s.InitiatedBy)
		return nil, err

	case StepNotify:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s compensation for %q", model.ErrStepUnknown, SagaNameNSF, step)
	}
}
