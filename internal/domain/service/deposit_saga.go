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
)

// Saga names for the security deposit lifecycle.
const (
	SagaNameDepositCollect = "SECURITY_DEPOSIT_COLLECT"
	SagaNameDepositReturn  = "SECURITY_DEPOSIT_RETURN"
)

// Collection steps.
const (
	StepValidateAmount = "VALIDATE_AMOUNT"
	StepCreateEntry    = "CREATE_ENTRY"
	StepIsolateFunds   = "ISOLATE_FUNDS"
	StepNotifyTenant   = "NOTIFY_TENANT"
)

// Return steps. NOTIFY_TENANT is shared with collection.
const (
	StepCalculateInterest = "CALCULATE_INTEREST"
	StepAssessDeductions  = "ASSESS_DEDUCTIONS"
	StepCreateEntries     = "CREATE_ENTRIES"
	StepGenerateStatement = "GENERATE_STATEMENT"
	StepProcessRefund     = "PROCESS_REFUND"
)

// DepositAccounts names the chart accounts the return flow posts to beyond
// the subtype-designated trust and liability accounts.
type DepositAccounts struct {
	InterestExpenseCode valueobject.AccountCode
	DeductionIncomeCode valueobject.AccountCode
	ReceivableCode      valueobject.AccountCode
}

// CollectPayload starts a deposit collection saga.
type CollectPayload struct {
	DepositID   uuid.UUID       `json:"deposit_id"`
	PropertyID  uuid.UUID       `json:"property_id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Amount      decimal.Decimal `json:"amount"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	StateCode   string          `json:"state_code"`
}

// ReturnPayload starts a deposit return saga. The executor writes computed
// fields back into the payload so later steps and resumes see them.
type ReturnPayload struct {
	DepositID   uuid.UUID                `json:"deposit_id"`
	MoveOutDate time.Time                `json:"move_out_date"`
	Deductions  []model.DepositDeduction `json:"deductions,omitempty"`

	// Computed by CALCULATE_INTEREST and ASSESS_DEDUCTIONS.
	Interest *decimal.Decimal `json:"interest,omitempty"`
	Refund   *decimal.Decimal `json:"refund,omitempty"`
	Residual *decimal.Decimal `json:"residual,omitempty"`
}

// ReturnStatement is the itemized document produced by GENERATE_STATEMENT.
type ReturnStatement struct {
	DepositID      uuid.UUID                `json:"deposit_id"`
	TenantID       uuid.UUID                `json:"tenant_id"`
	Deposit        string                   `json:"deposit"`
	Interest       string                   `json:"interest"`
	Deductions     []model.DepositDeduction `json:"deductions,omitempty"`
	Refund         string                   `json:"refund"`
	Residual       string                   `json:"residual,omitempty"`
	ReturnDeadline time.Time                `json:"return_deadline"`
}

// SecurityDepositSaga runs both deposit workflows: collection validates the
// state cap and books the funds into trust; return accrues interest,
// assesses deductions, releases the liability, and cuts the refund check.
type SecurityDepositSaga struct {
	deposits     port.DepositRepository
	accounts     port.AccountRepository
	checkNumbers port.CheckNumberProvider
	ledger       *LedgerService
	compliance   *ComplianceService
	codes        DepositAccounts
	logger       *slog.Logger
}

func NewSecurityDepositSaga(
	deposits port.DepositRepository,
	accounts port.AccountRepository,
	checkNumbers port.CheckNumberProvider,
	ledger *LedgerService,
	compliance *ComplianceService,
	codes DepositAccounts,
	logger *slog.Logger,
) *SecurityDepositSaga {
	return &SecurityDepositSaga{
		deposits:     deposits,
		accounts:     accounts,
		checkNumbers: checkNumbers,
		ledger:       ledger,
		compliance:   compliance,
		codes:        codes,
		logger:       logger,
	}
}

// CollectExecutor and ReturnExecutor expose the two flows as distinct saga
// executors sharing one service.
func (d *SecurityDepositSaga) CollectExecutor() SagaExecutor { return collectExecutor{d} }
func (d *SecurityDepositSaga) ReturnExecutor() SagaExecutor  { return returnExecutor{d} }

type collectExecutor struct{ *SecurityDepositSaga }

func (collectExecutor) Name() string { return SagaNameDepositCollect }

func (e collectExecutor) ExecuteStep(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	var p CollectPayload
	if err := json.Unmarshal(s.Payload, &p); err != nil {
		return StepOutcome{}, fmt.Errorf("collect saga %s: bad payload: %w", s.ID, err)
	}

	switch s.CurrentStep {
	case StepValidateAmount:
		maxDeposit, capped, err := e.compliance.MaxSecurityDeposit(ctx, s.OrgID, p.StateCode, p.MonthlyRent, time.Now().UTC())
		if err != nil {
			return StepOutcome{}, err
		}
		if capped && p.Amount.GreaterThan(maxDeposit) {
			return StepOutcome{}, fmt.Errorf("%w: deposit %s exceeds %s cap of %s",
				model.ErrExceedsStateMax, p.Amount.StringFixed(2), p.StateCode, maxDeposit.StringFixed(2))
		}
		return StepOutcome{Next: StepCreateEntry}, nil

	case StepCreateEntry:
		// Resume-safe: the deposit row may already exist from a prior run.
		deposit, err := e.deposits.FindByID(ctx, s.OrgID, p.DepositID)
		if errors.Is(err, model.ErrDepositNotFound) {
			deposit, err = model.NewSecurityDeposit(s.OrgID, p.PropertyID, p.TenantID, p.Amount, p.StateCode, time.Now().UTC())
			if err != nil {
				return StepOutcome{}, err
			}
			deposit.ID = p.DepositID
			if err := e.deposits.Save(ctx, deposit); err != nil {
				return StepOutcome{}, err
			}
		} else if err != nil {
			return StepOutcome{}, err
		}

		trustBank, err := e.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeTrustBank)
		if err != nil {
			return StepOutcome{}, err
		}
		liability, err := e.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeSecurityDeposit)
		if err != nil {
			return StepOutcome{}, err
		}
		dims := valueobject.Dimensions{TenantID: &p.TenantID, PropertyID: &p.PropertyID}
		debit, err := model.NewPosting(trustBank.ID(), p.Amount, dims, "security deposit collected")
		if err != nil {
			return StepOutcome{}, err
		}
		credit, err := model.NewPosting(liability.ID(), p.Amount.Neg(), dims, "security deposit liability")
		if err != nil {
			return StepOutcome{}, err
		}
		_, err = e.ledger.CreateEntry(ctx, model.EntryInput{
			OrgID:          s.OrgID,
			Description:    fmt.Sprintf("Security deposit collected, tenant %s", p.TenantID),
			SourceType:     model.SourcePayment,
			SourceID:       deposit.ID.String(),
			IdempotencyKey: fmt.Sprintf("depcol:%s", deposit.ID),
			TraceID:        s.TraceID,
			CreatedBy:      s.InitiatedBy,
			Postings:       []model.Posting{debit, credit},
		})
		if err != nil {
			return StepOutcome{}, err
		}
		return StepOutcome{Next: StepIsolateFunds}, nil

	case StepIsolateFunds:
		required, err := e.compliance.RequiresSegregatedAccount(ctx, s.OrgID, p.StateCode, time.Now().UTC())
		if err != nil {
			return StepOutcome{}, err
		}
		out := StepOutcome{Next: StepNotifyTenant}
		if required {
			out.Events = append(out.Events, event.NewSweepRequested(p.DepositID, p.Amount, p.StateCode, s.TraceID))
		}
		return out, nil

	case StepNotifyTenant:
		evts := []events.DomainEvent{
			event.NewDepositCollected(p.DepositID, p.TenantID, p.Amount, p.StateCode, s.TraceID),
			event.NewNotificationRequested(p.TenantID, "email", "deposit_receipt",
				fmt.Sprintf("Security deposit of %s received and held in trust.", p.Amount.StringFixed(2)), s.TraceID),
		}
		result, _ := json.Marshal(map[string]string{"deposit_id": p.DepositID.String()})
		return StepOutcome{Done: true, Result: result, Events: evts}, nil

	default:
		return StepOutcome{}, fmt.Errorf("%w: %s step %q", model.ErrStepUnknown, SagaNameDepositCollect, s.CurrentStep)
	}
}

func (e collectExecutor) CompensateStep(ctx context.Context, s *model.Saga, step string) ([]events.DomainEvent, error) {
	var p CollectPayload
	if err := json.Unmarshal(s.Payload, &p); err != nil {
		return nil, err
	}
	switch step {
	case StepCreateEntry:
		entry, err := e.ledger.journal.FindByIdempotencyKey(ctx, s.OrgID, fmt.Sprintf("depcol:%s", p.DepositID))
		if errors.Is(err, model.ErrEntryNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		_, err = e.ledger.ReverseEntry(ctx, s.OrgID, entry.ID(),
			"deposit collection compensation",
			fmt.Sprintf("depcol-comp:%s", p.DepositID),
			s.TraceID, s.InitiatedBy)
		return nil, err
	case StepValidateAmount, StepIsolateFunds, StepNotifyTenant:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s compensation for %q", model.ErrStepUnknown, SagaNameDepositCollect, step)
	}
}

type returnExecutor struct{ *SecurityDepositSaga }

func (returnExecutor) Name() string { return SagaNameDepositReturn }

func (e returnExecutor) ExecuteStep(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	var p ReturnPayload
	if err := json.Unmarshal(s.Payload, &p); err != nil {
		return StepOutcome{}, fmt.Errorf("return saga %s: bad payload: %w", s.ID, err)
	}
	deposit, err := e.deposits.FindByID(ctx, s.OrgID, p.DepositID)
	if err != nil {
		return StepOutcome{}, err
	}

	switch s.CurrentStep {
	case StepCalculateInterest:
		interest, err := e.compliance.DepositInterest(ctx, s.OrgID, deposit.StateCode, deposit.Amount, deposit.CollectedAt, p.MoveOutDate)
		if err != nil {
			return StepOutcome{}, err
		}
		p.Interest = &interest
		return e.savePayload(s, p, StepAssessDeductions)

	case StepAssessDeductions:
		if p.Interest == nil {
			return StepOutcome{}, fmt.Errorf("return saga %s: interest not calculated", s.ID)
		}
		deducted := decimal.Zero
		for _, ded := range p.Deductions {
			deducted = deducted.Add(ded.Amount)
		}
		available := deposit.Amount.Add(*p.Interest)
		refund := available.Sub(deducted)
		residual := decimal.Zero
		if refund.IsNegative() {
			// Deductions exceed the deposit: nothing to refund and the
			// excess stays as a tenant receivable.
			residual = refund.Neg()
			refund = decimal.Zero
		}
		p.Refund = &refund
		p.Residual = &residual
		return e.savePayload(s, p, StepCreateEntries)

	case StepCreateEntries:
		if p.Refund == nil || p.Interest == nil {
			return StepOutcome{}, fmt.Errorf("return saga %s: amounts not assessed", s.ID)
		}
		if err := e.createReturnEntry(ctx, s, deposit, p); err != nil {
			return StepOutcome{}, err
		}
		return StepOutcome{Next: StepGenerateStatement}, nil

	case StepGenerateStatement:
		deadline, err := e.compliance.ReturnDeadline(ctx, s.OrgID, deposit.StateCode, p.MoveOutDate)
		if err != nil && !errors.Is(err, model.ErrComplianceRuleNotFound) {
			return StepOutcome{}, err
		}
		stmt := ReturnStatement{
			DepositID:      deposit.ID,
			TenantID:       deposit.TenantID,
			Deposit:        deposit.Amount.StringFixed(2),
			Interest:       p.Interest.StringFixed(2),
			Deductions:     p.Deductions,
			Refund:         p.Refund.StringFixed(2),
			ReturnDeadline: deadline,
		}
		if p.Residual != nil && p.Residual.IsPositive() {
			stmt.Residual = p.Residual.StringFixed(2)
		}
		raw, _ := json.Marshal(stmt)
		s.Result = raw
		return StepOutcome{Next: StepProcessRefund}, nil

	case StepProcessRefund:
		var checkNumber *int64
		out := StepOutcome{Next: StepNotifyTenant}
		if p.Refund.IsPositive() {
			n, err := e.checkNumbers.NextCheckNumber(ctx, s.OrgID)
			if err != nil {
				return StepOutcome{}, err
			}
			checkNumber = &n
			out.Events = append(out.Events, event.NewCheckPrintQueued(deposit.TenantID, n, deposit.TenantID.String(), *p.Refund, "security deposit refund", s.TraceID))
		}
		if err := deposit.MarkReturned(*p.Refund, *p.Interest, checkNumber); err != nil {
			if deposit.Status == model.DepositStatusReturned {
				return out, nil // resumed after a prior partial run
			}
			return StepOutcome{}, err
		}
		if err := e.deposits.Update(ctx, deposit); err != nil {
			return StepOutcome{}, err
		}
		return out, nil

	case StepNotifyTenant:
		evts := []events.DomainEvent{
			event.NewDepositReturned(deposit.ID, deposit.TenantID, *p.Refund, *p.Interest, s.TraceID),
			event.NewNotificationRequested(deposit.TenantID, "email", "deposit_return_statement",
				fmt.Sprintf("Your deposit return of %s has been processed.", p.Refund.StringFixed(2)), s.TraceID),
		}
		return StepOutcome{Done: true, Result: s.Result, Events: evts}, nil

	default:
		return StepOutcome{}, fmt.Errorf("%w: %s step %q", model.ErrStepUnknown, SagaNameDepositReturn, s.CurrentStep)
	}
}

// createReturnEntry posts the release of the deposit liability: optional
// interest expense, per-category deduction income, and the refund out of
// trust cash.
func (e returnExecutor) createReturnEntry(ctx context.Context, s *model.Saga, deposit *model.SecurityDeposit, p ReturnPayload) error {
	trustBank, err := e.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeTrustBank)
	if err != nil {
		return err
	}
	liability, err := e.accounts.FindBySubtype(ctx, s.OrgID, valueobject.SubtypeSecurityDeposit)
	if err != nil {
		return err
	}
	dims := valueobject.Dimensions{TenantID: &deposit.TenantID, PropertyID: &deposit.PropertyID}

	var postings []model.Posting
	release, err := model.NewPosting(liability.ID(), deposit.Amount, dims, "release deposit liability")
	if err != nil {
		return err
	}
	postings = append(postings, release)

	if p.Interest.IsPositive() {
		interestAcct, err := e.accounts.FindByCode(ctx, s.OrgID, e.codes.InterestExpenseCode)
		if err != nil {
			return err
		}
		ip, err := model.NewPosting(interestAcct.ID(), *p.Interest, dims, "deposit interest accrual")
		if err != nil {
			return err
		}
		postings = append(postings, ip)
	}

	for _, ded := range p.Deductions {
		dedAcct, err := e.accounts.FindByCode(ctx, s.OrgID, e.codes.DeductionIncomeCode)
		if err != nil {
			return err
		}
		dp, err := model.NewPosting(dedAcct.ID(), ded.Amount.Neg(), dims, fmt.Sprintf("deduction: %s", ded.Category))
		if err != nil {
			return err
		}
		postings = append(postings, dp)
	}

	if p.Refund.IsPositive() {
		rp, err := model.NewPosting(trustBank.ID(), p.Refund.Neg(), dims, "deposit refund")
		if err != nil {
			return err
		}
		postings = append(postings, rp)
	}
	if p.Residual != nil && p.Residual.IsPositive() {
		// Deductions beyond the deposit become a tenant receivable.
		receivable, err := e.accounts.FindByCode(ctx, s.OrgID, e.codes.ReceivableCode)
		if err != nil {
			return err
		}
		resid, err := model.NewPosting(receivable.ID(), *p.Residual, dims, "residual tenant receivable")
		if err != nil {
			return err
		}
		postings = append(postings, resid)
	}

	_, err = e.ledger.CreateEntry(ctx, model.EntryInput{
		OrgID:          s.OrgID,
		Description:    fmt.Sprintf("Security deposit return, tenant %s", deposit.TenantID),
		SourceType:     model.SourceRefund,
		SourceID:       deposit.ID.String(),
		IdempotencyKey: fmt.Sprintf("depret:%s", deposit.ID),
		TraceID:        s.TraceID,
		CreatedBy:      s.InitiatedBy,
		Postings:       postings,
	})
	return err
}

func (e returnExecutor) CompensateStep(ctx context.Context, s *model.Saga, step string) ([]events.DomainEvent, error) {
	var p ReturnPayload
	if err := json.Unmarshal(s.Payload, &p); err != nil {
		return nil, err
	}
	switch step {
	case StepCreateEntries:
		entry, err := e.ledger.journal.FindByIdempotencyKey(ctx, s.OrgID, fmt.Sprintf("depret:%s", p.DepositID))
		if errors.Is(err, model.ErrEntryNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		_, err = e.ledger.ReverseEntry(ctx, s.OrgID, entry.ID(),
			"deposit return compensation",
			fmt.Sprintf("depret-comp:%s", p.DepositID),
			s.TraceID, s.InitiatedBy)
		return nil, err
	case StepCalculateInterest, StepAssessDeductions, StepGenerateStatement, StepProcessRefund, StepNotifyTenant:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s compensation for %q", model.ErrStepUnknown, SagaNameDepositReturn, step)
	}
}

// savePayload writes computed fields back into the saga payload so the next
// step sees them after a crash.
func (e returnExecutor) savePayload(s *model.Saga, p ReturnPayload, next string) (StepOutcome, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return StepOutcome{}, err
	}
	s.Payload = raw
	return StepOutcome{Next: next}, nil
}
