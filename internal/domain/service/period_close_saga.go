package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// SagaNamePeriodClose identifies the period close workflow.
const SagaNamePeriodClose = "PERIOD_CLOSE"

// Period close steps.
const (
	StepDiagnosticGate  = "DIAGNOSTIC_GATE"
	StepFreeze          = "FREEZE"
	StepGenerateReports = "GENERATE_REPORTS"
)

// PeriodClosePayload names the period to close by any date inside it.
type PeriodClosePayload struct {
	PeriodDate time.Time `json:"period_date"`
}

// PeriodCloseResult carries the closing trial balance.
type PeriodCloseResult struct {
	Period       string                   `json:"period"`
	TrialBalance []model.TrialBalanceLine `json:"trial_balance"`
}

// PeriodCloseSaga closes an accounting period: the diagnostic gate runs
// first, then the freeze, then the closing reports. Closure is terminal so
// the gate ordering is what keeps a broken ledger from being frozen.
type PeriodCloseSaga struct {
	diagnostics *Diagnostics
	periods     *PeriodManager
	balances    port.BalanceRepository
	logger      *slog.Logger
}

func NewPeriodCloseSaga(diagnostics *Diagnostics, periods *PeriodManager, balances port.BalanceRepository, logger *slog.Logger) *PeriodCloseSaga {
	return &PeriodCloseSaga{diagnostics: diagnostics, periods: periods, balances: balances, logger: logger}
}

func (p *PeriodCloseSaga) Name() string { return SagaNamePeriodClose }

func (p *PeriodCloseSaga) ExecuteStep(ctx context.Context, s *model.Saga) (StepOutcome, error) {
	var payload PeriodClosePayload
	if err := json.Unmarshal(s.Payload, &payload); err != nil {
		return StepOutcome{}, fmt.Errorf("period close saga %s: bad payload: %w", s.ID, err)
	}

	switch s.CurrentStep {
	case StepDiagnosticGate:
		if _, err := p.diagnostics.Gate(ctx, s.OrgID); err != nil {
			return StepOutcome{}, err
		}
		return StepOutcome{Next: StepFreeze}, nil

	case StepFreeze:
		closed, err := p.periods.ClosePeriod(ctx, s.OrgID, payload.PeriodDate)
		if err != nil {
			return StepOutcome{}, err
		}
		return StepOutcome{
			Next: StepGenerateReports,
			Events: []events.DomainEvent{
				event.NewPeriodClosed(s.OrgID, closed.String(), s.TraceID),
			},
		}, nil

	case StepGenerateReports:
		lines, err := p.balances.TrialBalance(ctx, s.OrgID)
		if err != nil {
			return StepOutcome{}, err
		}
		period, err := p.periods.Find(ctx, s.OrgID, payload.PeriodDate)
		if err != nil {
			return StepOutcome{}, err
		}
		result, _ := json.Marshal(PeriodCloseResult{Period: period.String(), TrialBalance: lines})
		return StepOutcome{Done: true, Result: result}, nil

	default:
		return StepOutcome{}, fmt.Errorf("%w: %s step %q", model.ErrStepUnknown, SagaNamePeriodClose, s.CurrentStep)
	}
}

// CompensateStep is a no-op for every period close step: closure is
// terminal and reopening is unsupported, which is why the diagnostic gate
// runs before the freeze.
func (p *PeriodCloseSaga) CompensateStep(ctx context.Context, s *model.Saga, step string) ([]events.DomainEvent, error) {
	switch step {
	case StepDiagnosticGate, StepGenerateReports:
		return nil, nil
	case StepFreeze:
		p.logger.Warn("period close compensation cannot reopen a closed period",
			slog.String("saga_id", s.ID.String()))
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s compensation for %q", model.ErrStepUnknown, SagaNamePeriodClose, step)
	}
}
