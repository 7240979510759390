package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// RunSagaStepUseCase executes one step of one saga and persists the
// transition. It is driven by saga.step.ready events from the outbox, so a
// crash between steps resumes from the last committed state. Step failures
// flip the saga into compensation rather than erroring the delivery; only
// infrastructure failures bubble up for outbox retry.
type RunSagaStepUseCase struct {
	sagas       port.SagaRepository
	registry    *service.ExecutorRegistry
	outbox      events.OutboxRepository
	maxAttempts int
	logger      *slog.Logger
}

func NewRunSagaStepUseCase(sagas port.SagaRepository, registry *service.ExecutorRegistry, outbox events.OutboxRepository, maxAttempts int, logger *slog.Logger) *RunSagaStepUseCase {
	return &RunSagaStepUseCase{
		sagas:       sagas,
		registry:    registry,
		outbox:      outbox,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (uc *RunSagaStepUseCase) Execute(ctx context.Context, sagaID uuid.UUID) error {
	s, err := uc.sagas.FindByID(ctx, sagaID)
	if err != nil {
		return fmt.Errorf("load saga %s: %w", sagaID, err)
	}
	if s.Status.Terminal() {
		// A redelivered step-ready event for a finished saga is a no-op.
		uc.logger.InfoContext(ctx, "skipping step for terminal saga",
			slog.String("saga_id", s.ID.String()),
			slog.String("status", string(s.Status)))
		return nil
	}

	exec, err := uc.registry.Lookup(s.Name)
	if err != nil {
		return err
	}

	switch s.Status {
	case model.SagaStatusRunning:
		return uc.runForward(ctx, s, exec)
	case model.SagaStatusFailed:
		// Crash landed between Fail and StartCompensation; resume.
		if err := s.StartCompensation(); err != nil {
			return err
		}
		return uc.persistCompensationProgress(ctx, s)
	case model.SagaStatusCompensating:
		return uc.runCompensation(ctx, s, exec)
	default:
		return fmt.Errorf("%w: step for saga %s in status %s", model.ErrSagaInvalidStatus, s.ID, s.Status)
	}
}

func (uc *RunSagaStepUseCase) runForward(ctx context.Context, s *model.Saga, exec service.SagaExecutor) error {
	step := s.CurrentStep
	log := model.NewStepLog(s.ID, step, model.StepTypeForward, s.Payload)
	if err := uc.sagas.AppendStepLog(ctx, log); err != nil {
		return fmt.Errorf("log step start: %w", err)
	}

	out, stepErr := exec.ExecuteStep(ctx, s)
	if err := uc.sagas.AppendStepLog(ctx, log.Finish(out.Result, stepErr)); err != nil {
		return fmt.Errorf("log step finish: %w", err)
	}

	if stepErr != nil {
		uc.logger.ErrorContext(ctx, "saga step failed, compensating",
			slog.String("saga_id", s.ID.String()),
			slog.String("saga_name", s.Name),
			slog.String("step", step),
			slog.String("error", stepErr.Error()))
		if err := s.Fail(step, stepErr); err != nil {
			return err
		}
		if err := s.StartCompensation(); err != nil {
			return err
		}
		return uc.persistCompensationProgress(ctx, s)
	}

	evts := out.Events
	if out.Done {
		if err := s.Complete(out.Result); err != nil {
			return err
		}
		evts = append(evts, event.NewSagaCompleted(s.ID, s.Name, s.Result, s.TraceID))
	} else {
		if err := s.Advance(out.Next); err != nil {
			return err
		}
		evts = append(evts, event.NewSagaStepReady(s.ID, s.Name, s.CurrentStep, s.TraceID))
	}
	if err := uc.sagas.Update(ctx, s); err != nil {
		return fmt.Errorf("update saga %s: %w", s.ID, err)
	}
	return uc.emit(ctx, s, evts)
}

func (uc *RunSagaStepUseCase) runCompensation(ctx context.Context, s *model.Saga, exec service.SagaExecutor) error {
	step := s.CurrentStep
	log := model.NewStepLog(s.ID, step, model.StepTypeCompensation, s.Payload)
	if err := uc.sagas.AppendStepLog(ctx, log); err != nil {
		return fmt.Errorf("log compensation start: %w", err)
	}

	evts, compErr := exec.CompensateStep(ctx, s, step)
	if err := uc.sagas.AppendStepLog(ctx, log.Finish(nil, compErr)); err != nil {
		return fmt.Errorf("log compensation finish: %w", err)
	}
	if compErr != nil {
		// Compensation must eventually succeed; surface for outbox retry.
		return fmt.Errorf("compensate %s step %s: %w", s.Name, step, compErr)
	}

	if err := s.AdvanceCompensation(); err != nil {
		return err
	}
	if err := uc.sagas.Update(ctx, s); err != nil {
		return fmt.Errorf("update saga %s: %w", s.ID, err)
	}

	if s.Status == model.SagaStatusCompensated {
		evts = append(evts, event.NewSagaCompensated(s.ID, s.Name, s.ErrorStep, s.ErrorMessage, s.TraceID))
	} else {
		evts = append(evts, event.NewSagaStepReady(s.ID, s.Name, s.CurrentStep, s.TraceID))
	}
	return uc.emit(ctx, s, evts)
}

// persistCompensationProgress saves the freshly computed compensation plan
// and schedules the next move: another step-ready when work remains, the
// terminal compensated event when the plan was vacuous.
func (uc *RunSagaStepUseCase) persistCompensationProgress(ctx context.Context, s *model.Saga) error {
	if err := uc.sagas.Update(ctx, s); err != nil {
		return fmt.Errorf("update saga %s: %w", s.ID, err)
	}
	if s.Status == model.SagaStatusCompensating {
		return uc.emit(ctx, s, []events.DomainEvent{
			event.NewSagaStepReady(s.ID, s.Name, s.CurrentStep, s.TraceID),
		})
	}
	return uc.emit(ctx, s, []events.DomainEvent{
		event.NewSagaCompensated(s.ID, s.Name, s.ErrorStep, s.ErrorMessage, s.TraceID),
	})
}

func (uc *RunSagaStepUseCase) emit(ctx context.Context, s *model.Saga, evts []events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	rows := make([]events.OutboxEvent, 0, len(evts))
	for _, ev := range evts {
		ob := events.NewOutboxEvent(s.OrgID, ev, uc.maxAttempts)
		ob.SagaID = &s.ID
		rows = append(rows, ob)
	}
	if err := uc.outbox.Emit(ctx, rows...); err != nil {
		return fmt.Errorf("emit saga events: %w", err)
	}
	return nil
}
