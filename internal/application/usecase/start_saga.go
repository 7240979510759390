package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// sagaCatalog maps every launchable workflow to its initial step. Executors
// dispatch on the current step, so the catalog is the only place initial
// steps are spelled out.
var sagaCatalog = map[string]string{
	service.SagaNameDistribution:   service.StepCalculateDistribution,
	service.SagaNameDepositCollect: service.StepValidateAmount,
	service.SagaNameDepositReturn:  service.StepCalculateInterest,
	service.SagaNameNSF:            service.StepReversePayment,
	service.SagaNamePeriodClose:    service.StepDiagnosticGate,
}

// StartSagaUseCase creates a saga row and emits the first step-ready event
// in the outbox. The worker takes it from there; the caller gets the saga
// id back immediately.
type StartSagaUseCase struct {
	sagas       port.SagaRepository
	outbox      events.OutboxRepository
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewStartSagaUseCase(sagas port.SagaRepository, outbox events.OutboxRepository, timeout time.Duration, maxAttempts int, logger *slog.Logger) *StartSagaUseCase {
	return &StartSagaUseCase{
		sagas:       sagas,
		outbox:      outbox,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (uc *StartSagaUseCase) Execute(ctx context.Context, req dto.StartSagaRequest) (dto.SagaResponse, error) {
	initialStep, ok := sagaCatalog[req.Name]
	if !ok {
		return dto.SagaResponse{}, fmt.Errorf("%w: unknown saga %q", model.ErrStepUnknown, req.Name)
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = events.TraceIDFrom(ctx)
	}
	s, err := model.NewSaga(req.OrgID, req.Name, initialStep, req.Payload, traceID, req.InitiatedBy, uc.timeout)
	if err != nil {
		return dto.SagaResponse{}, fmt.Errorf("start saga %s: %w", req.Name, err)
	}
	if err := uc.sagas.Save(ctx, s); err != nil {
		return dto.SagaResponse{}, fmt.Errorf("save saga %s: %w", s.ID, err)
	}

	ready := event.NewSagaStepReady(s.ID, s.Name, s.CurrentStep, s.TraceID)
	ob := events.NewOutboxEvent(s.OrgID, ready, uc.maxAttempts)
	ob.SagaID = &s.ID
	if err := uc.outbox.Emit(ctx, ob); err != nil {
		return dto.SagaResponse{}, fmt.Errorf("emit first step for saga %s: %w", s.ID, err)
	}

	uc.logger.InfoContext(ctx, "saga started",
		slog.String("saga_id", s.ID.String()),
		slog.String("saga_name", s.Name),
		slog.String("initial_step", s.CurrentStep))
	return toSagaResponse(s), nil
}

func toSagaResponse(s *model.Saga) dto.SagaResponse {
	return dto.SagaResponse{
		SagaID:         s.ID,
		OrgID:          s.OrgID,
		Name:           s.Name,
		Status:         string(s.Status),
		CurrentStep:    s.CurrentStep,
		StepsCompleted: s.StepsCompleted,
		Result:         s.Result,
		ErrorStep:      s.ErrorStep,
		ErrorMessage:   s.ErrorMessage,
		TraceID:        s.TraceID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
