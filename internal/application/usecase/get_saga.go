package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// GetSagaUseCase reads one saga with its execution log.
type GetSagaUseCase struct {
	sagas  port.SagaRepository
	logger *slog.Logger
}

func NewGetSagaUseCase(sagas port.SagaRepository, logger *slog.Logger) *GetSagaUseCase {
	return &GetSagaUseCase{sagas: sagas, logger: logger}
}

func (uc *GetSagaUseCase) Execute(ctx context.Context, sagaID uuid.UUID) (dto.SagaResponse, []dto.StepLogResponse, error) {
	s, err := uc.sagas.FindByID(ctx, sagaID)
	if err != nil {
		return dto.SagaResponse{}, nil, fmt.Errorf("load saga %s: %w", sagaID, err)
	}
	logs, err := uc.sagas.ListStepLogs(ctx, sagaID)
	if err != nil {
		return dto.SagaResponse{}, nil, fmt.Errorf("load step logs for %s: %w", sagaID, err)
	}

	out := make([]dto.StepLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.StepLogResponse{
			StepName:    l.StepName,
			StepType:    string(l.StepType),
			Status:      string(l.Status),
			Error:       l.Error,
			StartedAt:   l.StartedAt,
			CompletedAt: l.CompletedAt,
			DurationMS:  l.DurationMS,
		})
	}
	return toSagaResponse(s), out, nil
}
