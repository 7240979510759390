package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

// RunDiagnosticsUseCase runs the full canary and reports every check,
// passing or not. Callers that need a hard stop use the gate inside the
// report and close paths instead.
type RunDiagnosticsUseCase struct {
	diagnostics *service.Diagnostics
	logger      *slog.Logger
}

func NewRunDiagnosticsUseCase(diagnostics *service.Diagnostics, logger *slog.Logger) *RunDiagnosticsUseCase {
	return &RunDiagnosticsUseCase{diagnostics: diagnostics, logger: logger}
}

func (uc *RunDiagnosticsUseCase) Execute(ctx context.Context, orgID uuid.UUID) (dto.DiagnosticsResponse, error) {
	report, err := uc.diagnostics.Full(ctx, orgID)
	if err != nil {
		return dto.DiagnosticsResponse{}, fmt.Errorf("run diagnostics: %w", err)
	}

	resp := dto.DiagnosticsResponse{
		OrgID:  report.OrgID,
		Passed: report.Passed,
		RanAt:  report.RanAt,
	}
	for _, c := range report.Checks {
		resp.Checks = append(resp.Checks, dto.CheckResponse{
			Name:     c.Name,
			Passed:   c.Passed,
			Variance: c.Variance,
			Detail:   c.Detail,
		})
	}
	return resp, nil
}
