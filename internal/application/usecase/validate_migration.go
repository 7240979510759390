package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

// ValidateMigrationUseCase pre-checks a legacy import batch. The report is
// complete even when the batch fails; nothing is written either way.
type ValidateMigrationUseCase struct {
	validator *service.MigrationValidator
	logger    *slog.Logger
}

func NewValidateMigrationUseCase(validator *service.MigrationValidator, logger *slog.Logger) *ValidateMigrationUseCase {
	return &ValidateMigrationUseCase{validator: validator, logger: logger}
}

func (uc *ValidateMigrationUseCase) Execute(ctx context.Context, req dto.ValidateMigrationRequest) (dto.MigrationReportResponse, error) {
	rows := make([]service.ImportRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		row := service.ImportRow{
			ExternalID:  r.ExternalID,
			Date:        r.Date,
			Description: r.Description,
		}
		for _, l := range r.Lines {
			row.Lines = append(row.Lines, service.ImportLine{
				AccountCode: l.AccountCode,
				Amount:      l.Amount,
				OwnerID:     l.OwnerID,
				IsLoan:      l.IsLoan,
			})
		}
		rows = append(rows, row)
	}

	report, err := uc.validator.Validate(ctx, req.OrgID, rows)
	if err != nil {
		return dto.MigrationReportResponse{}, fmt.Errorf("validate migration: %w", err)
	}

	uc.logger.InfoContext(ctx, "migration batch validated",
		slog.Int("rows", report.Rows),
		slog.Bool("valid", report.Valid),
		slog.Int("errors", len(report.Errors)),
		slog.Int("warnings", len(report.Warnings)))

	resp := dto.MigrationReportResponse{Rows: report.Rows, Valid: report.Valid}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, dto.MigrationIssueResponse{ExternalID: e.ExternalID, Rule: e.Rule, Detail: e.Detail})
	}
	for _, w := range report.Warnings {
		resp.Warnings = append(resp.Warnings, dto.MigrationIssueResponse{ExternalID: w.ExternalID, Rule: w.Rule, Detail: w.Detail})
	}
	return resp, nil
}
