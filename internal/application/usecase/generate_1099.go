package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

// Generate1099UseCase assembles a calendar year's information returns and
// renders the FIRE transmission when any form qualifies.
type Generate1099UseCase struct {
	tax    *service.Tax1099Service
	logger *slog.Logger
}

func NewGenerate1099UseCase(tax *service.Tax1099Service, logger *slog.Logger) *Generate1099UseCase {
	return &Generate1099UseCase{tax: tax, logger: logger}
}

func (uc *Generate1099UseCase) Execute(ctx context.Context, req dto.Generate1099Request) (dto.Generate1099Response, error) {
	if req.Year <= 0 {
		return dto.Generate1099Response{}, fmt.Errorf("tax year is required")
	}

	run, err := uc.tax.BuildRun(ctx, req.OrgID, req.StateCode, req.Year)
	if err != nil {
		return dto.Generate1099Response{}, fmt.Errorf("build 1099 run for %d: %w", req.Year, err)
	}

	resp := dto.Generate1099Response{
		Year:        run.Year,
		Threshold:   run.Threshold,
		GeneratedAt: time.Now().UTC(),
	}
	for _, f := range run.Forms {
		resp.Forms = append(resp.Forms, dto.Form1099Response{
			FormID:        f.ID,
			RecipientID:   f.RecipientID,
			RecipientName: f.RecipientName,
			Type:          string(f.Type),
			Amount:        f.Amount,
		})
	}
	for _, ex := range run.Excluded {
		resp.Excluded = append(resp.Excluded, dto.ExcludedRecipientResponse{
			RecipientID: ex.RecipientID,
			Name:        ex.Name,
			Reason:      ex.Reason,
		})
	}

	if len(run.Forms) > 0 {
		file, err := uc.tax.RenderFIRE(run)
		if err != nil {
			return dto.Generate1099Response{}, fmt.Errorf("render FIRE file for %d: %w", req.Year, err)
		}
		resp.FIREFile = file
	}

	uc.logger.InfoContext(ctx, "1099 run generated",
		slog.Int("year", run.Year),
		slog.Int("forms", len(run.Forms)),
		slog.Int("excluded", len(run.Excluded)))
	return resp, nil
}
