package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

// TrialBalanceUseCase emits the trial balance report. The diagnostics gate
// runs first: a report is never produced over books that fail an integrity
// check.
type TrialBalanceUseCase struct {
	diagnostics *service.Diagnostics
	balances    port.BalanceRepository
	logger      *slog.Logger
}

func NewTrialBalanceUseCase(diagnostics *service.Diagnostics, balances port.BalanceRepository, logger *slog.Logger) *TrialBalanceUseCase {
	return &TrialBalanceUseCase{diagnostics: diagnostics, balances: balances, logger: logger}
}

func (uc *TrialBalanceUseCase) Execute(ctx context.Context, orgID uuid.UUID) (dto.TrialBalanceResponse, error) {
	if _, err := uc.diagnostics.Gate(ctx, orgID); err != nil {
		return dto.TrialBalanceResponse{}, fmt.Errorf("trial balance gate: %w", err)
	}

	lines, err := uc.balances.TrialBalance(ctx, orgID)
	if err != nil {
		return dto.TrialBalanceResponse{}, fmt.Errorf("trial balance: %w", err)
	}

	resp := dto.TrialBalanceResponse{
		OrgID:        orgID,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.TrialBalanceLineResponse{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode.String(),
			AccountName: l.AccountName,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
		resp.TotalDebits = resp.TotalDebits.Add(l.Debit)
		resp.TotalCredits = resp.TotalCredits.Add(l.Credit)
	}
	return resp, nil
}
