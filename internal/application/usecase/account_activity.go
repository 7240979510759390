package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

const defaultActivityLimit = 50

// AccountActivityUseCase serves the composite read: opening and closing
// balances bracketing a paginated entry listing.
type AccountActivityUseCase struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewAccountActivityUseCase(ledger *service.LedgerService, logger *slog.Logger) *AccountActivityUseCase {
	return &AccountActivityUseCase{ledger: ledger, logger: logger}
}

func (uc *AccountActivityUseCase) Execute(ctx context.Context, req dto.ActivityRequest) (dto.ActivityResponse, error) {
	if req.To.Before(req.From) {
		return dto.ActivityResponse{}, fmt.Errorf("activity range ends before it starts")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	activity, err := uc.ledger.AccountActivity(ctx, req.OrgID, req.AccountID, port.ActivityFilter{
		From:   req.From,
		To:     req.To,
		Limit:  limit,
		Offset: req.Offset,
	})
	if err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("account activity: %w", err)
	}

	resp := dto.ActivityResponse{
		AccountID:      activity.AccountID,
		From:           activity.From,
		To:             activity.To,
		OpeningBalance: activity.OpeningBalance,
		ClosingBalance: activity.ClosingBalance,
		TotalDebits:    activity.TotalDebits,
		TotalCredits:   activity.TotalCredits,
		TotalCount:     activity.TotalCount,
	}
	for _, e := range activity.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	return resp, nil
}
