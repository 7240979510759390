package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// ReverseEntryUseCase posts the mirror of an existing entry. The original
// is never mutated beyond the cross-link to its reversal.
type ReverseEntryUseCase struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewReverseEntryUseCase(ledger *service.LedgerService, logger *slog.Logger) *ReverseEntryUseCase {
	return &ReverseEntryUseCase{ledger: ledger, logger: logger}
}

func (uc *ReverseEntryUseCase) Execute(ctx context.Context, req dto.ReverseEntryRequest) (dto.EntryResponse, error) {
	if req.Reason == "" {
		return dto.EntryResponse{}, fmt.Errorf("reversal reason is required")
	}
	reversal, err := uc.ledger.ReverseEntry(ctx, req.OrgID, req.EntryID, req.Reason,
		req.IdempotencyKey, events.TraceIDFrom(ctx), req.CreatedBy)
	if err != nil {
		return dto.EntryResponse{}, fmt.Errorf("reverse entry %s: %w", req.EntryID, err)
	}
	return toEntryResponse(reversal), nil
}
