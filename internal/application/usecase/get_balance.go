package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

// GetBalanceUseCase serves the O(1) current balance read and the
// time-travel variant.
type GetBalanceUseCase struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewGetBalanceUseCase(ledger *service.LedgerService, logger *slog.Logger) *GetBalanceUseCase {
	return &GetBalanceUseCase{ledger: ledger, logger: logger}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, req dto.BalanceRequest) (dto.BalanceResponse, error) {
	if !req.AsOf.IsZero() {
		raw, err := uc.ledger.BalanceAsOf(ctx, req.OrgID, req.AccountID, req.AsOf)
		if err != nil {
			return dto.BalanceResponse{}, fmt.Errorf("balance as of %s: %w", req.AsOf.Format("2006-01-02"), err)
		}
		asOf := valueobject.DateOf(req.AsOf)
		return dto.BalanceResponse{
			AccountID: req.AccountID,
			Balance:   raw.RoundBank(money.PresentationScale),
			Raw:       raw,
			AsOf:      &asOf,
		}, nil
	}

	b, err := uc.ledger.ReadBalance(ctx, req.OrgID, req.AccountID)
	if err != nil {
		return dto.BalanceResponse{}, fmt.Errorf("read balance: %w", err)
	}
	return dto.BalanceResponse{
		AccountID: req.AccountID,
		Balance:   b.Balance.RoundBank(money.PresentationScale),
		Raw:       b.Balance,
	}, nil
}

// Dimensional returns the tagged balance slices for an account matching
// the optional dimension filter.
func (uc *GetBalanceUseCase) Dimensional(ctx context.Context, orgID, accountID uuid.UUID, filter valueobject.Dimensions) ([]dto.DimensionalBalanceResponse, error) {
	balances, err := uc.ledger.ReadDimensionalBalances(ctx, orgID, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("dimensional balances: %w", err)
	}
	out := make([]dto.DimensionalBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.DimensionalBalanceResponse{
			AccountID:  b.AccountID,
			OwnerID:    b.Dimensions.OwnerID,
			PropertyID: b.Dimensions.PropertyID,
			TenantID:   b.Dimensions.TenantID,
			VendorID:   b.Dimensions.VendorID,
			Balance:    b.Balance.RoundBank(money.PresentationScale),
		})
	}
	return out, nil
}
