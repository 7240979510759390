package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// CreateEntryUseCase posts a balanced journal entry through the ledger's
// single write path.
type CreateEntryUseCase struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewCreateEntryUseCase(ledger *service.LedgerService, logger *slog.Logger) *CreateEntryUseCase {
	return &CreateEntryUseCase{ledger: ledger, logger: logger}
}

func (uc *CreateEntryUseCase) Execute(ctx context.Context, req dto.CreateEntryRequest) (dto.EntryResponse, error) {
	postings, err := toPostings(req.Postings)
	if err != nil {
		return dto.EntryResponse{}, err
	}

	entry, err := uc.ledger.CreateEntry(ctx, model.EntryInput{
		OrgID:          req.OrgID,
		EntryDate:      req.EntryDate,
		EffectiveDate:  req.EffectiveDate,
		Description:    req.Description,
		Memo:           req.Memo,
		SourceType:     model.SourceType(req.SourceType),
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		TraceID:        events.TraceIDFrom(ctx),
		CreatedBy:      req.CreatedBy,
		Postings:       postings,
	})
	if err != nil {
		return dto.EntryResponse{}, fmt.Errorf("create entry: %w", err)
	}
	return toEntryResponse(entry), nil
}

func toPostings(reqs []dto.PostingRequest) ([]model.Posting, error) {
	postings := make([]model.Posting, 0, len(reqs))
	for i, pr := range reqs {
		dims := valueobject.Dimensions{
			OwnerID:    pr.OwnerID,
			PropertyID: pr.PropertyID,
			TenantID:   pr.TenantID,
			VendorID:   pr.VendorID,
		}
		p, err := model.NewPosting(pr.AccountID, pr.Amount, dims, pr.LineMemo)
		if err != nil {
			return nil, fmt.Errorf("posting %d: %w", i, err)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func toEntryResponse(e model.JournalEntry) dto.EntryResponse {
	resp := dto.EntryResponse{
		EntryID:         e.ID(),
		OrgID:           e.OrgID(),
		EntryDate:       e.EntryDate(),
		EffectiveDate:   e.EffectiveDate(),
		Description:     e.Description(),
		Memo:            e.Memo(),
		SourceType:      string(e.SourceType()),
		SourceID:        e.SourceID(),
		IsReversal:      e.IsReversal(),
		ReversesEntryID: e.ReversesEntryID(),
		ReversedByID:    e.ReversedByEntryID(),
		CreatedAt:       e.CreatedAt(),
		CreatedBy:       e.CreatedBy(),
	}
	for _, p := range e.Postings() {
		dims := p.Dimensions()
		resp.Postings = append(resp.Postings, dto.PostingResponse{
			AccountID:  p.AccountID(),
			Amount:     p.Amount(),
			LineMemo:   p.LineDescription(),
			OwnerID:    dims.OwnerID,
			PropertyID: dims.PropertyID,
			TenantID:   dims.TenantID,
			VendorID:   dims.VendorID,
		})
	}
	return resp
}
