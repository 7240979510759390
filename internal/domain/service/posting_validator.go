package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// PostingValidator is a domain service that checks posting lines against
// the chart of accounts before an entry is created.
type PostingValidator struct {
	accounts port.AccountRepository
}

func NewPostingValidator(accounts port.AccountRepository) *PostingValidator {
	return &PostingValidator{accounts: accounts}
}

// ValidatePostings ensures the line set is balanced and every referenced
// account exists for the organization.
func (v *PostingValidator) ValidatePostings(ctx context.Context, orgID uuid.UUID, postings []model.Posting) error {
	if err := model.ValidateDoubleEntry(postings); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool, len(postings))
	for _, p := range postings {
		if seen[p.AccountID()] {
			continue
		}
		seen[p.AccountID()] = true
		if _, err := v.accounts.FindByID(ctx, orgID, p.AccountID()); err != nil {
			if errors.Is(err, model.ErrAccountNotFound) {
				return fmt.Errorf("%w: account %s", model.ErrInvalidAccount, p.AccountID())
			}
			return err
		}
	}
	return nil
}
