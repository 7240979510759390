package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// Compile-time interface check.
var _ port.CheckNumberProvider = (*CheckNumberRepo)(nil)

// CheckNumberRepo hands out sequential check numbers per org from a counter
// row. The upsert takes a row lock, so concurrent callers serialize and no
// number is ever issued twice.
type CheckNumberRepo struct {
	pool *pgxpool.Pool
}

func NewCheckNumberRepo(pool *pgxpool.Pool) *CheckNumberRepo {
	return &CheckNumberRepo{pool: pool}
}

func (r *CheckNumberRepo) NextCheckNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var next int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO check_sequences (org_id, next_number)
		VALUES ($1, 1001)
		ON CONFLICT (org_id) DO UPDATE SET next_number = check_sequences.next_number + 1
		RETURNING next_number
	`, orgID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next check number for org %s: %w", orgID, err)
	}
	return next, nil
}
