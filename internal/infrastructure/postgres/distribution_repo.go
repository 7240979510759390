package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

// Compile-time interface check.
var _ port.DistributionRepository = (*DistributionRepo)(nil)

// DistributionRepo persists per-owner distribution records. Records belong
// to a saga and are deleted wholesale when the saga compensates.
type DistributionRepo struct {
	pool *pgxpool.Pool
}

func NewDistributionRepo(pool *pgxpool.Pool) *DistributionRepo {
	return &DistributionRepo{pool: pool}
}

func (r *DistributionRepo) SaveAll(ctx context.Context, records []model.Distribution) error {
	if len(records) == 0 {
		return nil
	}
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for _, rec := range records {
			_, err := tx.Exec(ctx, `
				INSERT INTO distributions (
					id, org_id, saga_id, owner_id, amount, method, status,
					journal_id, nacha_file_id, created_at, processed_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`,
				rec.ID, rec.OrgID, rec.SagaID, rec.OwnerID, rec.Amount,
				string(rec.Method), string(rec.Status),
				rec.JournalID, rec.NachaFileID, rec.CreatedAt, rec.ProcessedAt,
			)
			if err != nil {
				return fmt.Errorf("insert distribution for owner %s: %w", rec.OwnerID, err)
			}
		}
		return nil
	})
}

func (r *DistributionRepo) Update(ctx context.Context, record model.Distribution) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE distributions SET
			status = $2, journal_id = $3, nacha_file_id = $4, processed_at = $5
		WHERE id = $1
	`, record.ID, string(record.Status), record.JournalID, record.NachaFileID, record.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update distribution %s: %w", record.ID, err)
	}
	return nil
}

func (r *DistributionRepo) ListBySaga(ctx context.Context, sagaID uuid.UUID) ([]model.Distribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, saga_id, owner_id, amount, method, status,
			journal_id, nacha_file_id, created_at, processed_at
		FROM distributions
		WHERE saga_id = $1
		ORDER BY created_at, id
	`, sagaID)
	if err != nil {
		return nil, fmt.Errorf("list distributions for saga %s: %w", sagaID, err)
	}
	defer rows.Close()

	var out []model.Distribution
	for rows.Next() {
		var (
			rec            model.Distribution
			method, status string
		)
		if err := rows.Scan(
			&rec.ID, &rec.OrgID, &rec.SagaID, &rec.OwnerID, &rec.Amount, &method, &status,
			&rec.JournalID, &rec.NachaFileID, &rec.CreatedAt, &rec.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		rec.Method = model.PaymentMethod(method)
		rec.Status = model.DistributionStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *DistributionRepo) MarkProcessed(ctx context.Context, sagaID uuid.UUID, processedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE distributions SET status = 'processed', processed_at = $2
		WHERE saga_id = $1 AND status = 'pending'
	`, sagaID, processedAt)
	if err != nil {
		return fmt.Errorf("mark distributions processed for saga %s: %w", sagaID, err)
	}
	return nil
}

func (r *DistributionRepo) DeleteBySaga(ctx context.Context, sagaID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM distributions WHERE saga_id = $1 AND status = 'pending'
	`, sagaID)
	if err != nil {
		return fmt.Errorf("delete distributions for saga %s: %w", sagaID, err)
	}
	return nil
}
