package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// Compile-time interface check.
var _ port.NachaFileRepository = (*NachaRepo)(nil)

// NachaRepo persists generated ACH files through submission.
type NachaRepo struct {
	pool *pgxpool.Pool
}

func NewNachaRepo(pool *pgxpool.Pool) *NachaRepo {
	return &NachaRepo{pool: pool}
}

func (r *NachaRepo) Save(ctx context.Context, file *model.NachaFile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO nacha_files (
			id, org_id, saga_id, contents, total_cents, entry_count,
			status, created_at, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		file.ID, file.OrgID, file.SagaID, file.Contents, file.TotalCents, file.EntryCount,
		string(file.Status), file.CreatedAt, file.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert nacha file: %w", err)
	}
	return nil
}

func (r *NachaRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.NachaFile, error) {
	return r.findFile(ctx, `WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *NachaRepo) FindBySaga(ctx context.Context, sagaID uuid.UUID) (*model.NachaFile, error) {
	return r.findFile(ctx, `WHERE saga_id = $1`, sagaID)
}

func (r *NachaRepo) findFile(ctx context.Context, where string, args ...any) (*model.NachaFile, error) {
	var (
		f      model.NachaFile
		status string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, saga_id, contents, total_cents, entry_count,
			status, created_at, submitted_at
		FROM nacha_files `+where,
		args...,
	).Scan(
		&f.ID, &f.OrgID, &f.SagaID, &f.Contents, &f.TotalCents, &f.EntryCount,
		&status, &f.CreatedAt, &f.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNachaFileNotFound
		}
		return nil, fmt.Errorf("query nacha file: %w", err)
	}
	f.Status = model.NachaFileStatus(status)
	return &f, nil
}

func (r *NachaRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NachaFileStatus, submittedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE nacha_files SET status = $2, submitted_at = $3 WHERE id = $1
	`, id, string(status), submittedAt)
	if err != nil {
		return fmt.Errorf("update nacha file %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", model.ErrNachaFileNotFound, id)
	}
	return nil
}
