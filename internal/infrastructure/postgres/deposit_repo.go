package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// Compile-time interface check.
var _ port.DepositRepository = (*DepositRepo)(nil)

// DepositRepo persists security deposit lifecycle records.
type DepositRepo struct {
	pool *pgxpool.Pool
}

func NewDepositRepo(pool *pgxpool.Pool) *DepositRepo {
	return &DepositRepo{pool: pool}
}

func (r *DepositRepo) Save(ctx context.Context, deposit *model.SecurityDeposit) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO security_deposits (
			id, org_id, property_id, tenant_id, amount, state_code, status,
			collected_at, move_out_date, interest_accrued, returned_amount,
			return_deadline, check_number, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		deposit.ID, deposit.OrgID, deposit.PropertyID, deposit.TenantID,
		deposit.Amount, deposit.StateCode, string(deposit.Status),
		deposit.CollectedAt, deposit.MoveOutDate, deposit.InterestAccrued, deposit.ReturnedAmount,
		deposit.ReturnDeadline, deposit.CheckNumber, deposit.CreatedAt, deposit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert security deposit: %w", err)
	}
	return nil
}

func (r *DepositRepo) Update(ctx context.Context, deposit *model.SecurityDeposit) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE security_deposits SET
			status = $2,
			move_out_date = $3,
			interest_accrued = $4,
			returned_amount = $5,
			return_deadline = $6,
			check_number = $7,
			updated_at = $8
		WHERE id = $1
	`,
		deposit.ID, string(deposit.Status),
		deposit.MoveOutDate, deposit.InterestAccrued, deposit.ReturnedAmount,
		deposit.ReturnDeadline, deposit.CheckNumber, deposit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update security deposit %s: %w", deposit.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", model.ErrDepositNotFound, deposit.ID)
	}
	return nil
}

func (r *DepositRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.SecurityDeposit, error) {
	return r.findDeposit(ctx, `WHERE org_id = $1 AND id = $2`, orgID, id)
}

// FindHeldByTenant returns the tenant's currently held deposit. Only one
// deposit per tenant can be in held status at a time.
func (r *DepositRepo) FindHeldByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (*model.SecurityDeposit, error) {
	return r.findDeposit(ctx, `WHERE org_id = $1 AND tenant_id = $2 AND status = 'held'`, orgID, tenantID)
}

func (r *DepositRepo) findDeposit(ctx context.Context, where string, args ...any) (*model.SecurityDeposit, error) {
	var (
		d      model.SecurityDeposit
		status string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, property_id, tenant_id, amount, state_code, status,
			collected_at, move_out_date, interest_accrued, returned_amount,
			return_deadline, check_number, created_at, updated_at
		FROM security_deposits `+where,
		args...,
	).Scan(
		&d.ID, &d.OrgID, &d.PropertyID, &d.TenantID, &d.Amount, &d.StateCode, &status,
		&d.CollectedAt, &d.MoveOutDate, &d.InterestAccrued, &d.ReturnedAmount,
		&d.ReturnDeadline, &d.CheckNumber, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDepositNotFound
		}
		return nil, fmt.Errorf("query security deposit: %w", err)
	}
	d.Status = model.DepositStatus(status)
	return &d, nil
}
