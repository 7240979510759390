package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// Compile-time interface check.
var _ port.OwnerRepository = (*OwnerRepo)(nil)

// OwnerRepo reads owner payment data for distribution runs.
type OwnerRepo struct {
	pool *pgxpool.Pool
}

func NewOwnerRepo(pool *pgxpool.Pool) *OwnerRepo {
	return &OwnerRepo{pool: pool}
}

const ownerColumns = `id, org_id, name, payment_method, minimum_reserve,
	bank_routing, bank_account, tin, has_w9, address`

func (r *OwnerRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (model.Owner, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ownerColumns+`
		FROM owners WHERE org_id = $1 AND id = $2
	`, orgID, id)
	owner, err := scanOwner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Owner{}, fmt.Errorf("owner %s not found", id)
		}
		return model.Owner{}, err
	}
	return owner, nil
}

func (r *OwnerRepo) ListByProperty(ctx context.Context, orgID, propertyID uuid.UUID) ([]model.Owner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.org_id, o.name, o.payment_method, o.minimum_reserve,
			o.bank_routing, o.bank_account, o.tin, o.has_w9, o.address
		FROM owners o
		JOIN property_owners po ON po.owner_id = o.id
		WHERE o.org_id = $1 AND po.property_id = $2
		ORDER BY o.name
	`, orgID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list owners for property %s: %w", propertyID, err)
	}
	defer rows.Close()

	var out []model.Owner
	for rows.Next() {
		owner, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}

// LiabilityBalance reads the owner's payable balance from the dimensional
// slice of the owner liability account. Liabilities carry credit balances,
// so the stored signed value is negated.
func (r *OwnerRepo) LiabilityBalance(ctx context.Context, orgID, ownerID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(b.balance), 0)
		FROM dimensional_balances b
		JOIN accounts a ON a.id = b.account_id
		WHERE b.org_id = $1 AND b.owner_id = $2 AND a.subtype = 'owner_liability'
	`, orgID, ownerID).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("owner liability balance for %s: %w", ownerID, err)
	}
	return balance.Neg(), nil
}

func scanOwner(row pgx.Row) (model.Owner, error) {
	var (
		o      model.Owner
		method string
	)
	err := row.Scan(
		&o.ID, &o.OrgID, &o.Name, &method, &o.MinimumReserve,
		&o.BankRouting, &o.BankAccount, &o.TIN, &o.HasW9, &o.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Owner{}, err
		}
		return model.Owner{}, fmt.Errorf("scan owner: %w", err)
	}
	o.Method = model.PaymentMethod(method)
	return o, nil
}
