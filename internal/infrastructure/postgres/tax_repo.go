package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

// Compile-time interface check.
var _ port.TaxRepository = (*TaxRepo)(nil)

// TaxRepo aggregates the year's postings into per-recipient totals for
// information returns. Aggregation reads raw postings, never the
// materialized balances, because the tax year slices on effective date.
type TaxRepo struct {
	pool *pgxpool.Pool
}

func NewTaxRepo(pool *pgxpool.Pool) *TaxRepo {
	return &TaxRepo{pool: pool}
}

// VendorPaymentsForYear totals expense postings per vendor dimension for the
// calendar year. Expense debits are positive, so the raw sum is the amount
// paid.
func (r *TaxRepo) VendorPaymentsForYear(ctx context.Context, orgID uuid.UUID, year int) (map[uuid.UUID]decimal.Decimal, error) {
	return r.sumByDimension(ctx, `
		SELECT p.vendor_id, SUM(p.amount)
		FROM postings p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.org_id = $1 AND p.vendor_id IS NOT NULL
			AND a.account_type = 'expense'
			AND p.effective_date >= $2 AND p.effective_date < $3
		GROUP BY p.vendor_id
	`, orgID, year)
}

// OwnerIncomeForYear totals gross rents collected per owner dimension.
// Revenue credits are negative, so the sum is negated.
func (r *TaxRepo) OwnerIncomeForYear(ctx context.Context, orgID uuid.UUID, year int) (map[uuid.UUID]decimal.Decimal, error) {
	sums, err := r.sumByDimension(ctx, `
		SELECT p.owner_id, SUM(p.amount)
		FROM postings p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.org_id = $1 AND p.owner_id IS NOT NULL
			AND a.account_type = 'revenue'
			AND p.effective_date >= $2 AND p.effective_date < $3
		GROUP BY p.owner_id
	`, orgID, year)
	if err != nil {
		return nil, err
	}
	for id, sum := range sums {
		sums[id] = sum.Neg()
	}
	return sums, nil
}

func (r *TaxRepo) sumByDimension(ctx context.Context, query string, orgID uuid.UUID, year int) (map[uuid.UUID]decimal.Decimal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	rows, err := r.pool.Query(ctx, query, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate postings for year %d: %w", year, err)
	}
	defer rows.Close()

	out := map[uuid.UUID]decimal.Decimal{}
	for rows.Next() {
		var (
			id  uuid.UUID
			sum decimal.Decimal
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		out[id] = sum
	}
	return out, rows.Err()
}

func (r *TaxRepo) FindVendor(ctx context.Context, orgID, vendorID uuid.UUID) (model.Vendor, error) {
	var v model.Vendor
	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, name, tin, has_w9, address
		FROM vendors WHERE org_id = $1 AND id = $2
	`, orgID, vendorID).Scan(&v.ID, &v.OrgID, &v.Name, &v.TIN, &v.HasW9, &v.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Vendor{}, fmt.Errorf("vendor %s not found", vendorID)
		}
		return model.Vendor{}, fmt.Errorf("query vendor: %w", err)
	}
	return v, nil
}
