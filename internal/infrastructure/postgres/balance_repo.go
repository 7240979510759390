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
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// Compile-time interface checks.
var (
	_ port.BalanceRepository   = (*BalanceRepo)(nil)
	_ port.IntegrityRepository = (*BalanceRepo)(nil)
)

// BalanceRepo reads the materialized balance tables and serves the raw
// aggregate queries behind the diagnostic checks.
type BalanceRepo struct {
	pool *pgxpool.Pool
}

func NewBalanceRepo(pool *pgxpool.Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

func (r *BalanceRepo) GetBalance(ctx context.Context, orgID, accountID uuid.UUID) (model.AccountBalance, error) {
	b := model.AccountBalance{OrgID: orgID, AccountID: accountID}
	err := r.pool.QueryRow(ctx, `
		SELECT balance, last_entry_id, updated_at
		FROM account_balances
		WHERE org_id = $1 AND account_id = $2
	`, orgID, accountID).Scan(&b.Balance, &b.LastEntryID, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// An account that has never been posted to has a zero balance.
			b.Balance = decimal.Zero
			return b, nil
		}
		return model.AccountBalance{}, fmt.Errorf("query balance: %w", err)
	}
	return b, nil
}

func (r *BalanceRepo) ListBalances(ctx context.Context, orgID uuid.UUID) ([]model.AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, balance, last_entry_id, updated_at
		FROM account_balances
		WHERE org_id = $1
		ORDER BY account_id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []model.AccountBalance
	for rows.Next() {
		b := model.AccountBalance{OrgID: orgID}
		if err := rows.Scan(&b.AccountID, &b.Balance, &b.LastEntryID, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BalanceRepo) GetDimensionalBalances(ctx context.Context, orgID, accountID uuid.UUID, filter valueobject.Dimensions) ([]model.DimensionalBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT property_id, unit_id, tenant_id, vendor_id, owner_id, balance, updated_at
		FROM dimensional_balances
		WHERE org_id = $1 AND account_id = $2
			AND ($3::uuid IS NULL OR property_id = $3)
			AND ($4::uuid IS NULL OR unit_id = $4)
			AND ($5::uuid IS NULL OR tenant_id = $5)
			AND ($6::uuid IS NULL OR vendor_id = $6)
			AND ($7::uuid IS NULL OR owner_id = $7)
		ORDER BY dim_key
	`, orgID, accountID, filter.PropertyID, filter.UnitID, filter.TenantID, filter.VendorID, filter.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("query dimensional balances: %w", err)
	}
	defer rows.Close()

	var out []model.DimensionalBalance
	for rows.Next() {
		b := model.DimensionalBalance{OrgID: orgID, AccountID: accountID}
		if err := rows.Scan(
			&b.Dimensions.PropertyID, &b.Dimensions.UnitID, &b.Dimensions.TenantID,
			&b.Dimensions.VendorID, &b.Dimensions.OwnerID,
			&b.Balance, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dimensional balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BalanceRepo) TrialBalance(ctx context.Context, orgID uuid.UUID) ([]model.TrialBalanceLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.code, a.name,
			CASE WHEN b.balance > 0 THEN b.balance ELSE 0 END,
			CASE WHEN b.balance < 0 THEN -b.balance ELSE 0 END
		FROM account_balances b
		JOIN accounts a ON a.id = b.account_id
		WHERE b.org_id = $1 AND b.balance <> 0
		ORDER BY a.code
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query trial balance: %w", err)
	}
	defer rows.Close()

	var out []model.TrialBalanceLine
	for rows.Next() {
		var (
			line model.TrialBalanceLine
			code string
		)
		if err := rows.Scan(&line.AccountID, &code, &line.AccountName, &line.Debit, &line.Credit); err != nil {
			return nil, fmt.Errorf("scan trial balance line: %w", err)
		}
		ac, err := valueobject.NewAccountCode(code)
		if err != nil {
			return nil, fmt.Errorf("trial balance account code %q: %w", code, err)
		}
		line.AccountCode = ac
		out = append(out, line)
	}
	return out, rows.Err()
}

func (r *BalanceRepo) SumPostingsByAccount(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, SUM(amount)
		FROM postings
		WHERE org_id = $1
		GROUP BY account_id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("sum postings by account: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]decimal.Decimal{}
	for rows.Next() {
		var (
			accountID uuid.UUID
			sum       decimal.Decimal
		)
		if err := rows.Scan(&accountID, &sum); err != nil {
			return nil, fmt.Errorf("scan posting sum: %w", err)
		}
		out[accountID] = sum
	}
	return out, rows.Err()
}

func (r *BalanceRepo) SumBalanceBySubtype(ctx context.Context, orgID uuid.UUID, subtype valueobject.AccountSubtype) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(b.balance), 0)
		FROM account_balances b
		JOIN accounts a ON a.id = b.account_id
		WHERE b.org_id = $1 AND a.subtype = $2
	`, orgID, string(subtype)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balances for subtype %s: %w", subtype, err)
	}
	return sum, nil
}

func (r *BalanceRepo) OrphanCounts(ctx context.Context, orgID uuid.UUID) (int, int, error) {
	var orphanPostings, emptyEntries int
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM postings p
				WHERE p.org_id = $1
				AND NOT EXISTS (SELECT 1 FROM journal_entries e WHERE e.id = p.entry_id)),
			(SELECT COUNT(*) FROM journal_entries e
				WHERE e.org_id = $1
				AND NOT EXISTS (SELECT 1 FROM postings p WHERE p.entry_id = e.id))
	`, orgID).Scan(&orphanPostings, &emptyEntries)
	if err != nil {
		return 0, 0, fmt.Errorf("count orphans: %w", err)
	}
	return orphanPostings, emptyEntries, nil
}
