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
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

// Compile-time interface check.
var _ port.AccountRepository = (*AccountRepo)(nil)

// AccountRepo persists the chart of accounts.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Save(ctx context.Context, account model.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, org_id, code, name, account_type, normal_balance, subtype, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		account.ID(), account.OrgID(), account.Code().String(), account.Name(),
		string(account.Type()), string(account.NormalBalance()), string(account.Subtype()),
		account.CreatedAt(),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "accounts_org_code_key") {
			return fmt.Errorf("account code %s already exists: %w", account.Code(), err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (model.Account, error) {
	return r.findAccount(ctx, `WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *AccountRepo) FindByCode(ctx context.Context, orgID uuid.UUID, code valueobject.AccountCode) (model.Account, error) {
	return r.findAccount(ctx, `WHERE org_id = $1 AND code = $2`, orgID, code.String())
}

// FindBySubtype locates the designated account for a role. Exactly one
// account per org carries each trust subtype; the migration enforces it with
// a partial unique index.
func (r *AccountRepo) FindBySubtype(ctx context.Context, orgID uuid.UUID, subtype valueobject.AccountSubtype) (model.Account, error) {
	return r.findAccount(ctx, `WHERE org_id = $1 AND subtype = $2`, orgID, string(subtype))
}

func (r *AccountRepo) findAccount(ctx context.Context, where string, args ...any) (model.Account, error) {
	var (
		id, orgID                uuid.UUID
		code, name               string
		accountType, normal, sub string
		createdAt                time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, code, name, account_type, normal_balance, subtype, created_at
		FROM accounts `+where,
		args...,
	).Scan(&id, &orgID, &code, &name, &accountType, &normal, &sub, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("query account: %w", err)
	}

	ac, err := valueobject.NewAccountCode(code)
	if err != nil {
		return model.Account{}, fmt.Errorf("stored account code %q: %w", code, err)
	}
	return model.ReconstructAccount(
		id, orgID, ac, name,
		valueobject.AccountType(accountType),
		valueobject.NormalBalance(normal),
		valueobject.AccountSubtype(sub),
		createdAt,
	), nil
}

func (r *AccountRepo) ListActive(ctx context.Context, orgID uuid.UUID) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, code, name, account_type, normal_balance, subtype, created_at
		FROM accounts
		WHERE org_id = $1
		ORDER BY code
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var (
			id, oid                  uuid.UUID
			code, name               string
			accountType, normal, sub string
			createdAt                time.Time
		)
		if err := rows.Scan(&id, &oid, &code, &name, &accountType, &normal, &sub, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		ac, err := valueobject.NewAccountCode(code)
		if err != nil {
			return nil, fmt.Errorf("stored account code %q: %w", code, err)
		}
		out = append(out, model.ReconstructAccount(
			id, oid, ac, name,
			valueobject.AccountType(accountType),
			valueobject.NormalBalance(normal),
			valueobject.AccountSubtype(sub),
			createdAt,
		))
	}
	return out, rows.Err()
}
