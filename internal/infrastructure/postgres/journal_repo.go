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
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
	"github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

// Compile-time interface check.
var _ port.JournalRepository = (*JournalRepo)(nil)

// JournalRepo implements JournalRepository using PostgreSQL. CreateEntry is
// the co-transactional write: entry, postings, balance upserts, and outbox
// rows commit together or not at all.
type JournalRepo struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

func NewJournalRepo(pool *pgxpool.Pool, maxAttempts int) *JournalRepo {
	return &JournalRepo{pool: pool, maxAttempts: maxAttempts}
}

func (r *JournalRepo) CreateEntry(ctx context.Context, entry model.JournalEntry, evts ...events.DomainEvent) error {
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return r.insertEntryTx(ctx, tx, entry, evts...)
	})
}

// CreateReversal commits the reversal entry and the back-link on the
// original as one transaction. The IS NULL guard makes a lost race or a
// replayed reversal roll back the whole write, so an entry can never end up
// reversed twice.
func (r *JournalRepo) CreateReversal(ctx context.Context, reversal model.JournalEntry, evts ...events.DomainEvent) error {
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.insertEntryTx(ctx, tx, reversal, evts...); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE journal_entries
			SET reversed_by_entry_id = $3
			WHERE org_id = $1 AND id = $2 AND reversed_by_entry_id IS NULL
		`, reversal.OrgID(), reversal.ReversesEntryID(), reversal.ID())
		if err != nil {
			return fmt.Errorf("link reversal: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: entry %s", model.ErrAlreadyReversed, reversal.ReversesEntryID())
		}
		return nil
	})
}

func (r *JournalRepo) insertEntryTx(ctx context.Context, tx pgx.Tx, entry model.JournalEntry, evts ...events.DomainEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO journal_entries (
			id, org_id, entry_date, effective_date,
			description, memo, source_type, source_id,
			is_reversal, reverses_entry_id,
			idempotency_key, trace_id, created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		entry.ID(), entry.OrgID(), entry.EntryDate(), entry.EffectiveDate(),
		entry.Description(), entry.Memo(), string(entry.SourceType()), entry.SourceID(),
		entry.IsReversal(), entry.ReversesEntryID(),
		entry.IdempotencyKey(), entry.TraceID(), entry.CreatedAt(), entry.CreatedBy(),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "journal_entries_org_idem_key") {
			return fmt.Errorf("%w: key %q", model.ErrDuplicateIdempotencyKey, entry.IdempotencyKey())
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}

	for i, p := range entry.Postings() {
		dims := p.Dimensions()
		_, err := tx.Exec(ctx, `
			INSERT INTO postings (
				id, entry_id, org_id, account_id, amount, line_no,
				property_id, unit_id, tenant_id, vendor_id, owner_id,
				line_description, effective_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			uuid.New(), entry.ID(), entry.OrgID(), p.AccountID(), p.Amount(), i,
			dims.PropertyID, dims.UnitID, dims.TenantID, dims.VendorID, dims.OwnerID,
			p.LineDescription(), entry.EffectiveDate(),
		)
		if err != nil {
			return fmt.Errorf("insert posting %d: %w", i, err)
		}

		if err := r.applyBalanceDeltas(ctx, tx, entry, p); err != nil {
			return err
		}
	}

	rows := make([]events.OutboxEvent, 0, len(evts))
	for _, ev := range evts {
		ob := events.NewOutboxEvent(entry.OrgID(), ev, r.maxAttempts)
		if scoped, ok := ev.(events.SagaScoped); ok {
			sagaID := scoped.SagaID()
			ob.SagaID = &sagaID
		}
		rows = append(rows, ob)
	}
	return insertOutboxTx(ctx, tx, rows...)
}

// applyBalanceDeltas upserts the materialized balance and, when the posting
// carries tags, the dimensional slice.
func (r *JournalRepo) applyBalanceDeltas(ctx context.Context, tx pgx.Tx, entry model.JournalEntry, p model.Posting) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO account_balances (org_id, account_id, balance, last_entry_id, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (org_id, account_id) DO UPDATE SET
			balance = account_balances.balance + EXCLUDED.balance,
			last_entry_id = EXCLUDED.last_entry_id,
			updated_at = now()
	`, entry.OrgID(), p.AccountID(), p.Amount(), entry.ID())
	if err != nil {
		return fmt.Errorf("upsert balance for account %s: %w", p.AccountID(), err)
	}

	dims := p.Dimensions()
	if dims.IsZero() {
		return nil
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO dimensional_balances (
			org_id, account_id, dim_key,
			property_id, unit_id, tenant_id, vendor_id, owner_id,
			balance, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (org_id, account_id, dim_key) DO UPDATE SET
			balance = dimensional_balances.balance + EXCLUDED.balance,
			updated_at = now()
	`,
		entry.OrgID(), p.AccountID(), dims.Key(),
		dims.PropertyID, dims.UnitID, dims.TenantID, dims.VendorID, dims.OwnerID,
		p.Amount(),
	)
	if err != nil {
		return fmt.Errorf("upsert dimensional balance for account %s: %w", p.AccountID(), err)
	}
	return nil
}

func (r *JournalRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (model.JournalEntry, error) {
	return r.findEntry(ctx, `WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *JournalRepo) FindByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (model.JournalEntry, error) {
	return r.findEntry(ctx, `WHERE org_id = $1 AND idempotency_key = $2`, orgID, key)
}

func (r *JournalRepo) findEntry(ctx context.Context, where string, args ...any) (model.JournalEntry, error) {
	var (
		id, orgID                uuid.UUID
		entryDate, effectiveDate time.Time
		description, memo        string
		sourceType, sourceID     string
		isReversal               bool
		reversesID, reversedByID *uuid.UUID
		idempotencyKey, traceID  string
		createdAt                time.Time
		createdBy                string
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, entry_date, effective_date,
			description, memo, source_type, source_id,
			is_reversal, reverses_entry_id, reversed_by_entry_id,
			idempotency_key, trace_id, created_at, created_by
		FROM journal_entries `+where,
		args...,
	).Scan(
		&id, &orgID, &entryDate, &effectiveDate,
		&description, &memo, &sourceType, &sourceID,
		&isReversal, &reversesID, &reversedByID,
		&idempotencyKey, &traceID, &createdAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.JournalEntry{}, model.ErrEntryNotFound
		}
		return model.JournalEntry{}, fmt.Errorf("query journal entry: %w", err)
	}

	postings, err := r.loadPostings(ctx, id)
	if err != nil {
		return model.JournalEntry{}, err
	}

	return model.ReconstructJournalEntry(
		id, orgID, entryDate, effectiveDate,
		description, memo,
		model.SourceType(sourceType), sourceID,
		isReversal, reversesID, reversedByID,
		idempotencyKey, traceID, postings, createdAt, createdBy,
	), nil
}

func (r *JournalRepo) loadPostings(ctx context.Context, entryID uuid.UUID) ([]model.Posting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, amount,
			property_id, unit_id, tenant_id, vendor_id, owner_id,
			line_description
		FROM postings WHERE entry_id = $1
		ORDER BY line_no
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	var postings []model.Posting
	for rows.Next() {
		var (
			accountID uuid.UUID
			amount    decimal.Decimal
			dims      valueobject.Dimensions
			lineDesc  string
		)
		if err := rows.Scan(&accountID, &amount,
			&dims.PropertyID, &dims.UnitID, &dims.TenantID, &dims.VendorID, &dims.OwnerID,
			&lineDesc); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		postings = append(postings, model.ReconstructPosting(accountID, amount, dims, lineDesc))
	}
	return postings, rows.Err()
}

func (r *JournalRepo) ListByAccount(ctx context.Context, orgID, accountID uuid.UUID, f port.ActivityFilter) ([]model.JournalEntry, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT e.id)
		FROM journal_entries e
		JOIN postings p ON p.entry_id = e.id
		WHERE e.org_id = $1 AND p.account_id = $2
			AND e.effective_date >= $3 AND e.effective_date <= $4
	`, orgID, accountID, valueobject.DateOf(f.From), valueobject.DateOf(f.To)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT e.id, e.effective_date, e.created_at
		FROM journal_entries e
		JOIN postings p ON p.entry_id = e.id
		WHERE e.org_id = $1 AND p.account_id = $2
			AND e.effective_date >= $3 AND e.effective_date <= $4
		ORDER BY e.effective_date, e.created_at, e.id
		LIMIT $5 OFFSET $6
	`, orgID, accountID, valueobject.DateOf(f.From), valueobject.DateOf(f.To), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var (
			id      uuid.UUID
			eff, ca time.Time
		)
		if err := rows.Scan(&id, &eff, &ca); err != nil {
			return nil, 0, fmt.Errorf("scan entry id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var entries []model.JournalEntry
	for _, id := range ids {
		entry, err := r.FindByID(ctx, orgID, id)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

func (r *JournalRepo) SumPostingsSince(ctx context.Context, orgID, accountID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM postings
		WHERE org_id = $1 AND account_id = $2 AND effective_date > $3
	`, orgID, accountID, valueobject.DateOf(asOf)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum postings since %s: %w", asOf.Format("2006-01-02"), err)
	}
	return sum, nil
}

