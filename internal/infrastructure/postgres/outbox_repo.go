package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/pkg/events"
	"github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

// Compile-time interface check.
var _ events.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo implements the outbox on PostgreSQL. Claiming uses
// FOR UPDATE SKIP LOCKED so concurrent workers never observe the same
// pending event.
type OutboxRepo struct {
	pool *pgxpool.Pool
}

func NewOutboxRepo(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// insertOutboxTx writes outbox rows inside a caller-owned transaction. The
// journal repository composes it into the entry write.
func insertOutboxTx(ctx context.Context, tx pgx.Tx, rows ...events.OutboxEvent) error {
	for _, ev := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO outbox (
				id, org_id, event_type, aggregate_type, aggregate_id,
				payload, status, attempts, max_attempts,
				trace_id, saga_id, created_at, scheduled_for
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			ev.ID, ev.OrgID, ev.EventType, ev.AggregateType, ev.AggregateID,
			ev.Payload, string(ev.Status), ev.Attempts, ev.MaxAttempts,
			ev.TraceID, ev.SagaID, ev.CreatedAt, ev.ScheduledFor,
		)
		if err != nil {
			return fmt.Errorf("insert outbox event %s: %w", ev.EventType, err)
		}
	}
	return nil
}

func (r *OutboxRepo) Emit(ctx context.Context, evts ...events.OutboxEvent) error {
	if len(evts) == 0 {
		return nil
	}
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return insertOutboxTx(ctx, tx, evts...)
	})
}

func (r *OutboxRepo) Claim(ctx context.Context, workerID string, batchSize int, lockDuration time.Duration) ([]events.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE outbox SET
			status = 'processing',
			locked_by = $1,
			locked_until = now() + make_interval(secs => $2)
		WHERE id IN (
			SELECT id FROM outbox
			WHERE (status = 'pending' AND scheduled_for <= now())
				OR (status = 'processing' AND locked_until < now())
			ORDER BY scheduled_for, created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, org_id, event_type, aggregate_type, aggregate_id,
			payload, status, attempts, max_attempts, last_error,
			trace_id, saga_id, created_at, scheduled_for,
			locked_until, locked_by, processed_at, reprocessed_as
	`, workerID, lockDuration.Seconds(), batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEvent
	for rows.Next() {
		ev, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET
			status = 'processed',
			processed_at = now(),
			locked_until = NULL,
			locked_by = ''
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event %s processed: %w", id, err)
	}
	return nil
}

// MarkFailed reschedules the event with exponential backoff, or dead-letters
// it once attempts reach max_attempts.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, handlerErr error) error {
	var attempts, maxAttempts int
	err := r.pool.QueryRow(ctx, `
		UPDATE outbox SET attempts = attempts + 1, last_error = $2
		WHERE id = $1
		RETURNING attempts, max_attempts
	`, id, handlerErr.Error()).Scan(&attempts, &maxAttempts)
	if err != nil {
		return fmt.Errorf("record outbox failure for %s: %w", id, err)
	}

	if attempts >= maxAttempts {
		_, err = r.pool.Exec(ctx, `
			UPDATE outbox SET status = 'dead_letter', locked_until = NULL, locked_by = ''
			WHERE id = $1
		`, id)
		if err != nil {
			return fmt.Errorf("dead-letter outbox event %s: %w", id, err)
		}
		return nil
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE outbox SET
			status = 'pending',
			scheduled_for = now() + make_interval(secs => $2),
			locked_until = NULL,
			locked_by = ''
		WHERE id = $1
	`, id, events.Backoff(attempts).Seconds())
	if err != nil {
		return fmt.Errorf("reschedule outbox event %s: %w", id, err)
	}
	return nil
}

// RetryDeadLetter rehydrates a dead-lettered event as a fresh pending copy
// and links the pair.
func (r *OutboxRepo) RetryDeadLetter(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	newID := uuid.New()
	err := postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO outbox (
				id, org_id, event_type, aggregate_type, aggregate_id,
				payload, status, attempts, max_attempts,
				trace_id, saga_id, created_at, scheduled_for
			)
			SELECT $2, org_id, event_type, aggregate_type, aggregate_id,
				payload, 'pending', 0, max_attempts,
				trace_id, saga_id, now(), now()
			FROM outbox WHERE id = $1 AND status = 'dead_letter'
		`, id, newID)
		if err != nil {
			return fmt.Errorf("rehydrate dead letter %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("outbox event %s is not dead-lettered", id)
		}
		_, err = tx.Exec(ctx, `UPDATE outbox SET reprocessed_as = $2 WHERE id = $1`, id, newID)
		if err != nil {
			return fmt.Errorf("link dead letter %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return newID, nil
}

func (r *OutboxRepo) ListDeadLetter(ctx context.Context, orgID uuid.UUID, limit int) ([]events.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, event_type, aggregate_type, aggregate_id,
			payload, status, attempts, max_attempts, last_error,
			trace_id, saga_id, created_at, scheduled_for,
			locked_until, locked_by, processed_at, reprocessed_as
		FROM outbox
		WHERE org_id = $1 AND status = 'dead_letter' AND reprocessed_as IS NULL
		ORDER BY created_at
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEvent
	for rows.Next() {
		ev, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanOutboxEvent(row pgx.Rows) (events.OutboxEvent, error) {
	var (
		ev        events.OutboxEvent
		status    string
		lastError *string
		lockedBy  *string
	)
	err := row.Scan(
		&ev.ID, &ev.OrgID, &ev.EventType, &ev.AggregateType, &ev.AggregateID,
		&ev.Payload, &status, &ev.Attempts, &ev.MaxAttempts, &lastError,
		&ev.TraceID, &ev.SagaID, &ev.CreatedAt, &ev.ScheduledFor,
		&ev.LockedUntil, &lockedBy, &ev.ProcessedAt, &ev.ReprocessedAs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.OutboxEvent{}, err
		}
		return events.OutboxEvent{}, fmt.Errorf("scan outbox event: %w", err)
	}
	ev.Status = events.OutboxStatus(status)
	if lastError != nil {
		ev.LastError = *lastError
	}
	if lockedBy != nil {
		ev.LockedBy = *lockedBy
	}
	return ev, nil
}
