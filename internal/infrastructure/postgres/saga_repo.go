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
var _ port.SagaRepository = (*SagaRepo)(nil)

// SagaRepo persists saga state and the append-only step log. Update is
// guarded by an optimistic version check so two workers racing on the same
// saga cannot both win.
type SagaRepo struct {
	pool *pgxpool.Pool
}

func NewSagaRepo(pool *pgxpool.Pool) *SagaRepo {
	return &SagaRepo{pool: pool}
}

func (r *SagaRepo) Save(ctx context.Context, saga *model.Saga) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sagas (
			id, org_id, name, version, current_step, status,
			steps_completed, compensation_steps, payload, result,
			error_message, error_step, retry_count, trace_id, initiated_by,
			created_at, updated_at, last_heartbeat, timeout_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		saga.ID, saga.OrgID, saga.Name, saga.Version, saga.CurrentStep, string(saga.Status),
		saga.StepsCompleted, saga.CompensationSteps, saga.Payload, saga.Result,
		saga.ErrorMessage, saga.ErrorStep, saga.RetryCount, saga.TraceID, saga.InitiatedBy,
		saga.CreatedAt, saga.UpdatedAt, saga.LastHeartbeat, saga.TimeoutAt,
	)
	if err != nil {
		return fmt.Errorf("insert saga: %w", err)
	}
	return nil
}

func (r *SagaRepo) Update(ctx context.Context, saga *model.Saga) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sagas SET
			version = version + 1,
			current_step = $3,
			status = $4,
			steps_completed = $5,
			compensation_steps = $6,
			result = $7,
			error_message = $8,
			error_step = $9,
			retry_count = $10,
			updated_at = $11,
			last_heartbeat = $12
		WHERE id = $1 AND version = $2
	`,
		saga.ID, saga.Version,
		saga.CurrentStep, string(saga.Status),
		saga.StepsCompleted, saga.CompensationSteps,
		saga.Result, saga.ErrorMessage, saga.ErrorStep, saga.RetryCount,
		saga.UpdatedAt, saga.LastHeartbeat,
	)
	if err != nil {
		return fmt.Errorf("update saga %s: %w", saga.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: saga %s version %d", model.ErrSagaVersionConflict, saga.ID, saga.Version)
	}
	saga.Version++
	return nil
}

func (r *SagaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Saga, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, org_id, name, version, current_step, status,
			steps_completed, compensation_steps, payload, result,
			error_message, error_step, retry_count, trace_id, initiated_by,
			created_at, updated_at, last_heartbeat, timeout_at
		FROM sagas WHERE id = $1
	`, id)
	saga, err := scanSaga(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", model.ErrSagaNotFound, id)
		}
		return nil, err
	}
	return saga, nil
}

func (r *SagaRepo) AppendStepLog(ctx context.Context, log model.SagaStepLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saga_step_logs (
			id, saga_id, step_name, step_type, status,
			input, output, error, started_at, completed_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			output = EXCLUDED.output,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at,
			duration_ms = EXCLUDED.duration_ms
	`,
		log.ID, log.SagaID, log.StepName, string(log.StepType), string(log.Status),
		log.Input, log.Output, log.Error, log.StartedAt, log.CompletedAt, log.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("append step log for saga %s: %w", log.SagaID, err)
	}
	return nil
}

func (r *SagaRepo) ListStepLogs(ctx context.Context, sagaID uuid.UUID) ([]model.SagaStepLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, saga_id, step_name, step_type, status,
			input, output, error, started_at, completed_at, duration_ms
		FROM saga_step_logs
		WHERE saga_id = $1
		ORDER BY started_at, id
	`, sagaID)
	if err != nil {
		return nil, fmt.Errorf("list step logs: %w", err)
	}
	defer rows.Close()

	var out []model.SagaStepLog
	for rows.Next() {
		var (
			l                    model.SagaStepLog
			stepType, stepStatus string
		)
		if err := rows.Scan(
			&l.ID, &l.SagaID, &l.StepName, &stepType, &stepStatus,
			&l.Input, &l.Output, &l.Error, &l.StartedAt, &l.CompletedAt, &l.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan step log: %w", err)
		}
		l.StepType = model.StepType(stepType)
		l.Status = model.StepStatus(stepStatus)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SagaRepo) ListStalled(ctx context.Context, olderThan time.Time, limit int) ([]*model.Saga, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, name, version, current_step, status,
			steps_completed, compensation_steps, payload, result,
			error_message, error_step, retry_count, trace_id, initiated_by,
			created_at, updated_at, last_heartbeat, timeout_at
		FROM sagas
		WHERE status NOT IN ('completed', 'compensated')
			AND (timeout_at < now() OR last_heartbeat < $1)
		ORDER BY last_heartbeat
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stalled sagas: %w", err)
	}
	defer rows.Close()

	var out []*model.Saga
	for rows.Next() {
		saga, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saga)
	}
	return out, rows.Err()
}

func scanSaga(row pgx.Row) (*model.Saga, error) {
	var (
		s      model.Saga
		status string
	)
	err := row.Scan(
		&s.ID, &s.OrgID, &s.Name, &s.Version, &s.CurrentStep, &status,
		&s.StepsCompleted, &s.CompensationSteps, &s.Payload, &s.Result,
		&s.ErrorMessage, &s.ErrorStep, &s.RetryCount, &s.TraceID, &s.InitiatedBy,
		&s.CreatedAt, &s.UpdatedAt, &s.LastHeartbeat, &s.TimeoutAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan saga: %w", err)
	}
	s.Status = model.SagaStatus(status)
	return &s, nil
}
