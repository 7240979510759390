package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// Compile-time interface check.
var _ port.PeriodRepository = (*PeriodRepo)(nil)

// PeriodRepo persists accounting periods keyed by (org_id, period_start).
type PeriodRepo struct {
	pool *pgxpool.Pool
}

func NewPeriodRepo(pool *pgxpool.Pool) *PeriodRepo {
	return &PeriodRepo{pool: pool}
}

func (r *PeriodRepo) Save(ctx context.Context, orgID uuid.UUID, period valueobject.AccountingPeriod) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounting_periods (org_id, period_start, period_end, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end,
			status = EXCLUDED.status
	`, orgID, period.Start(), period.End(), string(period.Status()))
	if err != nil {
		return fmt.Errorf("save period %s: %w", period, err)
	}
	return nil
}

// FindContaining returns the period covering the date. A date with no
// defined period resolves to an open implicit month so posting is never
// blocked by missing period rows.
func (r *PeriodRepo) FindContaining(ctx context.Context, orgID uuid.UUID, date time.Time) (valueobject.AccountingPeriod, error) {
	d := valueobject.DateOf(date)
	var (
		start, end time.Time
		status     string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT period_start, period_end, status
		FROM accounting_periods
		WHERE org_id = $1 AND period_start <= $2 AND period_end >= $2
	`, orgID, d).Scan(&start, &end, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valueobject.MonthPeriod(d.Year(), d.Month()), nil
		}
		return valueobject.AccountingPeriod{}, fmt.Errorf("query period for %s: %w", d.Format(time.DateOnly), err)
	}
	return valueobject.ReconstructPeriod(start, end, valueobject.PeriodStatus(status)), nil
}

func (r *PeriodRepo) Close(ctx context.Context, orgID uuid.UUID, period valueobject.AccountingPeriod) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounting_periods (org_id, period_start, period_end, status)
		VALUES ($1, $2, $3, 'closed')
		ON CONFLICT (org_id, period_start) DO UPDATE SET status = 'closed'
	`, orgID, period.Start(), period.End())
	if err != nil {
		return fmt.Errorf("close period %s: %w", period, err)
	}
	return nil
}
