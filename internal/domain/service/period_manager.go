package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// PeriodManager resolves effective dates against the period calendar and
// guards period closure. Posting into a closed period is never an error on
// the write path: the effective date is rewritten to today, so corrections
// to closed periods land in the current period.
type PeriodManager struct {
	periods port.PeriodRepository
	now     func() time.Time
}

func NewPeriodManager(periods port.PeriodRepository) *PeriodManager {
	return &PeriodManager{periods: periods, now: time.Now}
}

// ResolveEffectiveDate returns the requested date when its period is open,
// and today when the period has closed.
func (m *PeriodManager) ResolveEffectiveDate(ctx context.Context, orgID uuid.UUID, requested time.Time) (time.Time, error) {
	requested = valueobject.DateOf(requested)
	period, err := m.periods.FindContaining(ctx, orgID, requested)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve effective date: %w", err)
	}
	if period.Status() == valueobject.PeriodStatusClosed {
		return valueobject.DateOf(m.now().UTC()), nil
	}
	return requested, nil
}

// AssertOpen fails with ErrClosedPeriod when the date's period is closed.
// Used by callers that must not silently shift dates, such as the migration
// validator.
func (m *PeriodManager) AssertOpen(ctx context.Context, orgID uuid.UUID, date time.Time) error {
	period, err := m.periods.FindContaining(ctx, orgID, valueobject.DateOf(date))
	if err != nil {
		return err
	}
	if period.Status() == valueobject.PeriodStatusClosed {
		return fmt.Errorf("%w: %s falls in closed period %s", model.ErrClosedPeriod, valueobject.DateOf(date).Format("2006-01-02"), period)
	}
	return nil
}

// Find returns the period containing the given date.
func (m *PeriodManager) Find(ctx context.Context, orgID uuid.UUID, date time.Time) (valueobject.AccountingPeriod, error) {
	return m.periods.FindContaining(ctx, orgID, valueobject.DateOf(date))
}

// ClosePeriod marks the period containing the given date as closed. Closure
// is terminal; the period-close saga calls this only after the diagnostic
// gate passes.
func (m *PeriodManager) ClosePeriod(ctx context.Context, orgID uuid.UUID, date time.Time) (valueobject.AccountingPeriod, error) {
	period, err := m.periods.FindContaining(ctx, orgID, valueobject.DateOf(date))
	if err != nil {
		return valueobject.AccountingPeriod{}, err
	}
	closed, err := period.Close()
	if err != nil {
		return valueobject.AccountingPeriod{}, err
	}
	if err := m.periods.Close(ctx, orgID, closed); err != nil {
		return valueobject.AccountingPeriod{}, fmt.Errorf("close period %s: %w", period, err)
	}
	return closed, nil
}
