package valueobject

import (
	"fmt"
	"time"
)

// PeriodStatus tracks whether an accounting period is open or closed.
// Closing is terminal; reopening is not supported.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
)

// AccountingPeriod is a contiguous, non-overlapping date range. Periods are
// calendar-date ranges; time-of-day never participates in period logic.
type AccountingPeriod struct {
	start  time.Time
	end    time.Time
	status PeriodStatus
}

// NewAccountingPeriod creates an open period covering [start, end].
func NewAccountingPeriod(start, end time.Time) (AccountingPeriod, error) {
	start = DateOf(start)
	end = DateOf(end)
	if end.Before(start) {
		return AccountingPeriod{}, fmt.Errorf("period end %s before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return AccountingPeriod{start: start, end: end, status: PeriodStatusOpen}, nil
}

// MonthPeriod creates an open period covering one calendar month.
func MonthPeriod(year int, month time.Month) AccountingPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return AccountingPeriod{start: start, end: start.AddDate(0, 1, -1), status: PeriodStatusOpen}
}

// ReconstructPeriod recreates a period from persistence.
func ReconstructPeriod(start, end time.Time, status PeriodStatus) AccountingPeriod {
	return AccountingPeriod{start: DateOf(start), end: DateOf(end), status: status}
}

func (p AccountingPeriod) Start() time.Time      { return p.start }
func (p AccountingPeriod) End() time.Time        { return p.end }
func (p AccountingPeriod) Status() PeriodStatus  { return p.status }
func (p AccountingPeriod) IsClosed() bool        { return p.status == PeriodStatusClosed }
func (p AccountingPeriod) IsZero() bool          { return p.start.IsZero() }

// Contains reports whether the calendar date of t falls inside the period.
func (p AccountingPeriod) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.start) && !d.After(p.end)
}

// Close returns the period in closed status. Closing a closed period errors.
func (p AccountingPeriod) Close() (AccountingPeriod, error) {
	if p.status == PeriodStatusClosed {
		return AccountingPeriod{}, fmt.Errorf("period %s is already closed", p)
	}
	closed := p
	closed.status = PeriodStatusClosed
	return closed, nil
}

func (p AccountingPeriod) String() string {
	return fmt.Sprintf("%s..%s", p.start.Format(time.DateOnly), p.end.Format(time.DateOnly))
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
