package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memSagas struct {
	sagas map[uuid.UUID]*model.Saga
	logs  []model.SagaStepLog
}

var _ port.SagaRepository = (*memSagas)(nil)

func newMemSagas() *memSagas {
	return &memSagas{sagas: map[uuid.UUID]*model.Saga{}}
}

func (m *memSagas) Save(_ context.Context, s *model.Saga) error {
	m.sagas[s.ID] = s
	return nil
}

func (m *memSagas) Update(_ context.Context, s *model.Saga) error {
	if _, ok := m.sagas[s.ID]; !ok {
		return fmt.Errorf("saga %s not found", s.ID)
	}
	m.sagas[s.ID] = s
	return nil
}

func (m *memSagas) FindByID(_ context.Context, id uuid.UUID) (*model.Saga, error) {
	s, ok := m.sagas[id]
	if !ok {
		return nil, fmt.Errorf("saga %s not found", id)
	}
	return s, nil
}

func (m *memSagas) AppendStepLog(_ context.Context, log model.SagaStepLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *memSagas) ListStepLogs(_ context.Context, sagaID uuid.UUID) ([]model.SagaStepLog, error) {
	var out []model.SagaStepLog
	for _, l := range m.logs {
		if l.SagaID == sagaID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memSagas) ListStalled(_ context.Context, olderThan time.Time, limit int) ([]*model.Saga, error) {
	var out []*model.Saga
	for _, s := range m.sagas {
		if s.Status.Terminal() {
			continue
		}
		if s.LastHeartbeat.Before(olderThan) || s.TimedOut(time.Now().UTC()) {
			out = append(out, s)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memOutbox struct {
	emitted []events.OutboxEvent
}

var _ events.OutboxRepository = (*memOutbox)(nil)

func (m *memOutbox) Emit(_ context.Context, evts ...events.OutboxEvent) error {
	m.emitted = append(m.emitted, evts...)
	return nil
}

func (m *memOutbox) Claim(context.Context, string, int, time.Duration) ([]events.OutboxEvent, error) {
	return nil, nil
}

func (m *memOutbox) MarkProcessed(context.Context, uuid.UUID) error { return nil }

func (m *memOutbox) MarkFailed(context.Context, uuid.UUID, error) error { return nil }

func (m *memOutbox) RetryDeadLetter(context.Context, uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (m *memOutbox) ListDeadLetter(context.Context, uuid.UUID, int) ([]events.OutboxEvent, error) {
	return nil, nil
}

func (m *memOutbox) types() []string {
	var out []string
	for _, ev := range m.emitted {
		out = append(out, ev.EventType)
	}
	return out
}

// stubExecutor scripts step outcomes per step name.
type stubExecutor struct {
	name        string
	outcomes    map[string]service.StepOutcome
	errs        map[string]error
	compensated []string
}

var _ service.SagaExecutor = (*stubExecutor)(nil)

func (s *stubExecutor) Name() string { return s.name }

func (s *stubExecutor) ExecuteStep(_ context.Context, saga *model.Saga) (service.StepOutcome, error) {
	if err, ok := s.errs[saga.CurrentStep]; ok {
		return service.StepOutcome{}, err
	}
	out, ok := s.outcomes[saga.CurrentStep]
	if !ok {
		return service.StepOutcome{}, fmt.Errorf("unscripted step %q", saga.CurrentStep)
	}
	return out, nil
}

func (s *stubExecutor) CompensateStep(_ context.Context, _ *model.Saga, step string) ([]events.DomainEvent, error) {
	s.compensated = append(s.compensated, step)
	return nil, nil
}
