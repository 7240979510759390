package worker_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/application/worker"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
)

type memSagas struct {
	sagas map[uuid.UUID]*model.Saga
}

var _ port.SagaRepository = (*memSagas)(nil)

func newMemSagas() *memSagas { return &memSagas{sagas: map[uuid.UUID]*model.Saga{}} }

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

func (m *memSagas) AppendStepLog(context.Context, model.SagaStepLog) error { return nil }

func (m *memSagas) ListStepLogs(context.Context, uuid.UUID) ([]model.SagaStepLog, error) {
	return nil, nil
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

func newStalledSaga(t *testing.T, sagas *memSagas, steps []string) *model.Saga {
	t.Helper()
	s, err := model.NewSaga(uuid.New(), "TEST_FLOW", "FIRST", nil, "trace-reap", "tester", time.Minute)
	require.NoError(t, err)
	for _, next := range steps {
		require.NoError(t, s.Advance(next))
	}
	// Push the saga past its heartbeat TTL and deadline.
	s.LastHeartbeat = time.Now().UTC().Add(-time.Hour)
	past := time.Now().UTC().Add(-30 * time.Minute)
	s.TimeoutAt = &past
	require.NoError(t, sagas.Save(context.Background(), s))
	return s
}

func newReaper(sagas *memSagas, outbox *memOutbox) *worker.SagaReaper {
	return worker.NewSagaReaper(sagas, outbox, 10*time.Minute, time.Minute, 100, 5, discardLogger())
}

func TestSagaReaper_FailsTimedOutRunningSaga(t *testing.T) {
	sagas := newMemSagas()
	outbox := &memOutbox{}
	s := newStalledSaga(t, sagas, []string{"SECOND"})

	require.NoError(t, newReaper(sagas, outbox).Sweep(context.Background()))

	assert.Equal(t, model.SagaStatusCompensating, s.Status)
	assert.Equal(t, "SECOND", s.ErrorStep)
	assert.Contains(t, s.ErrorMessage, "deadline")
	// Compensation starts from the most recently completed step.
	assert.Equal(t, "FIRST", s.CurrentStep)

	require.Len(t, outbox.pending, 1)
	assert.Equal(t, "saga.step.ready", outbox.pending[0].EventType)
	require.NotNil(t, outbox.pending[0].SagaID)
	assert.Equal(t, s.ID, *outbox.pending[0].SagaID)
}

func TestSagaReaper_VacuousCompensationTerminates(t *testing.T) {
	sagas := newMemSagas()
	outbox := &memOutbox{}
	s := newStalledSaga(t, sagas, nil)

	require.NoError(t, newReaper(sagas, outbox).Sweep(context.Background()))

	assert.Equal(t, model.SagaStatusCompensated, s.Status)
	require.Len(t, outbox.pending, 1)
	assert.Equal(t, "saga.compensated", outbox.pending[0].EventType)
}

func TestSagaReaper_ResumesStalledCompensation(t *testing.T) {
	sagas := newMemSagas()
	outbox := &memOutbox{}
	s := newStalledSaga(t, sagas, []string{"SECOND", "THIRD"})
	require.NoError(t, s.Fail("THIRD", fmt.Errorf("boom")))
	require.NoError(t, s.StartCompensation())
	s.LastHeartbeat = time.Now().UTC().Add(-time.Hour)

	require.NoError(t, newReaper(sagas, outbox).Sweep(context.Background()))

	// Still compensating at the same step; a fresh step-ready resumes it.
	assert.Equal(t, model.SagaStatusCompensating, s.Status)
	assert.Equal(t, "SECOND", s.CurrentStep)
	require.Len(t, outbox.pending, 1)
	assert.Equal(t, "saga.step.ready", outbox.pending[0].EventType)
}

func TestSagaReaper_IgnoresHealthySagas(t *testing.T) {
	sagas := newMemSagas()
	outbox := &memOutbox{}
	s, err := model.NewSaga(uuid.New(), "TEST_FLOW", "FIRST", nil, "trace-ok", "tester", time.Hour)
	require.NoError(t, err)
	require.NoError(t, sagas.Save(context.Background(), s))

	require.NoError(t, newReaper(sagas, outbox).Sweep(context.Background()))

	assert.Equal(t, model.SagaStatusRunning, s.Status)
	assert.Empty(t, outbox.pending)
}
