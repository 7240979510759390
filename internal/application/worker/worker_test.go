package worker_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/application/worker"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memOutbox is an in-memory outbox with claim semantics good enough for
// single-worker tests.
type memOutbox struct {
	pending   []events.OutboxEvent
	processed []uuid.UUID
	failed    []uuid.UUID
}

var _ events.OutboxRepository = (*memOutbox)(nil)

func (m *memOutbox) Emit(_ context.Context, evts ...events.OutboxEvent) error {
	m.pending = append(m.pending, evts...)
	return nil
}

func (m *memOutbox) Claim(_ context.Context, _ string, batchSize int, _ time.Duration) ([]events.OutboxEvent, error) {
	n := batchSize
	if n > len(m.pending) {
		n = len(m.pending)
	}
	batch := m.pending[:n]
	m.pending = m.pending[n:]
	return batch, nil
}

func (m *memOutbox) MarkProcessed(_ context.Context, id uuid.UUID) error {
	m.processed = append(m.processed, id)
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, _ error) error {
	m.failed = append(m.failed, id)
	return nil
}

func (m *memOutbox) RetryDeadLetter(context.Context, uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (m *memOutbox) ListDeadLetter(context.Context, uuid.UUID, int) ([]events.OutboxEvent, error) {
	return nil, nil
}

// recorder counts handler invocations per event type.
type recorder struct {
	seen []string
	err  error
}

func (r *recorder) handle(_ context.Context, ev events.OutboxEvent) error {
	r.seen = append(r.seen, ev.EventType)
	return r.err
}

func decimalOne() decimal.Decimal { return decimal.NewFromInt(1) }

func workerConfig() worker.WorkerConfig {
	return worker.WorkerConfig{
		WorkerID:     "worker-test",
		BatchSize:    10,
		LockDuration: 5 * time.Minute,
		PollInterval: 10 * time.Millisecond,
	}
}

func TestOutboxWorker_DispatchesByType(t *testing.T) {
	outbox := &memOutbox{}
	orgID := uuid.New()
	sagaID := uuid.New()
	ready := event.NewSagaStepReady(sagaID, "NSF", "REVERSE_PAYMENT", "trace-1")
	posted := event.NewEntryPosted(uuid.New(), orgID, time.Now(), "payment", decimalOne(), "trace-1")
	require.NoError(t, outbox.Emit(context.Background(),
		events.NewOutboxEvent(orgID, ready, 5),
		events.NewOutboxEvent(orgID, posted, 5)))

	relay := &recorder{}
	stepHandler := &recorder{}
	w := worker.NewOutboxWorker(outbox, relay.handle, workerConfig(), nil, discardLogger())
	w.Register("saga.step.ready", stepHandler.handle)

	require.NoError(t, w.ProcessBatch(context.Background()))

	assert.Equal(t, []string{"saga.step.ready"}, stepHandler.seen)
	assert.Equal(t, []string{"journal.posted"}, relay.seen)
	assert.Len(t, outbox.processed, 2)
	assert.Empty(t, outbox.failed)
}

func TestOutboxWorker_HandlerFailureMarksOnlyThatEvent(t *testing.T) {
	outbox := &memOutbox{}
	orgID := uuid.New()
	bad := event.NewSagaStepReady(uuid.New(), "NSF", "REVERSE_PAYMENT", "t")
	good := event.NewEntryPosted(uuid.New(), orgID, time.Now(), "payment", decimalOne(), "t")
	require.NoError(t, outbox.Emit(context.Background(),
		events.NewOutboxEvent(orgID, bad, 5),
		events.NewOutboxEvent(orgID, good, 5)))

	relay := &recorder{}
	failing := &recorder{err: fmt.Errorf("saga repo unavailable")}
	w := worker.NewOutboxWorker(outbox, relay.handle, workerConfig(), nil, discardLogger())
	w.Register("saga.step.ready", failing.handle)

	require.NoError(t, w.ProcessBatch(context.Background()))

	assert.Len(t, outbox.failed, 1)
	assert.Len(t, outbox.processed, 1)
	assert.Equal(t, []string{"journal.posted"}, relay.seen)
}

func TestOutboxWorker_RunStopsOnCancel(t *testing.T) {
	outbox := &memOutbox{}
	w := worker.NewOutboxWorker(outbox, (&recorder{}).handle, workerConfig(), nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
