package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoLearn21/propmaster-sub001/pkg/events"
	"github.com/GoLearn21/propmaster-sub001/pkg/observability"
)

// Handler processes one claimed outbox event. Delivery is at-least-once;
// handlers own exactly-once effects via idempotency keys.
type Handler func(ctx context.Context, ev events.OutboxEvent) error

// OutboxWorker polls the outbox, claims due events, and dispatches them by
// event type. Events with no registered handler go to the relay, which
// publishes them to the broker.
type OutboxWorker struct {
	outbox       events.OutboxRepository
	handlers     map[string]Handler
	relay        Handler
	workerID     string
	batchSize    int
	lockDuration time.Duration
	pollInterval time.Duration
	metrics      *observability.EngineMetrics
	logger       *slog.Logger
}

// WorkerConfig sizes one outbox worker.
type WorkerConfig struct {
	WorkerID     string
	BatchSize    int
	LockDuration time.Duration
	PollInterval time.Duration
}

func NewOutboxWorker(outbox events.OutboxRepository, relay Handler, cfg WorkerConfig, metrics *observability.EngineMetrics, logger *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		outbox:       outbox,
		handlers:     map[string]Handler{},
		relay:        relay,
		workerID:     cfg.WorkerID,
		batchSize:    cfg.BatchSize,
		lockDuration: cfg.LockDuration,
		pollInterval: cfg.PollInterval,
		metrics:      metrics,
		logger:       logger,
	}
}

// Register binds a handler to an event type. Registered handlers replace
// the relay for that type; the relay still sees everything else.
func (w *OutboxWorker) Register(eventType string, h Handler) {
	w.handlers[eventType] = h
}

// Run polls until the context is canceled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	w.logger.Info("outbox worker starting",
		slog.String("worker_id", w.workerID),
		slog.Int("batch_size", w.batchSize),
		slog.Duration("poll_interval", w.pollInterval))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopping", slog.String("worker_id", w.workerID))
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("outbox batch failed",
					slog.String("worker_id", w.workerID),
					slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessBatch claims one batch and delivers each event. A handler failure
// marks only that event failed; the batch continues.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) error {
	batch, err := w.outbox.Claim(ctx, w.workerID, w.batchSize, w.lockDuration)
	if err != nil {
		return err
	}
	for _, ev := range batch {
		w.deliver(ctx, ev)
	}
	return nil
}

func (w *OutboxWorker) deliver(ctx context.Context, ev events.OutboxEvent) {
	handler, ok := w.handlers[ev.EventType]
	if !ok {
		handler = w.relay
	}

	if err := handler(ctx, ev); err != nil {
		w.logger.Error("outbox event delivery failed",
			slog.String("event_id", ev.ID.String()),
			slog.String("event_type", ev.EventType),
			slog.Int("attempt", ev.Attempts+1),
			slog.String("error", err.Error()))
		if w.metrics != nil {
			w.metrics.OutboxFailed.Add(ctx, 1)
			if ev.Attempts+1 >= ev.MaxAttempts {
				w.metrics.OutboxDeadLettered.Add(ctx, 1)
			}
		}
		if markErr := w.outbox.MarkFailed(ctx, ev.ID, err); markErr != nil {
			w.logger.Error("mark failed did not stick",
				slog.String("event_id", ev.ID.String()),
				slog.String("error", markErr.Error()))
		}
		return
	}

	if err := w.outbox.MarkProcessed(ctx, ev.ID); err != nil {
		// The handler effect stands; redelivery is safe because handlers
		// are idempotent.
		w.logger.Error("mark processed did not stick",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	if w.metrics != nil {
		w.metrics.OutboxProcessed.Add(ctx, 1)
	}
	w.logger.Debug("outbox event delivered",
		slog.String("event_id", ev.ID.String()),
		slog.String("event_type", ev.EventType))
}
