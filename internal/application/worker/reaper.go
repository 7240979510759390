package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/event"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// errSagaTimedOut is recorded as the failure cause on reaped sagas.
var errSagaTimedOut = fmt.Errorf("saga exceeded its deadline")

// SagaReaper sweeps for sagas that stopped making progress: past their
// timeout or with a stale heartbeat. A reaped running saga is failed and
// flipped into compensation; a saga stuck in failed or compensating gets a
// fresh step-ready event to resume it.
type SagaReaper struct {
	sagas        port.SagaRepository
	outbox       events.OutboxRepository
	heartbeatTTL time.Duration
	interval     time.Duration
	batchSize    int
	maxAttempts  int
	logger       *slog.Logger
}

func NewSagaReaper(sagas port.SagaRepository, outbox events.OutboxRepository, heartbeatTTL, interval time.Duration, batchSize, maxAttempts int, logger *slog.Logger) *SagaReaper {
	return &SagaReaper{
		sagas:        sagas,
		outbox:       outbox,
		heartbeatTTL: heartbeatTTL,
		interval:     interval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Run sweeps until the context is canceled.
func (r *SagaReaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error("saga sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep processes one batch of stalled sagas.
func (r *SagaReaper) Sweep(ctx context.Context) error {
	now := time.Now().UTC()
	stalled, err := r.sagas.ListStalled(ctx, now.Add(-r.heartbeatTTL), r.batchSize)
	if err != nil {
		return fmt.Errorf("list stalled sagas: %w", err)
	}

	for _, s := range stalled {
		if err := r.reap(ctx, s); err != nil {
			r.logger.Error("reap failed",
				slog.String("saga_id", s.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (r *SagaReaper) reap(ctx context.Context, s *model.Saga) error {
	if s.Status.Terminal() {
		return nil
	}

	r.logger.Warn("reaping stalled saga",
		slog.String("saga_id", s.ID.String()),
		slog.String("saga_name", s.Name),
		slog.String("status", string(s.Status)),
		slog.String("step", s.CurrentStep),
		slog.Time("last_heartbeat", s.LastHeartbeat))

	switch s.Status {
	case model.SagaStatusRunning:
		if err := s.Fail(s.CurrentStep, errSagaTimedOut); err != nil {
			return err
		}
		if err := s.StartCompensation(); err != nil {
			return err
		}
	case model.SagaStatusFailed:
		if err := s.StartCompensation(); err != nil {
			return err
		}
	case model.SagaStatusCompensating:
		// Compensation stalled mid-flight; a fresh heartbeat plus a new
		// step-ready event resumes it from the current step.
		s.Heartbeat()
	}

	if err := r.sagas.Update(ctx, s); err != nil {
		return fmt.Errorf("update saga %s: %w", s.ID, err)
	}

	var ev events.DomainEvent
	if s.Status == model.SagaStatusCompensating {
		ev = event.NewSagaStepReady(s.ID, s.Name, s.CurrentStep, s.TraceID)
	} else {
		// Compensation was vacuous; the saga is already terminal.
		ev = event.NewSagaCompensated(s.ID, s.Name, s.ErrorStep, s.ErrorMessage, s.TraceID)
	}
	ob := events.NewOutboxEvent(s.OrgID, ev, r.maxAttempts)
	ob.SagaID = &s.ID
	if err := r.outbox.Emit(ctx, ob); err != nil {
		return fmt.Errorf("emit reap event for %s: %w", s.ID, err)
	}
	return nil
}
