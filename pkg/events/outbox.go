package events

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the lifecycle state of an outbox event.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
	OutboxStatusDeadLetter OutboxStatus = "dead_letter"
)

// Terminal reports whether the status admits no further transitions.
func (s OutboxStatus) Terminal() bool {
	return s == OutboxStatusProcessed || s == OutboxStatusDeadLetter
}

// OutboxEvent is a domain event persisted in the same transaction as the
// domain change that produced it. Delivery is at-least-once; handlers own
// exactly-once effects via idempotency keys.
type OutboxEvent struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	MaxAttempts   int
	LastError     string
	TraceID       string
	SagaID        *uuid.UUID
	CorrelationID *uuid.UUID
	CausationID   *uuid.UUID
	CreatedAt     time.Time
	ScheduledFor  time.Time
	LockedUntil   *time.Time
	LockedBy      string
	ProcessedAt   *time.Time
	// ReprocessedAs links a dead-lettered event to its rehydrated copy.
	ReprocessedAs *uuid.UUID
}

// NewOutboxEvent builds a pending outbox event from a DomainEvent.
func NewOutboxEvent(orgID uuid.UUID, event DomainEvent, maxAttempts int) OutboxEvent {
	now := time.Now().UTC()
	return OutboxEvent{
		ID:            event.EventID(),
		OrgID:         orgID,
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		Payload:       event.Payload(),
		Status:        OutboxStatusPending,
		Attempts:      0,
		MaxAttempts:   maxAttempts,
		TraceID:       event.TraceID(),
		CreatedAt:     now,
		ScheduledFor:  now,
	}
}

// backoffCap bounds the retry delay at 15 minutes.
const backoffCap = 15 * time.Minute

// Backoff returns the delay before the next delivery attempt: exponential
// (2^attempts seconds) with up to 25% jitter, capped at 15 minutes.
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 30 {
		attempts = 30
	}
	base := time.Duration(1<<uint(attempts)) * time.Second
	if base > backoffCap {
		base = backoffCap
	}
	jitter := time.Duration(rand.Int63n(int64(base)/4 + 1))
	d := base + jitter
	if d > backoffCap {
		d = backoffCap
	}
	return d
}

// OutboxRepository is the port for outbox persistence. Emit may be composed
// into a wider transaction by the journal repository; the standalone form
// here opens its own.
type OutboxRepository interface {
	// Emit inserts pending events.
	Emit(ctx context.Context, evts ...OutboxEvent) error
	// Claim atomically marks up to batchSize due pending events as
	// processing, locked by workerID until now+lockDuration. No two workers
	// observe the same event processing.
	Claim(ctx context.Context, workerID string, batchSize int, lockDuration time.Duration) ([]OutboxEvent, error)
	// MarkProcessed finalizes a delivered event.
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	// MarkFailed records a delivery failure, rescheduling with backoff or
	// dead-lettering once attempts reach MaxAttempts.
	MarkFailed(ctx context.Context, id uuid.UUID, handlerErr error) error
	// RetryDeadLetter rehydrates a dead-lettered event as a fresh pending
	// event and records the linkage. Returns the new event id.
	RetryDeadLetter(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	// ListDeadLetter returns dead-lettered events for operator inspection.
	ListDeadLetter(ctx context.Context, orgID uuid.UUID, limit int) ([]OutboxEvent, error)
}
