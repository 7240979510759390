package events

import (
	"time"

	"github.com/google/uuid"
)

// storedEvent adapts a persisted outbox row back into a DomainEvent so the
// worker can hand it to a publisher without knowing the concrete type.
type storedEvent struct {
	row OutboxEvent
}

// Domain returns the outbox row as a DomainEvent.
func (e OutboxEvent) Domain() DomainEvent {
	return storedEvent{row: e}
}

func (s storedEvent) EventID() uuid.UUID     { return s.row.ID }
func (s storedEvent) EventType() string      { return s.row.EventType }
func (s storedEvent) AggregateID() uuid.UUID { return s.row.AggregateID }
func (s storedEvent) AggregateType() string  { return s.row.AggregateType }
func (s storedEvent) OccurredAt() time.Time  { return s.row.CreatedAt }
func (s storedEvent) TraceID() string        { return s.row.TraceID }
func (s storedEvent) Payload() []byte        { return s.row.Payload }
