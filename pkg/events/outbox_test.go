package events_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

func TestNewOutboxEvent_Defaults(t *testing.T) {
	org := uuid.New()
	agg := uuid.New()
	evt := events.NewBaseEvent("journal.posted", agg, "journal_entry", "trace-1", []byte(`{}`))

	ob := events.NewOutboxEvent(org, evt, 5)

	assert.Equal(t, events.OutboxStatusPending, ob.Status)
	assert.Equal(t, 0, ob.Attempts)
	assert.Equal(t, 5, ob.MaxAttempts)
	assert.Equal(t, "trace-1", ob.TraceID)
	assert.Equal(t, agg, ob.AggregateID)
	assert.False(t, ob.ScheduledFor.After(time.Now().UTC()))
}

func TestNewBaseEvent_GeneratesTraceID(t *testing.T) {
	evt := events.NewBaseEvent("payment.received", uuid.New(), "payment", "", nil)
	require.NotEmpty(t, evt.TraceID())
}

func TestBackoff_ExponentialWithCap(t *testing.T) {
	for attempts, base := range map[int]time.Duration{
		0: 1 * time.Second,
		1: 2 * time.Second,
		3: 8 * time.Second,
		5: 32 * time.Second,
	} {
		d := events.Backoff(attempts)
		assert.GreaterOrEqual(t, d, base, "attempts=%d", attempts)
		assert.LessOrEqual(t, d, base+base/4+time.Second, "attempts=%d", attempts)
	}

	// Far past the cap the delay stays bounded at 15 minutes.
	assert.LessOrEqual(t, events.Backoff(20), 15*time.Minute)
	assert.LessOrEqual(t, events.Backoff(100), 15*time.Minute)
}

func TestOutboxStatus_Terminal(t *testing.T) {
	assert.True(t, events.OutboxStatusProcessed.Terminal())
	assert.True(t, events.OutboxStatusDeadLetter.Terminal())
	assert.False(t, events.OutboxStatusPending.Terminal())
	assert.False(t, events.OutboxStatusProcessing.Terminal())
}
