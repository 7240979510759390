package kafka

import (
	"context"
	"log/slog"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
	"github.com/GoLearn21/propmaster-sub001/pkg/kafka"
)

// Publisher publishes domain events to Kafka. Messages are keyed by
// aggregate id so all events for one aggregate land on one partition in
// order.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

var _ port.EventPublisher = (*Publisher)(nil)

func NewPublisher(producer *kafka.Producer, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, ev := range evts {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.AggregateID().String()),
			Value: ev.Payload(),
			Headers: map[string]string{
				"event_id":       ev.EventID().String(),
				"event_type":     ev.EventType(),
				"aggregate_type": ev.AggregateType(),
				"trace_id":       ev.TraceID(),
			},
		})
	}
	if err := p.producer.Publish(ctx, topic, msgs...); err != nil {
		return err
	}
	for _, ev := range evts {
		p.logger.DebugContext(ctx, "event published",
			slog.String("topic", topic),
			slog.String("event_type", ev.EventType()),
			slog.String("event_id", ev.EventID().String()))
	}
	return nil
}
