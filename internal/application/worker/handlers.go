package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// NewSagaStepHandler routes saga.step.ready events to the step runner. The
// saga id comes from the event payload; the outbox saga_id column is
// informational only.
func NewSagaStepHandler(runner *usecase.RunSagaStepUseCase) Handler {
	return func(ctx context.Context, ev events.OutboxEvent) error {
		var payload struct {
			SagaID uuid.UUID `json:"saga_id"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("decode step-ready payload: %w", err)
		}
		if payload.SagaID == uuid.Nil {
			return fmt.Errorf("step-ready event %s carries no saga id", ev.ID)
		}
		return runner.Execute(ctx, payload.SagaID)
	}
}

// NewBankSubmitHandler routes bank.nacha.submit events to the bank link.
// Submission is idempotent on the bank side, keyed by the file id.
func NewBankSubmitHandler(files port.NachaFileRepository, bank port.BankSubmitter) Handler {
	return func(ctx context.Context, ev events.OutboxEvent) error {
		var payload struct {
			FileID uuid.UUID `json:"file_id"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("decode submit payload: %w", err)
		}
		file, err := files.FindByID(ctx, ev.OrgID, payload.FileID)
		if err != nil {
			return err
		}
		if _, err := bank.Submit(ctx, file); err != nil {
			return fmt.Errorf("submit nacha file %s: %w", file.ID, err)
		}
		return nil
	}
}

// NewRelayHandler publishes an outbox event to the broker topic. This is
// the default handler: everything not consumed internally goes out.
func NewRelayHandler(publisher port.EventPublisher, topic string) Handler {
	return func(ctx context.Context, ev events.OutboxEvent) error {
		if err := publisher.Publish(ctx, topic, ev.Domain()); err != nil {
			return fmt.Errorf("publish %s to %s: %w", ev.EventType, topic, err)
		}
		return nil
	}
}
