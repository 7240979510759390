package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/pkg/events"
)

// StepOutcome is the result of one forward step execution.
type StepOutcome struct {
	// Next names the step to advance to. Empty with Done set on the final
	// step.
	Next string
	// Done marks the saga completed with Result.
	Done   bool
	Result json.RawMessage
	// Events ride the same transaction as the saga state update.
	Events []events.DomainEvent
}

// SagaExecutor runs one saga type's steps. Executors dispatch on
// saga.CurrentStep, perform effects keyed by idempotency keys derived from
// the saga id, and return the next step. Compensation undoes one completed
// step; the engine calls it in reverse completion order.
type SagaExecutor interface {
	Name() string
	ExecuteStep(ctx context.Context, s *model.Saga) (StepOutcome, error)
	CompensateStep(ctx context.Context, s *model.Saga, step string) ([]events.DomainEvent, error)
}

// ExecutorRegistry maps saga names to executors.
type ExecutorRegistry struct {
	executors map[string]SagaExecutor
}

func NewExecutorRegistry(execs ...SagaExecutor) *ExecutorRegistry {
	r := &ExecutorRegistry{executors: make(map[string]SagaExecutor, len(execs))}
	for _, e := range execs {
		r.executors[e.Name()] = e
	}
	return r
}

func (r *ExecutorRegistry) Register(e SagaExecutor) {
	r.executors[e.Name()] = e
}

func (r *ExecutorRegistry) Lookup(name string) (SagaExecutor, error) {
	e, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: no executor registered for saga %q", model.ErrStepUnknown, name)
	}
	return e, nil
}
