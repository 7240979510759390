package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

type runnerFixture struct {
	sagas  *memSagas
	outbox *memOutbox
	exec   *stubExecutor
	runner *usecase.RunSagaStepUseCase
}

// newRunnerFixture wires the step runner against a three-step scripted
// workflow: FIRST -> SECOND -> LAST.
func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	f := &runnerFixture{
		sagas:  newMemSagas(),
		outbox: &memOutbox{},
		exec: &stubExecutor{
			name: "TEST_FLOW",
			outcomes: map[string]service.StepOutcome{
				"FIRST":  {Next: "SECOND"},
				"SECOND": {Next: "LAST"},
				"LAST":   {Done: true, Result: json.RawMessage(`{"ok":true}`)},
			},
			errs: map[string]error{},
		},
	}
	f.runner = usecase.NewRunSagaStepUseCase(
		f.sagas, service.NewExecutorRegistry(f.exec), f.outbox, 5, discardLogger())
	return f
}

func (f *runnerFixture) newSaga(t *testing.T) *model.Saga {
	t.Helper()
	s, err := model.NewSaga(uuid.New(), "TEST_FLOW", "FIRST", nil, "trace-1", "tester", time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.sagas.Save(context.Background(), s))
	return s
}

// drain keeps executing steps while step-ready events come out, the way
// the outbox worker would.
func (f *runnerFixture) drain(t *testing.T, sagaID uuid.UUID) {
	t.Helper()
	for i := 0; i < 20; i++ {
		before := len(f.outbox.emitted)
		require.NoError(t, f.runner.Execute(context.Background(), sagaID))
		ready := false
		for _, ev := range f.outbox.emitted[before:] {
			if ev.EventType == "saga.step.ready" {
				ready = true
			}
		}
		if !ready {
			return
		}
	}
	t.Fatal("saga did not reach a terminal state")
}

func TestRunSagaStep_RunsToCompletion(t *testing.T) {
	f := newRunnerFixture(t)
	s := f.newSaga(t)

	f.drain(t, s.ID)

	assert.Equal(t, model.SagaStatusCompleted, s.Status)
	assert.Equal(t, []string{"FIRST", "SECOND", "LAST"}, s.StepsCompleted)
	assert.JSONEq(t, `{"ok":true}`, string(s.Result))
	assert.Contains(t, f.outbox.types(), "saga.completed")

	// Two started/finished log pairs per step.
	logs, err := f.sagas.ListStepLogs(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 6)
}

func TestRunSagaStep_FailureCompensatesInReverse(t *testing.T) {
	f := newRunnerFixture(t)
	f.exec.errs["LAST"] = fmt.Errorf("bank rejected the file")
	s := f.newSaga(t)

	f.drain(t, s.ID)

	assert.Equal(t, model.SagaStatusCompensated, s.Status)
	assert.Equal(t, "LAST", s.ErrorStep)
	assert.Contains(t, s.ErrorMessage, "bank rejected")
	assert.Equal(t, []string{"SECOND", "FIRST"}, f.exec.compensated)
	assert.Contains(t, f.outbox.types(), "saga.compensated")
	assert.NotContains(t, f.outbox.types(), "saga.completed")
}

func TestRunSagaStep_FirstStepFailureCompensatesVacuously(t *testing.T) {
	f := newRunnerFixture(t)
	f.exec.errs["FIRST"] = fmt.Errorf("insufficient funds")
	s := f.newSaga(t)

	require.NoError(t, f.runner.Execute(context.Background(), s.ID))

	assert.Equal(t, model.SagaStatusCompensated, s.Status)
	assert.Empty(t, f.exec.compensated)
	assert.Contains(t, f.outbox.types(), "saga.compensated")
}

func TestRunSagaStep_TerminalSagaIsNoOp(t *testing.T) {
	f := newRunnerFixture(t)
	s := f.newSaga(t)
	f.drain(t, s.ID)
	emitted := len(f.outbox.emitted)

	// Redelivered step-ready after completion.
	require.NoError(t, f.runner.Execute(context.Background(), s.ID))
	assert.Len(t, f.outbox.emitted, emitted)
}

func TestRunSagaStep_EventsCarrySagaID(t *testing.T) {
	f := newRunnerFixture(t)
	s := f.newSaga(t)

	require.NoError(t, f.runner.Execute(context.Background(), s.ID))

	require.NotEmpty(t, f.outbox.emitted)
	for _, ev := range f.outbox.emitted {
		require.NotNil(t, ev.SagaID)
		assert.Equal(t, s.ID, *ev.SagaID)
	}
}
