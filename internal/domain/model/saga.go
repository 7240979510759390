package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SagaStatus is the lifecycle state of a saga.
type SagaStatus string

const (
	SagaStatusRunning      SagaStatus = "running"
	SagaStatusCompleted    SagaStatus = "completed"
	SagaStatusFailed       SagaStatus = "failed"
	SagaStatusCompensating SagaStatus = "compensating"
	SagaStatusCompensated  SagaStatus = "compensated"
)

// Terminal reports whether the status admits no further transitions.
func (s SagaStatus) Terminal() bool {
	return s == SagaStatusCompleted || s == SagaStatusCompensated
}

// Saga is the persistent state machine behind every multi-step workflow.
// The saga row is the serialization point: concurrent step executions are
// rejected by status checks, so each saga is naturally single-threaded.
type Saga struct {
	ID                uuid.UUID
	OrgID             uuid.UUID
	Name              string
	Version           int
	CurrentStep       string
	Status            SagaStatus
	StepsCompleted    []string
	CompensationSteps []string
	Payload           json.RawMessage
	Result            json.RawMessage
	ErrorMessage      string
	ErrorStep         string
	RetryCount        int
	TraceID           string
	InitiatedBy       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastHeartbeat     time.Time
	TimeoutAt         *time.Time
}

// NewSaga starts a saga at its initial step.
func NewSaga(orgID uuid.UUID, name, initialStep string, payload json.RawMessage, traceID, initiatedBy string, timeout time.Duration) (*Saga, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("organization id is required")
	}
	if name == "" || initialStep == "" {
		return nil, fmt.Errorf("saga name and initial step are required")
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	now := time.Now().UTC()
	s := &Saga{
		ID:            uuid.New(),
		OrgID:         orgID,
		Name:          name,
		Version:       1,
		CurrentStep:   initialStep,
		Status:        SagaStatusRunning,
		Payload:       payload,
		TraceID:       traceID,
		InitiatedBy:   initiatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastHeartbeat: now,
	}
	if timeout > 0 {
		t := now.Add(timeout)
		s.TimeoutAt = &t
	}
	return s, nil
}

// Advance appends the current step to the completed list and moves to next.
// Rejected unless the saga is running.
func (s *Saga) Advance(next string) error {
	if s.Status != SagaStatusRunning {
		return fmt.Errorf("%w: advance from %s", ErrSagaInvalidStatus, s.Status)
	}
	if next == "" {
		return fmt.Errorf("next step is required")
	}
	now := time.Now().UTC()
	s.StepsCompleted = append(s.StepsCompleted, s.CurrentStep)
	s.CurrentStep = next
	s.LastHeartbeat = now
	s.UpdatedAt = now
	return nil
}

// Complete finishes the saga, recording the final step and result.
func (s *Saga) Complete(result json.RawMessage) error {
	if s.Status != SagaStatusRunning {
		return fmt.Errorf("%w: complete from %s", ErrSagaInvalidStatus, s.Status)
	}
	now := time.Now().UTC()
	s.StepsCompleted = append(s.StepsCompleted, s.CurrentStep)
	s.CurrentStep = ""
	s.Status = SagaStatusCompleted
	s.Result = result
	s.UpdatedAt = now
	return nil
}

// Fail records the failed step and error. The saga stays resumable into
// compensation only.
func (s *Saga) Fail(step string, cause error) error {
	if s.Status != SagaStatusRunning {
		return fmt.Errorf("%w: fail from %s", ErrSagaInvalidStatus, s.Status)
	}
	s.Status = SagaStatusFailed
	s.ErrorStep = step
	if cause != nil {
		s.ErrorMessage = cause.Error()
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// StartCompensation computes the compensation plan: completed steps undone
// in reverse order. Only a failed saga can start compensating. A saga that
// failed before completing any step compensates vacuously.
func (s *Saga) StartCompensation() error {
	if s.Status != SagaStatusFailed {
		return fmt.Errorf("%w: start compensation from %s", ErrSagaInvalidStatus, s.Status)
	}
	now := time.Now().UTC()
	s.CompensationSteps = s.CompensationSteps[:0]
	for i := len(s.StepsCompleted) - 1; i >= 0; i-- {
		s.CompensationSteps = append(s.CompensationSteps, s.StepsCompleted[i])
	}
	if len(s.CompensationSteps) == 0 {
		s.Status = SagaStatusCompensated
		s.CurrentStep = ""
	} else {
		s.Status = SagaStatusCompensating
		s.CurrentStep = s.CompensationSteps[0]
	}
	s.UpdatedAt = now
	s.LastHeartbeat = now
	return nil
}

// AdvanceCompensation consumes one compensation step; after the last the
// saga is compensated.
func (s *Saga) AdvanceCompensation() error {
	if s.Status != SagaStatusCompensating {
		return fmt.Errorf("%w: advance compensation from %s", ErrSagaInvalidStatus, s.Status)
	}
	if len(s.CompensationSteps) == 0 {
		return fmt.Errorf("%w: no compensation steps remain", ErrSagaInvalidStatus)
	}
	now := time.Now().UTC()
	s.CompensationSteps = s.CompensationSteps[1:]
	if len(s.CompensationSteps) == 0 {
		s.Status = SagaStatusCompensated
		s.CurrentStep = ""
	} else {
		s.CurrentStep = s.CompensationSteps[0]
	}
	s.LastHeartbeat = now
	s.UpdatedAt = now
	return nil
}

// Heartbeat refreshes liveness; the reaper uses TimeoutAt and LastHeartbeat
// to detect zombies.
func (s *Saga) Heartbeat() {
	now := time.Now().UTC()
	s.LastHeartbeat = now
	s.UpdatedAt = now
}

// TimedOut reports whether the saga has exceeded its deadline.
func (s *Saga) TimedOut(now time.Time) bool {
	return s.TimeoutAt != nil && now.After(*s.TimeoutAt) && !s.Status.Terminal()
}

// StepType distinguishes forward execution from compensation in the log.
type StepType string

const (
	StepTypeForward      StepType = "forward"
	StepTypeCompensation StepType = "compensation"
)

// StepStatus is the outcome of one step execution.
type StepStatus string

const (
	StepStatusStarted   StepStatus = "started"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// SagaStepLog is one append-only row in the per-saga execution log.
type SagaStepLog struct {
	ID          uuid.UUID
	SagaID      uuid.UUID
	StepName    string
	StepType    StepType
	Status      StepStatus
	Input       json.RawMessage
	Output      json.RawMessage
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMS  int64
}

// NewStepLog opens a log row for a step execution.
func NewStepLog(sagaID uuid.UUID, stepName string, stepType StepType, input json.RawMessage) SagaStepLog {
	return SagaStepLog{
		ID:        uuid.New(),
		SagaID:    sagaID,
		StepName:  stepName,
		StepType:  stepType,
		Status:    StepStatusStarted,
		Input:     input,
		StartedAt: time.Now().UTC(),
	}
}

// Finish closes the log row with an outcome.
func (l SagaStepLog) Finish(output json.RawMessage, stepErr error) SagaStepLog {
	now := time.Now().UTC()
	l.CompletedAt = &now
	l.DurationMS = now.Sub(l.StartedAt).Milliseconds()
	l.Output = output
	if stepErr != nil {
		l.Status = StepStatusFailed
		l.Error = stepErr.Error()
	} else {
		l.Status = StepStatusCompleted
	}
	return l
}
