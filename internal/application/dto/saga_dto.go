package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StartSagaRequest launches a workflow by catalog name.
type StartSagaRequest struct {
	OrgID       uuid.UUID       `json:"org_id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	TraceID     string          `json:"trace_id,omitempty"`
	InitiatedBy string          `json:"initiated_by,omitempty"`
}

// SagaResponse is the externally visible saga state.
type SagaResponse struct {
	SagaID         uuid.UUID       `json:"saga_id"`
	OrgID          uuid.UUID       `json:"org_id"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	CurrentStep    string          `json:"current_step,omitempty"`
	StepsCompleted []string        `json:"steps_completed,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	ErrorStep      string          `json:"error_step,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	TraceID        string          `json:"trace_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StepLogResponse is one row of the saga execution log.
type StepLogResponse struct {
	StepName    string     `json:"step_name"`
	StepType    string     `json:"step_type"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
}
