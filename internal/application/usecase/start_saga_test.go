package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
)

func TestStartSaga_EmitsFirstStep(t *testing.T) {
	sagas := newMemSagas()
	outbox := &memOutbox{}
	uc := usecase.NewStartSagaUseCase(sagas, outbox, 30*time.Minute, 5, discardLogger())

	resp, err := uc.Execute(context.Background(), dto.StartSagaRequest{
		OrgID:       uuid.New(),
		Name:        service.SagaNameNSF,
		Payload:     json.RawMessage(`{"payment_entry_id":"x"}`),
		InitiatedBy: "ops",
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.SagaStatusRunning), resp.Status)
	assert.Equal(t, service.StepReversePayment, resp.CurrentStep)

	saved, err := sagas.FindByID(context.Background(), resp.SagaID)
	require.NoError(t, err)
	require.NotNil(t, saved.TimeoutAt)

	require.Len(t, outbox.emitted, 1)
	first := outbox.emitted[0]
	assert.Equal(t, "saga.step.ready", first.EventType)
	require.NotNil(t, first.SagaID)
	assert.Equal(t, resp.SagaID, *first.SagaID)
}

func TestStartSaga_UnknownName(t *testing.T) {
	uc := usecase.NewStartSagaUseCase(newMemSagas(), &memOutbox{}, 0, 5, discardLogger())

	_, err := uc.Execute(context.Background(), dto.StartSagaRequest{
		OrgID: uuid.New(),
		Name:  "MYSTERY_FLOW",
	})
	assert.ErrorIs(t, err, model.ErrStepUnknown)
}
