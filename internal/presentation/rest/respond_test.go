package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrEntryNotFound, http.StatusNotFound},
		{model.ErrAccountNotFound, http.StatusNotFound},
		{model.ErrSagaNotFound, http.StatusNotFound},
		{model.ErrDuplicateIdempotencyKey, http.StatusConflict},
		{model.ErrAlreadyReversed, http.StatusConflict},
		{model.ErrClosedPeriod, http.StatusConflict},
		{model.ErrDiagnosticGateFailed, http.StatusConflict},
		{model.ErrUnbalanced, http.StatusUnprocessableEntity},
		{model.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{model.ErrStepUnknown, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, httpStatus(tc.err), "error %v", tc.err)
	}
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("posting entry: %w", model.ErrClosedPeriod)
	assert.Equal(t, http.StatusConflict, httpStatus(err))
}

func TestWriteError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("key %q: %w", "dup", model.ErrDuplicateIdempotencyKey))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DUPLICATE_IDEMPOTENCY_KEY", body.Code)
	assert.Contains(t, body.Error, "dup")
}
