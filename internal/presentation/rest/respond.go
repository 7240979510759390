package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
)

// errorResponse is the JSON error body. Code is the machine-readable domain
// error code; clients branch on it, not on the message.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorResponse{
		Error: err.Error(),
		Code:  model.ErrorCode(err),
	})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "BAD_REQUEST"})
}

// httpStatus maps domain errors onto HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrEntryNotFound),
		errors.Is(err, model.ErrAccountNotFound),
		errors.Is(err, model.ErrSagaNotFound),
		errors.Is(err, model.ErrDepositNotFound),
		errors.Is(err, model.ErrComplianceRuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateIdempotencyKey),
		errors.Is(err, model.ErrAlreadyReversed),
		errors.Is(err, model.ErrClosedPeriod),
		errors.Is(err, model.ErrDiagnosticGateFailed),
		errors.Is(err, model.ErrSagaVersionConflict),
		errors.Is(err, model.ErrSagaInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnbalanced),
		errors.Is(err, model.ErrInvalidAccount),
		errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrExceedsStateMax),
		errors.Is(err, model.ErrNoEligibleOwners),
		errors.Is(err, model.ErrMigrationValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrStepUnknown):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
