package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
)

// SagaHandler serves the workflow endpoints. Starting a saga returns 202:
// the steps run asynchronously through the outbox worker.
type SagaHandler struct {
	start  *usecase.StartSagaUseCase
	get    *usecase.GetSagaUseCase
	logger *slog.Logger
}

func NewSagaHandler(start *usecase.StartSagaUseCase, get *usecase.GetSagaUseCase, logger *slog.Logger) *SagaHandler {
	return &SagaHandler{start: start, get: get, logger: logger}
}

func (h *SagaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sagas", h.handleStartSaga)
	r.Get("/sagas/{id}", h.handleGetSaga)
}

func (h *SagaHandler) handleStartSaga(w http.ResponseWriter, r *http.Request) {
	var req dto.StartSagaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	resp, err := h.start.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// handleGetSaga returns the saga state plus its step execution log.
func (h *SagaHandler) handleGetSaga(w http.ResponseWriter, r *http.Request) {
	sagaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid saga id")
		return
	}
	saga, steps, err := h.get.Execute(r.Context(), sagaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		dto.SagaResponse
		Steps []dto.StepLogResponse `json:"steps"`
	}{saga, steps})
}
