package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
)

// MigrationHandler serves the legacy-import pre-check endpoint. Validation
// never writes; a failing batch simply reports its findings.
type MigrationHandler struct {
	validate *usecase.ValidateMigrationUseCase
	logger   *slog.Logger
}

func NewMigrationHandler(validate *usecase.ValidateMigrationUseCase, logger *slog.Logger) *MigrationHandler {
	return &MigrationHandler{validate: validate, logger: logger}
}

func (h *MigrationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/migration/validate", h.handleValidate)
}

func (h *MigrationHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateMigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	resp, err := h.validate.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	// Findings are data, not transport errors: always 200.
	writeJSON(w, http.StatusOK, resp)
}
