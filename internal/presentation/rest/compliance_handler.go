package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
)

// ComplianceHandler serves the jurisdictional rule endpoints.
type ComplianceHandler struct {
	upsert *usecase.UpsertComplianceRuleUseCase
	logger *slog.Logger
}

func NewComplianceHandler(upsert *usecase.UpsertComplianceRuleUseCase, logger *slog.Logger) *ComplianceHandler {
	return &ComplianceHandler{upsert: upsert, logger: logger}
}

func (h *ComplianceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/compliance/rules", h.handleUpsertRule)
}

func (h *ComplianceHandler) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	resp, err := h.upsert.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
