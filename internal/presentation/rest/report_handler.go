package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
)

// ReportHandler serves the diagnostics and trial balance endpoints. The
// trial balance refuses to render while diagnostics fail; the raw
// diagnostics endpoint always answers.
type ReportHandler struct {
	diagnostics  *usecase.RunDiagnosticsUseCase
	trialBalance *usecase.TrialBalanceUseCase
	logger       *slog.Logger
}

func NewReportHandler(diagnostics *usecase.RunDiagnosticsUseCase, trialBalance *usecase.TrialBalanceUseCase, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{diagnostics: diagnostics, trialBalance: trialBalance, logger: logger}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/diagnostics", h.handleDiagnostics)
	r.Get("/reports/trial-balance", h.handleTrialBalance)
}

func (h *ReportHandler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromQuery(w, r)
	if !ok {
		return
	}
	resp, err := h.diagnostics.Execute(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromQuery(w, r)
	if !ok {
		return
	}
	resp, err := h.trialBalance.Execute(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func orgFromQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		writeBadRequest(w, "org_id query parameter is required")
		return uuid.Nil, false
	}
	return orgID, true
}
