package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
)

// TaxHandler serves the 1099 generation endpoint.
type TaxHandler struct {
	generate *usecase.Generate1099UseCase
	logger   *slog.Logger
}

func NewTaxHandler(generate *usecase.Generate1099UseCase, logger *slog.Logger) *TaxHandler {
	return &TaxHandler{generate: generate, logger: logger}
}

func (h *TaxHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tax/1099", h.handleGenerate1099)
}

func (h *TaxHandler) handleGenerate1099(w http.ResponseWriter, r *http.Request) {
	var req dto.Generate1099Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	resp, err := h.generate.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
