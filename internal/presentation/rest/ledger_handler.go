package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// LedgerHandler serves the journal entry and balance endpoints.
type LedgerHandler struct {
	createEntry *usecase.CreateEntryUseCase
	reverse     *usecase.ReverseEntryUseCase
	balance     *usecase.GetBalanceUseCase
	activity    *usecase.AccountActivityUseCase
	logger      *slog.Logger
}

func NewLedgerHandler(
	createEntry *usecase.CreateEntryUseCase,
	reverse *usecase.ReverseEntryUseCase,
	balance *usecase.GetBalanceUseCase,
	activity *usecase.AccountActivityUseCase,
	logger *slog.Logger,
) *LedgerHandler {
	return &LedgerHandler{
		createEntry: createEntry,
		reverse:     reverse,
		balance:     balance,
		activity:    activity,
		logger:      logger,
	}
}

func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/entries", h.handleCreateEntry)
	r.Post("/entries/{id}/reverse", h.handleReverseEntry)
	r.Get("/accounts/{id}/balance", h.handleGetBalance)
	r.Get("/accounts/{id}/balances/dimensions", h.handleDimensionalBalances)
	r.Get("/accounts/{id}/activity", h.handleActivity)
}

func (h *LedgerHandler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	resp, err := h.createEntry.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LedgerHandler) handleReverseEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid entry id")
		return
	}
	var req dto.ReverseEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	req.EntryID = entryID
	resp, err := h.reverse.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LedgerHandler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	orgID, accountID, ok := orgAndID(w, r)
	if !ok {
		return
	}
	req := dto.BalanceRequest{OrgID: orgID, AccountID: accountID}
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		t, err := time.Parse(time.DateOnly, asOf)
		if err != nil {
			writeBadRequest(w, "as_of must be YYYY-MM-DD")
			return
		}
		req.AsOf = t
	}
	resp, err := h.balance.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LedgerHandler) handleDimensionalBalances(w http.ResponseWriter, r *http.Request) {
	orgID, accountID, ok := orgAndID(w, r)
	if !ok {
		return
	}
	filter, err := dimensionsFromQuery(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	resp, err := h.balance.Dimensional(r.Context(), orgID, accountID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LedgerHandler) handleActivity(w http.ResponseWriter, r *http.Request) {
	orgID, accountID, ok := orgAndID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := dto.ActivityRequest{OrgID: orgID, AccountID: accountID}

	var err error
	if req.From, err = parseDateParam(q.Get("from")); err != nil {
		writeBadRequest(w, "from must be YYYY-MM-DD")
		return
	}
	if req.To, err = parseDateParam(q.Get("to")); err != nil {
		writeBadRequest(w, "to must be YYYY-MM-DD")
		return
	}
	if limit := q.Get("limit"); limit != "" {
		req.Limit, _ = strconv.Atoi(limit)
	}
	if offset := q.Get("offset"); offset != "" {
		req.Offset, _ = strconv.Atoi(offset)
	}

	resp, err := h.activity.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// orgAndID extracts the org id from the query and the resource id from the
// route. Writes the error response itself when either is missing.
func orgAndID(w http.ResponseWriter, r *http.Request) (orgID, id uuid.UUID, ok bool) {
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		writeBadRequest(w, "org_id query parameter is required")
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid resource id")
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, id, true
}

func parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func dimensionsFromQuery(r *http.Request) (valueobject.Dimensions, error) {
	var dims valueobject.Dimensions
	q := r.URL.Query()
	for param, target := range map[string]**uuid.UUID{
		"owner_id":    &dims.OwnerID,
		"property_id": &dims.PropertyID,
		"tenant_id":   &dims.TenantID,
		"vendor_id":   &dims.VendorID,
		"unit_id":     &dims.UnitID,
	} {
		if v := q.Get(param); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return valueobject.Dimensions{}, fmt.Errorf("invalid %s", param)
			}
			*target = &id
		}
	}
	return dims, nil
}
