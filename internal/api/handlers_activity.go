package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/orbitsound/orbitsound-sync/internal/api/respond"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// RecordLogin POST /api/users/{userId}/logins
func (h *Handler) RecordLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity  string     `json:"identity"`
		Success   *bool      `json:"success"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	ev := &model.LoginEvent{
		OwnerID:  mux.Vars(r)["userId"],
		Identity: req.Identity,
		Success:  req.Success == nil || *req.Success,
	}
	if req.Timestamp != nil {
		ev.Timestamp = *req.Timestamp
	}
	if err := h.d.Activity.RecordLogin(r.Context(), ev); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, ev)
}

// RecordSearch POST /api/users/{userId}/searches
func (h *Handler) RecordSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string     `json:"query"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respond.WriteBadRequest(w, "query is required")
		return
	}
	ev := &model.SearchEvent{OwnerID: mux.Vars(r)["userId"], Query: req.Query}
	if req.Timestamp != nil {
		ev.Timestamp = *req.Timestamp
	}
	if err := h.d.Activity.RecordSearch(r.Context(), ev); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, ev)
}

// GetActivitySummary GET /api/users/{userId}/activity?period=24h|7d|30d
func (h *Handler) GetActivitySummary(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	sum, err := h.d.Activity.Summary(r.Context(), mux.Vars(r)["userId"], period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sum)
}

// queryInt parses an optional positive integer query parameter. It writes a
// 400 and returns false on bad input.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		respond.WriteBadRequest(w, name+" must be a positive integer")
		return 0, false
	}
	return v, true
}
