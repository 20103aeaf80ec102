package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/orbitsound/orbitsound-sync/internal/api/respond"
	"github.com/orbitsound/orbitsound-sync/internal/cache"
)

// Lookup states shown by the UI.
const (
	stateFresh        = "fresh"
	stateCached       = "cached"
	stateOfflineStale = "offline_stale"
	stateStale        = "stale"
)

type lookupResponse struct {
	Data         interface{} `json:"data"`
	State        string      `json:"state"`
	FromCache    bool        `json:"fromCache"`
	FromMemory   bool        `json:"fromMemory"`
	Offline      bool        `json:"offline"`
	AgeSeconds   int64       `json:"ageSeconds"`
	RefreshError string      `json:"refreshError,omitempty"`
}

func lookupBody[T any](res cache.Result[T]) lookupResponse {
	out := lookupResponse{
		Data:       res.Value,
		State:      stateFresh,
		FromCache:  res.FromCache,
		FromMemory: res.FromMemory,
		Offline:    res.Offline,
		AgeSeconds: int64(res.Age.Seconds()),
	}
	switch {
	case res.Offline:
		out.State = stateOfflineStale
	case res.Stale:
		out.State = stateStale
		if res.RefreshErr != nil {
			out.RefreshError = res.RefreshErr.Error()
		}
	case res.FromCache:
		out.State = stateCached
	}
	return out
}

// lookupOptions reads ?stale=true, which lets a failed online refresh fall
// back to degraded data.
func lookupOptions(r *http.Request) []cache.LookupOption {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("stale")); ok {
		return []cache.LookupOption{cache.WithStaleOnError()}
	}
	return nil
}

// GetRecommendations GET /api/users/{userId}/recommendations?q=
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	res, err := h.d.Recommendations.Get(r.Context(), userID, r.URL.Query().Get("q"), lookupOptions(r)...)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lookupBody(res))
}

// GetWeather GET /api/users/{userId}/weather?lat=&lon=
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		respond.WriteBadRequest(w, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		respond.WriteBadRequest(w, "lon must be a number")
		return
	}
	res, err := h.d.Weather.Current(r.Context(), userID, lat, lon, lookupOptions(r)...)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lookupBody(res))
}

// GetLibrarySection GET /api/users/{userId}/library/{sectionId}
func (h *Handler) GetLibrarySection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.d.Library.Section(r.Context(), vars["userId"], vars["sectionId"], lookupOptions(r)...)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lookupBody(res))
}
