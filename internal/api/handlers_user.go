package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orbitsound/orbitsound-sync/internal/api/respond"
)

// LikeTrack POST /api/users/{userId}/likes
func (h *Handler) LikeTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackID string `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	e, err := h.d.Library.LikeTrack(r.Context(), mux.Vars(r)["userId"], req.TrackID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, e)
}

// LogListening POST /api/users/{userId}/listening
func (h *Handler) LogListening(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackID string `json:"trackId"`
		Seconds int    `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	e, err := h.d.Library.LogListening(r.Context(), mux.Vars(r)["userId"], req.TrackID, req.Seconds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, e)
}

// RecordMood POST /api/users/{userId}/moods
func (h *Handler) RecordMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	e, err := h.d.Moods.Record(r.Context(), mux.Vars(r)["userId"], req.Mood, req.Note)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, e)
}

// GetInterests GET /api/users/{userId}/interests
func (h *Handler) GetInterests(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	set, err := h.d.Interests.Get(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if set == nil {
		respond.WriteNotFound(w, "no interests saved")
		return
	}
	respond.WriteJSON(w, http.StatusOK, set)
}

// SaveInterests PUT /api/users/{userId}/interests
func (h *Handler) SaveInterests(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interests []string `json:"interests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	set, _, err := h.d.Interests.Save(r.Context(), mux.Vars(r)["userId"], req.Interests)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, set)
}

// ListAchievements GET /api/users/{userId}/achievements
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.d.Achievements.List(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"achievements": list, "count": len(list)})
}

// UnlockAchievement PUT /api/users/{userId}/achievements/{achievementId}
// 201 on the first unlock, 200 when it was already unlocked.
func (h *Handler) UnlockAchievement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	created, err := h.d.Achievements.Unlock(r.Context(), vars["userId"], vars["achievementId"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, map[string]interface{}{"achievementId": vars["achievementId"], "created": created})
}

// ListOutbox GET /api/users/{userId}/outbox?limit=
func (h *Handler) ListOutbox(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 100)
	if !ok {
		return
	}
	entries, err := h.d.Outbox.ListUnsynced(r.Context(), mux.Vars(r)["userId"], limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// Logout POST /api/users/{userId}/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	n, err := h.d.Accounts.Logout(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"cleared": n})
}
