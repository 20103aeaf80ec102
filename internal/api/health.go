package api

import (
	"net/http"
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/api/respond"
)

// CheckHealth handles GET /api/health.
// Always returns 200; the body reports healthy/unhealthy and connectivity.
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.d.Healthy != nil && !h.d.Healthy() {
		status = "unhealthy"
	}
	online := false
	if h.d.Connectivity != nil {
		online = h.d.Connectivity.IsOnline()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"online":    online,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
