package api

import (
	"errors"
	"net/http"

	"github.com/orbitsound/orbitsound-sync/internal/api/respond"
	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/services"
)

// Stable error reasons rendered by the UI.
const (
	reasonOfflineEmpty  = "offline_empty"
	reasonRefreshFailed = "refresh_failed"
	reasonStorageFailed = "storage_failed"
)

// writeServiceError maps service errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case services.IsInvalidArgument(err),
		errors.Is(err, outbox.ErrUnknownOperation),
		errors.Is(err, outbox.ErrMissingOwner):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, cache.ErrOfflineNoCache):
		respond.WriteError(w, http.StatusServiceUnavailable, reasonOfflineEmpty, "offline and no usable cached data")
	case cache.IsRemoteFetchError(err):
		respond.WriteError(w, http.StatusBadGateway, reasonRefreshFailed, err.Error())
	case cache.IsStorageError(err):
		h.d.Log.Error().Stack().Err(err).Str("path", r.URL.Path).Msg("local storage failure")
		respond.WriteError(w, http.StatusInternalServerError, reasonStorageFailed, "local storage failure")
	default:
		h.d.Log.Error().Stack().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respond.WriteInternalError(w, err.Error())
	}
}
