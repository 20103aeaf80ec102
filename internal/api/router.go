// Package api is the HTTP surface of the OrbitSound sync service.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/activity"
	"github.com/orbitsound/orbitsound-sync/internal/api/recovery"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/services"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Recommendations *services.RecommendationService
	Weather         *services.WeatherService
	Library         *services.LibraryService
	Interests       *services.InterestService
	Moods           *services.MoodService
	Achievements    *services.AchievementService
	Accounts        *services.AccountService
	Activity        *activity.Engine
	Outbox          *outbox.Queue

	// Healthy reports aggregated service health; nil means always healthy.
	Healthy      func() bool
	Connectivity health.Connectivity
	Log          zerolog.Logger
}

// Handler groups the HTTP handlers.
type Handler struct {
	d Deps
}

// NewRouter creates the router with every API route registered.
func NewRouter(d Deps) *mux.Router {
	h := &Handler{d: d}
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware(d.Log))

	// Health and metrics
	router.HandleFunc("/api/health", h.CheckHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	u := router.PathPrefix("/api/users/{userId}").Subrouter()

	// Cached catalog reads
	u.HandleFunc("/recommendations", h.GetRecommendations).Methods(http.MethodGet)
	u.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	u.HandleFunc("/library/{sectionId}", h.GetLibrarySection).Methods(http.MethodGet)

	// Local writes queued for sync
	u.HandleFunc("/likes", h.LikeTrack).Methods(http.MethodPost)
	u.HandleFunc("/listening", h.LogListening).Methods(http.MethodPost)
	u.HandleFunc("/moods", h.RecordMood).Methods(http.MethodPost)
	u.HandleFunc("/interests", h.GetInterests).Methods(http.MethodGet)
	u.HandleFunc("/interests", h.SaveInterests).Methods(http.MethodPut)
	u.HandleFunc("/achievements", h.ListAchievements).Methods(http.MethodGet)
	u.HandleFunc("/achievements/{achievementId}", h.UnlockAchievement).Methods(http.MethodPut)

	// Activity
	u.HandleFunc("/logins", h.RecordLogin).Methods(http.MethodPost)
	u.HandleFunc("/searches", h.RecordSearch).Methods(http.MethodPost)
	u.HandleFunc("/activity", h.GetActivitySummary).Methods(http.MethodGet)

	// Sync state and lifecycle
	u.HandleFunc("/outbox", h.ListOutbox).Methods(http.MethodGet)
	u.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	return router
}
