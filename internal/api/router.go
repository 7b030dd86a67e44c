// Package api provides HTTP routing and handlers for the local REST API.
package api

import (
	"github.com/gorilla/mux"
	"github.com/nice-timetable/backend/internal/api/handlers"
	"github.com/nice-timetable/backend/internal/api/middleware"
	"github.com/nice-timetable/backend/internal/storage"
	"github.com/nice-timetable/backend/internal/timetable"
	"github.com/nice-timetable/backend/internal/websocket"
)

// Services bundles the daemon's long-lived components for route wiring.
type Services struct {
	DB           *storage.DB
	CacheRepo    *storage.CacheRepository
	SettingsRepo *storage.SettingsRepository
	Hub          *websocket.Hub
	Broadcaster  *websocket.Broadcaster
	Client       *timetable.Client
	Orchestrator *timetable.Orchestrator
	DaySwitch    *timetable.DaySwitchScheduler
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.CacheRepo, s.Hub, s.DaySwitch)).Methods("GET")

	// WebSocket invalidation feed for display surfaces
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")

	// Week endpoints
	api.HandleFunc("/weeks", handlers.GetWindow(s.Orchestrator)).Methods("GET")
	api.HandleFunc("/weeks/load", handlers.LoadInitialWindow(s.Orchestrator)).Methods("POST")
	api.HandleFunc("/weeks/{offset:-?[0-9]+}", handlers.GetWeek(s.Orchestrator)).Methods("GET")
	api.HandleFunc("/weeks/{offset:-?[0-9]+}/revalidate", handlers.RevalidateWeek(s.Orchestrator)).Methods("POST")
	api.HandleFunc("/window/extend", handlers.ExtendWindow(s.Orchestrator)).Methods("POST")

	// Cache administration
	api.HandleFunc("/cache", handlers.GetCacheStats(s.CacheRepo)).Methods("GET")
	api.HandleFunc("/cache", handlers.PurgeCache(s.CacheRepo, s.Broadcaster)).Methods("DELETE")
	api.HandleFunc("/cache/prune", handlers.PruneCache(s.Orchestrator)).Methods("POST")
	api.HandleFunc("/cache/pending-reload", handlers.GetPendingReload(s.CacheRepo)).Methods("GET")
	api.HandleFunc("/cache/pending-reload", handlers.AckPendingReload(s.CacheRepo)).Methods("DELETE")

	// School directory proxy for the setup flow
	api.HandleFunc("/schools/search", handlers.SearchSchools(s.Client)).Methods("GET")
	api.HandleFunc("/schools/classes", handlers.ListClasses(s.Client)).Methods("GET")

	// Settings endpoints
	api.HandleFunc("/settings/school", handlers.GetSchool(s.SettingsRepo)).Methods("GET")
	api.HandleFunc("/settings/school", handlers.UpdateSchool(s.SettingsRepo, s.CacheRepo, s.Broadcaster)).Methods("PUT")
	api.HandleFunc("/settings/aliases", handlers.GetAliases(s.SettingsRepo)).Methods("GET")
	api.HandleFunc("/settings/aliases", handlers.UpdateAlias(s.SettingsRepo, s.CacheRepo, s.Broadcaster)).Methods("PUT")
	api.HandleFunc("/settings/day-switch", handlers.GetDaySwitchTime(s.DaySwitch)).Methods("GET")
	api.HandleFunc("/settings/day-switch", handlers.UpdateDaySwitchTime(s.SettingsRepo, s.DaySwitch)).Methods("PUT")

	return r
}
