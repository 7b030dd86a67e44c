// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nice-timetable/backend/internal/storage"
	"github.com/nice-timetable/backend/internal/timetable"
	"github.com/nice-timetable/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	ConnectedSurfaces int    `json:"connected_surfaces"`
	CachedWeeks       int    `json:"cached_weeks"`
	CacheBytes        int64  `json:"cache_bytes"`
	PendingReload     bool   `json:"pending_reload"`
	NextDayBoundary   string `json:"next_day_boundary"`
}

// Status returns a handler that reports hub and cache occupancy, plus the
// next day-switch instant.
func Status(cacheRepo *storage.CacheRepository, hub *websocket.Hub, daySwitch *timetable.DaySwitchScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := cacheRepo.Stats(r.Context())
		if err != nil {
			stats = storage.Stats{}
		}

		response := StatusResponse{
			ConnectedSurfaces: hub.SurfaceCount(),
			CachedWeeks:       stats.Entries,
			CacheBytes:        stats.TotalBytes,
			PendingReload:     cacheRepo.PendingReload(r.Context()),
			NextDayBoundary:   daySwitch.NextBoundary().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
