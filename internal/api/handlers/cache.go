package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nice-timetable/backend/internal/api/middleware"
	"github.com/nice-timetable/backend/internal/storage"
	"github.com/nice-timetable/backend/internal/timetable"
	ws "github.com/nice-timetable/backend/internal/websocket"
)

// CacheStatsResponse summarizes the on-disk cache.
type CacheStatsResponse struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
}

// GetCacheStats returns cache entry count and payload size.
func GetCacheStats(cacheRepo *storage.CacheRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := cacheRepo.Stats(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read cache stats")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CacheStatsResponse{Entries: stats.Entries, TotalBytes: stats.TotalBytes})
	}
}

// PurgeCache drops every cached week and signals surfaces to reload, so the
// next window load refetches everything from upstream.
func PurgeCache(cacheRepo *storage.CacheRepository, broadcaster *ws.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cacheRepo.PurgeAll(r.Context()); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to purge cache")
			return
		}
		broadcaster.BroadcastSurfacesReload("cache purged")

		w.WriteHeader(http.StatusNoContent)
	}
}

// PendingReloadResponse reports whether any surface still owes a reload.
type PendingReloadResponse struct {
	Pending bool `json:"pending"`
}

// GetPendingReload reports the pending reload flag. Widget surfaces poll
// this on wake instead of holding a WebSocket connection open.
func GetPendingReload(cacheRepo *storage.CacheRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PendingReloadResponse{Pending: cacheRepo.PendingReload(r.Context())})
	}
}

// AckPendingReload clears the pending reload flag once surfaces have
// re-read the store.
func AckPendingReload(cacheRepo *storage.CacheRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cacheRepo.SetPendingReload(r.Context(), false); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to clear reload flag")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// PruneCache drops cached weeks outside the retention window. Safe to call
// repeatedly.
func PruneCache(orchestrator *timetable.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := orchestrator.PruneOldEntries(r.Context()); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to prune cache")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
