package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/nice-timetable/backend/internal/api/middleware"
	"github.com/nice-timetable/backend/internal/storage"
	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable"
	ws "github.com/nice-timetable/backend/internal/websocket"
)

// SchoolResponse represents the configured school identity in API responses.
type SchoolResponse struct {
	SchoolType string `json:"school_type"`
	OfficeCode string `json:"office_code"`
	SchoolCode string `json:"school_code"`
	SchoolName string `json:"school_name"`
	Grade      string `json:"grade"`
	ClassName  string `json:"class_name"`
	Configured bool   `json:"configured"`
}

// GetSchool returns the configured school identity.
func GetSchool(settingsRepo *storage.SettingsRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identity, err := settingsRepo.SchoolIdentity(ctx)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read school settings")
			return
		}
		name, err := settingsRepo.SchoolName(ctx)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read school settings")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SchoolResponse{
			SchoolType: identity.SchoolType,
			OfficeCode: identity.OfficeCode,
			SchoolCode: identity.SchoolCode,
			SchoolName: name,
			Grade:      identity.Grade,
			ClassName:  identity.ClassName,
			Configured: identity.Complete(),
		})
	}
}

// UpdateSchoolRequest carries a full school identity from the setup flow.
type UpdateSchoolRequest struct {
	SchoolType string `json:"school_type"`
	OfficeCode string `json:"office_code"`
	SchoolCode string `json:"school_code"`
	SchoolName string `json:"school_name"`
	Grade      string `json:"grade"`
	ClassName  string `json:"class_name"`
}

// UpdateSchool replaces the school identity. Every cached week belongs to
// the previous school, so the cache is purged and surfaces are told to
// reload; the next window load refetches from scratch.
func UpdateSchool(settingsRepo *storage.SettingsRepository, cacheRepo *storage.CacheRepository, broadcaster *ws.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req UpdateSchoolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		identity := models.SchoolIdentity{
			SchoolType: req.SchoolType,
			OfficeCode: req.OfficeCode,
			SchoolCode: req.SchoolCode,
			Grade:      req.Grade,
			ClassName:  req.ClassName,
		}
		if !identity.Complete() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "All school identity fields are required")
			return
		}

		if err := settingsRepo.SetSchoolIdentity(ctx, identity, req.SchoolName); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save school settings")
			return
		}
		if err := cacheRepo.PurgeAll(ctx); err != nil {
			log.Printf("Warning: failed to purge cache after school change: %v", err)
		}
		broadcaster.BroadcastSurfacesReload("school changed")
		broadcaster.BroadcastNotification("info", "School updated", "Schedules will be refetched for "+req.SchoolName)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(req)
	}
}

// GetAliases returns the subject alias table.
func GetAliases(settingsRepo *storage.SettingsRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aliases, err := settingsRepo.Aliases(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read aliases")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(aliases)
	}
}

// UpdateAliasRequest sets or clears the alias pair for one subject.
// Leaving both variants empty removes the entry.
type UpdateAliasRequest struct {
	Subject string `json:"subject"`
	Normal  string `json:"normal"`
	Compact string `json:"compact"`
}

// UpdateAlias writes one alias entry and signals display surfaces to
// re-render, since alias changes affect already-cached weeks. The pending
// reload flag is raised for surfaces that poll instead of listening.
func UpdateAlias(settingsRepo *storage.SettingsRepository, cacheRepo *storage.CacheRepository, broadcaster *ws.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateAliasRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Subject == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Subject is required")
			return
		}

		pair := models.AliasPair{Normal: req.Normal, Compact: req.Compact}
		if err := settingsRepo.SetAlias(r.Context(), req.Subject, pair); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save alias")
			return
		}
		if err := cacheRepo.SetPendingReload(r.Context(), true); err != nil {
			log.Printf("Warning: failed to flag pending reload after alias change: %v", err)
		}
		broadcaster.BroadcastSurfacesReload("aliases changed")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(req)
	}
}

// DaySwitchResponse represents the day-switch boundary as "HH:MM".
type DaySwitchResponse struct {
	Time string `json:"time"`
}

// GetDaySwitchTime returns the configured day-switch boundary.
func GetDaySwitchTime(daySwitch *timetable.DaySwitchScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(DaySwitchResponse{Time: daySwitch.Boundary()})
	}
}

// UpdateDaySwitchTime persists a new boundary and re-arms the scheduler so
// the change takes effect without a restart.
func UpdateDaySwitchTime(settingsRepo *storage.SettingsRepository, daySwitch *timetable.DaySwitchScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DaySwitchResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		hour, minute, err := timetable.ParseBoundary(req.Time)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Time must be HH:MM")
			return
		}

		if err := settingsRepo.SetDaySwitchTime(r.Context(), req.Time); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save day switch time")
			return
		}
		daySwitch.SetBoundary(hour, minute)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(DaySwitchResponse{Time: daySwitch.Boundary()})
	}
}
