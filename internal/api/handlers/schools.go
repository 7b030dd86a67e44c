package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nice-timetable/backend/internal/api/middleware"
	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable"
)

// SearchSchools proxies the upstream school directory for the setup flow.
// Query params: name (required), type (optional school kind filter).
func SearchSchools(client *timetable.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Query parameter 'name' is required")
			return
		}
		schoolType := r.URL.Query().Get("type")

		schools, err := client.SearchSchools(r.Context(), name, schoolType)
		if err != nil {
			writeUpstreamError(w, err, "Failed to search schools")
			return
		}
		if schools == nil {
			schools = []models.School{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schools)
	}
}

// ListClasses returns the grade/class combinations registered for one
// school. Query params: office_code, school_code (both required).
func ListClasses(client *timetable.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		officeCode := r.URL.Query().Get("office_code")
		schoolCode := r.URL.Query().Get("school_code")
		if officeCode == "" || schoolCode == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Query parameters 'office_code' and 'school_code' are required")
			return
		}

		classes, err := client.FetchClasses(r.Context(), officeCode, schoolCode)
		if err != nil {
			writeUpstreamError(w, err, "Failed to list classes")
			return
		}
		if classes == nil {
			classes = []models.SchoolClass{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(classes)
	}
}

// writeUpstreamError maps upstream fetch failures onto the API error
// envelope: upstream HTTP errors become 502, everything else 500.
func writeUpstreamError(w http.ResponseWriter, err error, message string) {
	var statusErr *timetable.StatusError
	if errors.As(err, &statusErr) {
		middleware.WriteErrorWithDetails(w, http.StatusBadGateway, middleware.ErrInternalError, message, err.Error())
		return
	}
	middleware.WriteErrorWithDetails(w, http.StatusInternalServerError, middleware.ErrInternalError, message, err.Error())
}
