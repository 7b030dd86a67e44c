package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nice-timetable/backend/internal/api/middleware"
	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable"
)

// WeekResponse is one materialized week plus its error marker, if any.
type WeekResponse struct {
	models.ScheduleWeek
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// WindowResponse lists the currently materialized offsets.
type WindowResponse struct {
	Offsets []int `json:"offsets"`
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, timetable.ErrBadConfiguration):
		return "configuration"
	case errors.Is(err, timetable.ErrNoSchedule):
		return "empty"
	default:
		var decodeErr *timetable.DecodeError
		if errors.As(err, &decodeErr) {
			return "decode"
		}
		return "transport"
	}
}

func weekResponse(offset int, days []models.ScheduleDay, err error) WeekResponse {
	resp := WeekResponse{ScheduleWeek: models.ScheduleWeek{WeekOffset: offset, Days: days}}
	if days == nil {
		resp.Days = []models.ScheduleDay{}
	}
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = errorKind(err)
	}
	return resp
}

func offsetVar(r *http.Request) (int, bool) {
	offset, err := strconv.Atoi(mux.Vars(r)["offset"])
	return offset, err == nil
}

// GetWindow returns the materialized window's offsets.
func GetWindow(orchestrator *timetable.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(WindowResponse{Offsets: orchestrator.Window()})
	}
}

// GetWeek returns the week at one offset. A week that is not yet
// materialized is loaded on demand, honoring the cache; ?refresh=true
// force-fetches instead. Error markers are reported inline so one failed
// week never hides the rest.
func GetWeek(orchestrator *timetable.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, ok := offsetVar(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid week offset")
			return
		}

		if r.URL.Query().Get("refresh") == "true" {
			orchestrator.Revalidate(r.Context(), offset)
		} else {
			orchestrator.Load(r.Context(), offset)
		}
		days, weekErr, _ := orchestrator.Week(offset)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(weekResponse(offset, days, weekErr))
	}
}

// LoadInitialWindow fetches offsets -1, 0 and +1 concurrently and returns
// the resulting window, one entry per offset with per-offset errors.
func LoadInitialWindow(orchestrator *timetable.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orchestrator.LoadInitialWindow(r.Context())

		var weeks []WeekResponse
		for _, offset := range orchestrator.Window() {
			days, weekErr, _ := orchestrator.Week(offset)
			weeks = append(weeks, weekResponse(offset, days, weekErr))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(weeks)
	}
}

// RevalidateWeek force-fetches one offset (pull-to-refresh). The response
// carries the refreshed week or its error marker; a transport failure is
// reported inline, not as an HTTP error, since the stale week is still
// displayable.
func RevalidateWeek(orchestrator *timetable.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, ok := offsetVar(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid week offset")
			return
		}

		orchestrator.Revalidate(r.Context(), offset)
		days, weekErr, _ := orchestrator.Week(offset)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(weekResponse(offset, days, weekErr))
	}
}

// ExtendWindowRequest names the offset the user has scrolled to.
type ExtendWindowRequest struct {
	ToOffset int `json:"to_offset"`
}

// ExtendWindowResponse reports which offset, if any, was added.
type ExtendWindowResponse struct {
	Extended bool `json:"extended"`
	Offset   int  `json:"offset,omitempty"`
}

// ExtendWindow grows the pagination window by one adjacent offset when the
// visible offset has reached the window's edge.
func ExtendWindow(orchestrator *timetable.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExtendWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		offset, extended := orchestrator.ExtendWindow(r.Context(), req.ToOffset)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ExtendWindowResponse{Extended: extended, Offset: offset})
	}
}
