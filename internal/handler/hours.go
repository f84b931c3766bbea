package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// GetHoursByStatus handles GET /drivers/{driverId}/hours?from=&to=.
func (s *Server) GetHoursByStatus(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	from, to, err := timeRange(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	hours, err := s.timeline.DurationByStatus(r.Context(), driverID, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HoursResponse{From: from, To: to, Hours: hours, Total: hours.Total()})
}

// GetCycleRemaining handles GET /drivers/{driverId}/cycle/remaining?cycle=&at=.
func (s *Server) GetCycleRemaining(w http.ResponseWriter, r *http.Request) {
	driverID, cycle, at, ok := s.cycleQuery(w, r)
	if !ok {
		return
	}
	remaining, err := s.hours.RemainingCycleHours(r.Context(), driverID, cycle, at)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CycleRemainingResponse{Cycle: cycle, At: at, Remaining: remaining})
}

// GetHoursSummary handles GET /drivers/{driverId}/hours/summary?cycle=&at=.
func (s *Server) GetHoursSummary(w http.ResponseWriter, r *http.Request) {
	driverID, cycle, at, ok := s.cycleQuery(w, r)
	if !ok {
		return
	}
	summary, err := s.hours.Summary(r.Context(), driverID, cycle, at)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// cycleQuery reads the driver ID plus the optional cycle and at parameters.
// An empty cycle is passed through for the service to default; a missing
// at means now. It writes the 400 itself and reports false on bad input.
func (s *Server) cycleQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, domain.CycleType, time.Time, bool) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return uuid.Nil, "", time.Time{}, false
	}
	var cycle string
	if err := queryParam(r, "cycle", false, &cycle); err != nil {
		badRequest(w, err.Error())
		return uuid.Nil, "", time.Time{}, false
	}
	var at *time.Time
	if err := queryParam(r, "at", false, &at); err != nil {
		badRequest(w, err.Error())
		return uuid.Nil, "", time.Time{}, false
	}
	if at == nil {
		now := s.clock.Now()
		at = &now
	}
	return driverID, domain.CycleType(cycle), *at, true
}
