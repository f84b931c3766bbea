package handler

import (
	"net/http"

	"github.com/pkordes/hos-logbook/internal/service"
)

// RecordStatus handles POST /drivers/{driverId}/statuses.
// Accepted transitions return 201 with the new interval; rule rejections
// return 409 with the rejection reason as the error code.
func (s *Server) RecordStatus(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var body RecordStatusRequest
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	at := s.clock.Now()
	if body.At != nil {
		at = *body.At
	}

	decision, iv, err := s.hours.EvaluateTransition(r.Context(), service.TransitionInput{
		DriverID: driverID,
		Status:   body.Status,
		At:       at,
		Cycle:    body.Cycle,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !decision.Allowed {
		rejected(w, decision)
		return
	}
	writeJSON(w, http.StatusCreated, RecordStatusResponse{Decision: decision, Interval: intervalToResponse(iv)})
}

// GetTimeline handles GET /drivers/{driverId}/statuses?from=&to=.
func (s *Server) GetTimeline(w http.ResponseWriter, r *http.Request) {
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

	segs, err := s.timeline.QueryRange(r.Context(), driverID, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	data := make([]TimelineSegment, len(segs))
	for i, seg := range segs {
		data[i] = segmentToResponse(seg)
	}
	writeJSON(w, http.StatusOK, TimelineResponse{From: from, To: to, Data: data})
}
