package handler

import (
	"errors"
	"net/http"
	"strconv"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/service"
)

// PlanTrip handles POST /drivers/{driverId}/trips.
// The route runs current -> pickup -> dropoff; the response carries the
// stored trip and the rest stops along it.
func (s *Server) PlanTrip(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var body PlanTripRequest
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	in, err := requestToPlan(driverID, body)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	planned, err := s.trips.Plan(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PlanTripResponse(planned))
}

// ListDriverTrips handles GET /drivers/{driverId}/trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListDriverTrips(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var page, limit *int
	if err := queryParam(r, "page", false, &page); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := queryParam(r, "limit", false, &limit); err != nil {
		badRequest(w, err.Error())
		return
	}
	params := domain.NewPaginationParams(page, limit)

	trips, total, err := s.trips.ListByDriver(r.Context(), driverID, params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, TripListResponse{
		Data: trips,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      int(total),
			TotalPages: params.TotalPages(total),
		},
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	var id openapi_types.UUID
	if err := pathParam(r, "tripId", &id); err != nil {
		badRequest(w, err.Error())
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// requestToPlan converts a PlanTripRequest body into service input.
// Returns an error if a location is missing.
func requestToPlan(driverID openapi_types.UUID, body PlanTripRequest) (service.PlanTripInput, error) {
	if body.Current == nil || body.Pickup == nil || body.Dropoff == nil {
		return service.PlanTripInput{}, errors.New("current, pickup and dropoff are required")
	}
	in := service.PlanTripInput{
		DriverID: driverID,
		Current:  *body.Current,
		Pickup:   *body.Pickup,
		Dropoff:  *body.Dropoff,
		Cycle:    body.Cycle,
	}
	if body.Start != nil {
		in.Start = *body.Start
	}
	return in, nil
}
