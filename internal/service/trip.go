package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/repo"
)

// RoutingProvider computes a route through an ordered list of waypoints.
// Implementations own their own timeouts and retries.
type RoutingProvider interface {
	Route(ctx context.Context, waypoints []domain.LatLon) (domain.Route, error)
}

// PlanTripInput describes a trip to route: from the driver's current
// location through the pickup to the dropoff, starting at Start.
type PlanTripInput struct {
	DriverID uuid.UUID
	Current  domain.LatLon
	Pickup   domain.LatLon
	Dropoff  domain.LatLon
	Start    time.Time
	Cycle    domain.CycleType
}

// PlannedTrip is a persisted trip plus the derived rest stops and route
// geometry, which are recomputed on every plan and never stored.
type PlannedTrip struct {
	Trip      domain.Trip       `json:"trip"`
	RestStops []domain.RestStop `json:"rest_stops"`
	Geometry  []domain.LatLon   `json:"geometry"`
}

// TripService routes and stores trips.
type TripService struct {
	repo    repo.TripRepo
	routing RoutingProvider
	rules   hos.Rules
	clock   domain.Clock
	logger  *slog.Logger
}

// NewTripService constructs a TripService. A nil clock means the system clock.
func NewTripService(r repo.TripRepo, routing RoutingProvider, rules hos.Rules, clock domain.Clock, logger *slog.Logger) *TripService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TripService{repo: r, routing: routing, rules: rules, clock: clock, logger: logger}
}

// Plan routes current → pickup → dropoff, plans rest stops along the route
// and persists the trip. A routing failure is reported as
// domain.ErrRouteUnavailable and nothing is stored.
func (s *TripService) Plan(ctx context.Context, in PlanTripInput) (PlannedTrip, error) {
	if err := validatePlan(in); err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}
	cycleType, _, err := s.rules.Cycle(in.Cycle)
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}
	if s.routing == nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Plan: %w: no routing provider configured", domain.ErrRouteUnavailable)
	}

	start := in.Start
	if start.IsZero() {
		start = s.clock.Now()
	}

	waypoints := []domain.LatLon{in.Current, in.Pickup, in.Dropoff}
	route, err := s.routing.Route(ctx, waypoints)
	if err != nil {
		s.logger.Warn("route lookup failed", "driver_id", in.DriverID, "error", err)
		if !errors.Is(err, domain.ErrRouteUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrRouteUnavailable, err)
		}
		return PlannedTrip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}

	end := start.Add(time.Duration(route.DurationHours * float64(time.Hour)))
	trip, err := s.repo.Create(ctx, domain.Trip{
		DriverID:      in.DriverID,
		Origin:        in.Current,
		Destination:   in.Dropoff,
		Waypoints:     waypoints,
		Start:         start,
		End:           &end,
		DistanceKm:    route.DistanceKm,
		DurationHours: route.DurationHours,
		CycleType:     cycleType,
	})
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}

	geometry := route.Geometry
	if geometry == nil {
		geometry = []domain.LatLon{}
	}
	return PlannedTrip{
		Trip:      trip,
		RestStops: hos.PlanRestStops(route.Profile, s.rules.RestIntervalHours),
		Geometry:  geometry,
	}, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// ListByDriver returns one page of a driver's trips, newest first, and the
// driver's total trip count.
func (s *TripService) ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.ListByDriverPaged(ctx, driverID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListByDriver: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

func validatePlan(in PlanTripInput) error {
	if in.DriverID == uuid.Nil {
		return fmt.Errorf("%w: driver id is required", domain.ErrValidation)
	}
	for name, p := range map[string]domain.LatLon{"current": in.Current, "pickup": in.Pickup, "dropoff": in.Dropoff} {
		if !p.Valid() {
			return fmt.Errorf("%w: %s location out of range", domain.ErrValidation, name)
		}
	}
	return nil
}
