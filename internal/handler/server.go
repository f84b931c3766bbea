// Package handler implements the HTTP surface of the logbook API. Handlers
// are methods on Server, split into one file per resource, and depend on
// small servicer interfaces rather than concrete services.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/service"
)

// TimelineServicer reads a driver's duty-status timeline.
type TimelineServicer interface {
	QueryRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]hos.Segment, error)
	DurationByStatus(ctx context.Context, driverID uuid.UUID, from, to time.Time) (hos.Hours, error)
}

// HoursServicer evaluates transitions and reports hours against the limits.
type HoursServicer interface {
	EvaluateTransition(ctx context.Context, in service.TransitionInput) (hos.Decision, domain.StatusInterval, error)
	RemainingCycleHours(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (float64, error)
	Summary(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (service.HoursSummary, error)
}

// DailyLogServicer builds and reads daily log records.
type DailyLogServicer interface {
	BuildDailyLog(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error)
	GetDailyLog(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error)
	ListDailyLogs(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error)
	Report(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyReport, error)
}

// TripServicer plans and reads trips.
type TripServicer interface {
	Plan(ctx context.Context, in service.PlanTripInput) (service.PlannedTrip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	timeline TimelineServicer
	hours    HoursServicer
	logs     DailyLogServicer
	trips    TripServicer
	clock    domain.Clock
	logger   *slog.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithClock sets the clock used to default missing timestamps.
func WithClock(c domain.Clock) Option { return func(s *Server) { s.clock = c } }

// WithLogger sets the logger for unexpected errors.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer constructs the Server with all its dependencies. Any servicer
// may be nil in tests that do not reach its routes.
func NewServer(timeline TimelineServicer, hours HoursServicer, logs DailyLogServicer, trips TripServicer, opts ...Option) *Server {
	s := &Server{
		timeline: timeline,
		hours:    hours,
		logs:     logs,
		trips:    trips,
		clock:    domain.SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Handler returns the API routes on a fresh chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Get("/trips/{tripId}", s.GetTrip)

	r.Route("/drivers/{driverId}", func(r chi.Router) {
		r.Post("/statuses", s.RecordStatus)
		r.Get("/statuses", s.GetTimeline)

		r.Get("/hours", s.GetHoursByStatus)
		r.Get("/hours/summary", s.GetHoursSummary)
		r.Get("/cycle/remaining", s.GetCycleRemaining)

		r.Get("/daily-logs", s.ListDailyLogs)
		r.Post("/daily-logs/{date}", s.BuildDailyLog)
		r.Get("/daily-logs/{date}", s.GetDailyLog)
		r.Get("/daily-logs/{date}/report", s.GetDailyReport)

		r.Post("/trips", s.PlanTrip)
		r.Get("/trips", s.ListDriverTrips)
	})
}
