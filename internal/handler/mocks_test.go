package handler_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/handler"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/service"
)

// Test doubles for the servicer interfaces. Set only the fields a test needs.

type mockTimeline struct {
	queryRange       func(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]hos.Segment, error)
	durationByStatus func(ctx context.Context, driverID uuid.UUID, from, to time.Time) (hos.Hours, error)
}

func (m *mockTimeline) QueryRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]hos.Segment, error) {
	return m.queryRange(ctx, driverID, from, to)
}

func (m *mockTimeline) DurationByStatus(ctx context.Context, driverID uuid.UUID, from, to time.Time) (hos.Hours, error) {
	return m.durationByStatus(ctx, driverID, from, to)
}

type mockHours struct {
	evaluate  func(ctx context.Context, in service.TransitionInput) (hos.Decision, domain.StatusInterval, error)
	remaining func(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (float64, error)
	summary   func(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (service.HoursSummary, error)
}

func (m *mockHours) EvaluateTransition(ctx context.Context, in service.TransitionInput) (hos.Decision, domain.StatusInterval, error) {
	return m.evaluate(ctx, in)
}

func (m *mockHours) RemainingCycleHours(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (float64, error) {
	return m.remaining(ctx, driverID, cycle, at)
}

func (m *mockHours) Summary(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (service.HoursSummary, error) {
	return m.summary(ctx, driverID, cycle, at)
}

type mockDailyLogs struct {
	build  func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error)
	get    func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error)
	list   func(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error)
	report func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyReport, error)
}

func (m *mockDailyLogs) BuildDailyLog(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	return m.build(ctx, driverID, date)
}

func (m *mockDailyLogs) GetDailyLog(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	return m.get(ctx, driverID, date)
}

func (m *mockDailyLogs) ListDailyLogs(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error) {
	return m.list(ctx, driverID, from, to)
}

func (m *mockDailyLogs) Report(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyReport, error) {
	return m.report(ctx, driverID, date)
}

type mockTrips struct {
	plan         func(ctx context.Context, in service.PlanTripInput) (service.PlannedTrip, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listByDriver func(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

func (m *mockTrips) Plan(ctx context.Context, in service.PlanTripInput) (service.PlannedTrip, error) {
	return m.plan(ctx, in)
}

func (m *mockTrips) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}

func (m *mockTrips) ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listByDriver(ctx, driverID, p)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.TimelineServicer = (*mockTimeline)(nil)
	_ handler.HoursServicer    = (*mockHours)(nil)
	_ handler.DailyLogServicer = (*mockDailyLogs)(nil)
	_ handler.TripServicer     = (*mockTrips)(nil)
)
