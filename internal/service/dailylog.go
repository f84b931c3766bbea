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

// DailyLogService builds per-day log records and keeps each driver's
// cumulative mileage chain consistent.
type DailyLogService struct {
	timeline *TimelineService
	logs     repo.DailyLogRepo
	trips    repo.TripRepo
	rules    hos.Rules
	carrier  domain.Carrier
	logger   *slog.Logger
}

// NewDailyLogService constructs a DailyLogService. carrier fills the header
// of generated reports.
func NewDailyLogService(timeline *TimelineService, logs repo.DailyLogRepo, trips repo.TripRepo, rules hos.Rules, carrier domain.Carrier, logger *slog.Logger) *DailyLogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyLogService{
		timeline: timeline,
		logs:     logs,
		trips:    trips,
		rules:    rules,
		carrier:  carrier,
		logger:   logger,
	}
}

// BuildDailyLog computes the driver's record for date from the timeline and
// the trips started that day, then rewrites it together with every later
// record's cumulative mileage in one transaction.
//
// For the current day hours are counted up to now. A day whose hours add up
// to more than 24 fails with domain.ErrHoursExceeded and nothing is written.
func (s *DailyLogService) BuildDailyLog(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	if driverID == uuid.Nil {
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w: driver id is required", domain.ErrValidation)
	}
	date = calendarDate(date)
	loc := s.rules.Loc()
	from, to := hos.DayBounds(date, loc)

	end := to
	if now := s.timeline.clock.Now(); now.Before(end) {
		end = now
	}
	if end.Before(from) {
		end = from
	}

	unlock := s.timeline.locks.lock(driverID)
	defer unlock()

	hours := hos.NewHours()
	if end.After(from) {
		var err error
		hours, err = s.timeline.DurationByStatus(ctx, driverID, from, end)
		if err != nil {
			return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w", err)
		}
	}
	if err := hos.CheckDayHours(hours); err != nil {
		s.logger.Error("daily hours exceed 24",
			"driver_id", driverID, "date", date.Format(time.DateOnly), "total", hours.Total())
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w", err)
	}

	trips, err := s.trips.ListStartingBetween(ctx, driverID, from, to)
	if err != nil {
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w", err)
	}
	var km float64
	tripIDs := make([]uuid.UUID, 0, len(trips))
	for _, t := range trips {
		km += t.DistanceKm
		tripIDs = append(tripIDs, t.ID)
	}

	base := 0.0
	prev, err := s.logs.LatestBefore(ctx, driverID, date)
	switch {
	case err == nil:
		base = prev.CumulativeMileage
	case !errors.Is(err, domain.ErrNotFound):
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w", err)
	}

	later, err := s.logs.ListAfter(ctx, driverID, date)
	if err != nil {
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w", err)
	}

	record := domain.DailyLogRecord{
		DriverID:          driverID,
		Date:              date,
		DrivingHours:      hours[domain.StatusDriving],
		OnDutyHours:       hours[domain.StatusOnDuty],
		OffDutyHours:      hours[domain.StatusOffDuty],
		SleeperBerthHours: hours[domain.StatusSleeperBerth],
		MilesToday:        hos.MilesFromKm(km),
		TripIDs:           tripIDs,
	}
	chain := hos.RepairChain(base, append([]domain.DailyLogRecord{record}, later...))

	saved, err := s.logs.SaveChain(ctx, chain)
	if err != nil {
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.BuildDailyLog: %w", err)
	}
	if len(later) > 0 {
		s.logger.Info("mileage chain repaired",
			"driver_id", driverID, "from", date.Format(time.DateOnly), "records", len(saved))
	}
	return saved[0], nil
}

// GetDailyLog returns the stored record for date.
func (s *DailyLogService) GetDailyLog(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	rec, err := s.logs.GetByDate(ctx, driverID, calendarDate(date))
	if err != nil {
		return domain.DailyLogRecord{}, fmt.Errorf("service.DailyLogService.GetDailyLog: %w", err)
	}
	return rec, nil
}

// ListDailyLogs returns stored records with from <= date <= to.
func (s *DailyLogService) ListDailyLogs(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error) {
	from, to = calendarDate(from), calendarDate(to)
	if to.Before(from) {
		return nil, fmt.Errorf("service.DailyLogService.ListDailyLogs: %w: from must not be after to", domain.ErrValidation)
	}
	recs, err := s.logs.ListRange(ctx, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.DailyLogService.ListDailyLogs: %w", err)
	}
	return recs, nil
}

// Report assembles the printable log sheet for a stored record.
func (s *DailyLogService) Report(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyReport, error) {
	date = calendarDate(date)
	rec, err := s.logs.GetByDate(ctx, driverID, date)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("service.DailyLogService.Report: %w", err)
	}

	from, to := hos.DayBounds(date, s.rules.Loc())
	trips, err := s.trips.ListStartingBetween(ctx, driverID, from, to)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("service.DailyLogService.Report: %w", err)
	}

	lines := make([]domain.DailyReportTrip, 0, len(trips))
	for _, t := range trips {
		lines = append(lines, domain.DailyReportTrip{
			TripID:        t.ID,
			Start:         t.Start,
			End:           t.End,
			Miles:         hos.MilesFromKm(t.DistanceKm),
			DurationHours: t.DurationHours,
		})
	}
	return domain.DailyReport{Carrier: s.carrier, Log: rec, Trips: lines}, nil
}

// calendarDate drops the clock part of d, keeping its year, month and day.
func calendarDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
