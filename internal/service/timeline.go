// Package service contains the business logic of the HOS logbook.
// Services validate inputs, run the hos engine over data loaded from the
// repos and serialize per-driver writes. No SQL lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/repo"
)

// TimelineService owns each driver's duty-status timeline.
type TimelineService struct {
	repo  repo.StatusRepo
	clock domain.Clock
	locks *driverLocks
}

// NewTimelineService constructs a TimelineService. A nil clock means the
// system clock.
func NewTimelineService(r repo.StatusRepo, clock domain.Clock) *TimelineService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &TimelineService{repo: r, clock: clock, locks: newDriverLocks()}
}

// RecordStatus closes the driver's open interval at `at` and opens a new
// interval in status. It fails with domain.ErrOutOfOrder when `at` is
// earlier than the start of the open interval.
func (s *TimelineService) RecordStatus(ctx context.Context, driverID uuid.UUID, status domain.DutyStatus, at time.Time) (domain.StatusInterval, error) {
	if err := validateTransition(driverID, status, at); err != nil {
		return domain.StatusInterval{}, fmt.Errorf("service.TimelineService.RecordStatus: %w", err)
	}

	unlock := s.locks.lock(driverID)
	defer unlock()

	iv, err := s.record(ctx, driverID, status, at)
	if err != nil {
		return domain.StatusInterval{}, fmt.Errorf("service.TimelineService.RecordStatus: %w", err)
	}
	return iv, nil
}

// record appends without taking the driver lock. Callers must hold it.
func (s *TimelineService) record(ctx context.Context, driverID uuid.UUID, status domain.DutyStatus, at time.Time) (domain.StatusInterval, error) {
	current, err := s.current(ctx, driverID)
	if err != nil {
		return domain.StatusInterval{}, err
	}
	if d := hos.CheckOrder(current, at); !d.Allowed {
		return domain.StatusInterval{}, d.Err()
	}
	return s.repo.Append(ctx, domain.StatusInterval{DriverID: driverID, Status: status, Start: at})
}

// current returns the open interval, or nil for a driver with no history.
func (s *TimelineService) current(ctx context.Context, driverID uuid.UUID) (*domain.StatusInterval, error) {
	iv, err := s.repo.Current(ctx, driverID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// QueryRange returns the intervals overlapping [from, to), clipped to the
// range and ordered by start. A zero to means now.
func (s *TimelineService) QueryRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]hos.Segment, error) {
	to = s.resolveTo(to)
	if !to.After(from) {
		return []hos.Segment{}, nil
	}
	intervals, err := s.repo.ListOverlapping(ctx, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.TimelineService.QueryRange: %w", err)
	}
	return hos.ClipAll(intervals, from, to), nil
}

// DurationByStatus sums clipped hours per status over [from, to). The result
// always holds all four statuses. A zero to means now.
func (s *TimelineService) DurationByStatus(ctx context.Context, driverID uuid.UUID, from, to time.Time) (hos.Hours, error) {
	to = s.resolveTo(to)
	if !to.After(from) {
		return hos.NewHours(), nil
	}
	intervals, err := s.repo.ListOverlapping(ctx, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.TimelineService.DurationByStatus: %w", err)
	}
	return hos.SumByStatus(intervals, from, to), nil
}

func (s *TimelineService) resolveTo(to time.Time) time.Time {
	if to.IsZero() {
		return s.clock.Now()
	}
	return to
}

func validateTransition(driverID uuid.UUID, status domain.DutyStatus, at time.Time) error {
	if driverID == uuid.Nil {
		return fmt.Errorf("%w: driver id is required", domain.ErrValidation)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown duty status %q", domain.ErrValidation, status)
	}
	if at.IsZero() {
		return fmt.Errorf("%w: status time is required", domain.ErrValidation)
	}
	return nil
}
