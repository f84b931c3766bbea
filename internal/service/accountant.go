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
)

// TransitionInput is a proposed duty-status change. An empty Cycle means the
// configured default cycle.
type TransitionInput struct {
	DriverID uuid.UUID
	Status   domain.DutyStatus
	At       time.Time
	Cycle    domain.CycleType
}

// HoursSummary is a driver's standing at a point in time.
type HoursSummary struct {
	DriverID         uuid.UUID          `json:"driver_id"`
	At               time.Time          `json:"at"`
	Cycle            domain.CycleType   `json:"cycle"`
	CurrentStatus    *domain.DutyStatus `json:"current_status,omitempty"`
	Today            hos.Hours          `json:"today"`
	DrivingRemaining float64            `json:"driving_remaining"`
	CycleUsed        float64            `json:"cycle_used"`
	CycleRemaining   float64            `json:"cycle_remaining"`
}

// Accountant evaluates transitions against the daily driving and cycle
// limits and records the accepted ones.
type Accountant struct {
	timeline *TimelineService
	rules    hos.Rules
	logger   *slog.Logger
}

// NewAccountant constructs an Accountant over timeline.
func NewAccountant(timeline *TimelineService, rules hos.Rules, logger *slog.Logger) *Accountant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accountant{timeline: timeline, rules: rules, logger: logger}
}

// EvaluateTransition checks ordering, the daily driving limit and the cycle
// limit, in that order, and records the transition only if all pass.
//
// A rule rejection is reported through the returned Decision with a nil
// error and leaves the timeline untouched. The error is reserved for bad
// input and infrastructure failures.
func (a *Accountant) EvaluateTransition(ctx context.Context, in TransitionInput) (hos.Decision, domain.StatusInterval, error) {
	if err := validateTransition(in.DriverID, in.Status, in.At); err != nil {
		return hos.Decision{}, domain.StatusInterval{}, fmt.Errorf("service.Accountant.EvaluateTransition: %w", err)
	}
	_, rule, err := a.rules.Cycle(in.Cycle)
	if err != nil {
		return hos.Decision{}, domain.StatusInterval{}, fmt.Errorf("service.Accountant.EvaluateTransition: %w", err)
	}

	unlock := a.timeline.locks.lock(in.DriverID)
	defer unlock()

	current, err := a.timeline.current(ctx, in.DriverID)
	if err != nil {
		return hos.Decision{}, domain.StatusInterval{}, fmt.Errorf("service.Accountant.EvaluateTransition: %w", err)
	}
	if d := hos.CheckOrder(current, in.At); !d.Allowed {
		a.logRejection(in, d)
		return d, domain.StatusInterval{}, nil
	}

	drivingToday, cycleUsed, err := a.usage(ctx, in.DriverID, rule, in.At)
	if err != nil {
		return hos.Decision{}, domain.StatusInterval{}, fmt.Errorf("service.Accountant.EvaluateTransition: %w", err)
	}

	d := hos.Evaluate(a.rules, hos.TransitionState{
		Proposed:     in.Status,
		At:           in.At,
		Current:      current,
		DrivingToday: drivingToday,
		CycleUsed:    cycleUsed,
		Cycle:        rule,
	})
	if !d.Allowed {
		a.logRejection(in, d)
		return d, domain.StatusInterval{}, nil
	}

	iv, err := a.timeline.record(ctx, in.DriverID, in.Status, in.At)
	if errors.Is(err, domain.ErrOutOfOrder) {
		// Another process appended between our read and the repo's locked re-check.
		d := hos.Decision{Reason: hos.ReasonOutOfOrder, Detail: err.Error()}
		a.logRejection(in, d)
		return d, domain.StatusInterval{}, nil
	}
	if err != nil {
		return hos.Decision{}, domain.StatusInterval{}, fmt.Errorf("service.Accountant.EvaluateTransition: %w", err)
	}
	return hos.Allow, iv, nil
}

// RemainingCycleHours returns the cycle cap minus driving and on-duty hours
// over the window ending at at, floored at zero. A zero at means now.
func (a *Accountant) RemainingCycleHours(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (float64, error) {
	_, rule, err := a.rules.Cycle(cycle)
	if err != nil {
		return 0, fmt.Errorf("service.Accountant.RemainingCycleHours: %w", err)
	}
	at = a.timeline.resolveTo(at)

	from, to := hos.CycleWindow(rule, at, a.rules.WindowMode, a.rules.Loc())
	h, err := a.timeline.DurationByStatus(ctx, driverID, from, to)
	if err != nil {
		return 0, fmt.Errorf("service.Accountant.RemainingCycleHours: %w", err)
	}
	return hos.RemainingCycleHours(rule, h.CycleHours()), nil
}

// Summary reports today's hours, the driving time left today and the cycle
// figures at at. A zero at means now.
func (a *Accountant) Summary(ctx context.Context, driverID uuid.UUID, cycle domain.CycleType, at time.Time) (HoursSummary, error) {
	cycleType, rule, err := a.rules.Cycle(cycle)
	if err != nil {
		return HoursSummary{}, fmt.Errorf("service.Accountant.Summary: %w", err)
	}
	at = a.timeline.resolveTo(at)

	current, err := a.timeline.current(ctx, driverID)
	if err != nil {
		return HoursSummary{}, fmt.Errorf("service.Accountant.Summary: %w", err)
	}

	dayStart := hos.DayStart(at, a.rules.Loc())
	winFrom, _ := hos.CycleWindow(rule, at, a.rules.WindowMode, a.rules.Loc())
	intervals, err := a.timeline.repo.ListOverlapping(ctx, driverID, earliest(dayStart, winFrom), at)
	if err != nil {
		return HoursSummary{}, fmt.Errorf("service.Accountant.Summary: %w", err)
	}

	today := hos.SumByStatus(intervals, dayStart, at)
	used := hos.SumByStatus(intervals, winFrom, at).CycleHours()

	sum := HoursSummary{
		DriverID:         driverID,
		At:               at,
		Cycle:            cycleType,
		Today:            today,
		DrivingRemaining: max(a.rules.DailyDrivingLimit-today[domain.StatusDriving], 0),
		CycleUsed:        used,
		CycleRemaining:   hos.RemainingCycleHours(rule, used),
	}
	if current != nil {
		st := current.Status
		sum.CurrentStatus = &st
	}
	return sum, nil
}

// usage loads the driver's intervals once and returns driving hours since
// local midnight and cycle hours over the trailing window, both ending at at.
func (a *Accountant) usage(ctx context.Context, driverID uuid.UUID, rule domain.CycleRule, at time.Time) (float64, float64, error) {
	dayStart := hos.DayStart(at, a.rules.Loc())
	winFrom, _ := hos.CycleWindow(rule, at, a.rules.WindowMode, a.rules.Loc())

	intervals, err := a.timeline.repo.ListOverlapping(ctx, driverID, earliest(dayStart, winFrom), at)
	if err != nil {
		return 0, 0, err
	}
	driving := hos.SumByStatus(intervals, dayStart, at)[domain.StatusDriving]
	cycle := hos.SumByStatus(intervals, winFrom, at).CycleHours()
	return driving, cycle, nil
}

func (a *Accountant) logRejection(in TransitionInput, d hos.Decision) {
	a.logger.Info("transition rejected",
		"driver_id", in.DriverID,
		"status", in.Status,
		"at", in.At,
		"reason", d.Reason,
		"detail", d.Detail,
	)
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
