package hos

import (
	"fmt"
	"time"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// Reason is the machine-readable cause of a rejected transition.
type Reason string

const (
	ReasonDailyDrivingLimit Reason = "DAILY_DRIVING_LIMIT"
	ReasonCycleLimit        Reason = "CYCLE_LIMIT"
	ReasonOutOfOrder        Reason = "OUT_OF_ORDER"
)

// Decision is the outcome of evaluating a proposed duty-status transition.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Err maps a rejected decision to its sentinel error. Allowed decisions
// return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var base error
	switch d.Reason {
	case ReasonDailyDrivingLimit:
		base = domain.ErrDailyDrivingLimit
	case ReasonCycleLimit:
		base = domain.ErrCycleLimit
	case ReasonOutOfOrder:
		base = domain.ErrOutOfOrder
	default:
		base = domain.ErrValidation
	}
	if d.Detail == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, d.Detail)
}

// Allow is the accepting decision.
var Allow = Decision{Allowed: true}

// TransitionState is everything needed to decide on a transition, gathered
// by the caller from the driver's timeline.
type TransitionState struct {
	Proposed domain.DutyStatus
	At       time.Time
	// Current is the driver's open interval, nil when the timeline is empty.
	Current *domain.StatusInterval
	// DrivingToday is driving time over [day start, At).
	DrivingToday float64
	// CycleUsed is driving+on-duty time over the trailing cycle window.
	CycleUsed float64
	Cycle     domain.CycleRule
}

// CheckOrder rejects a transition at a time before the start of the open
// interval.
func CheckOrder(current *domain.StatusInterval, at time.Time) Decision {
	if current != nil && at.Before(current.Start) {
		return Decision{
			Reason: ReasonOutOfOrder,
			Detail: fmt.Sprintf("status time %s precedes current %s interval start %s",
				at.Format(time.RFC3339), current.Status, current.Start.Format(time.RFC3339)),
		}
	}
	return Allow
}

// Evaluate applies the ordering, daily driving and cycle rules in that order
// and returns the first rejection, or Allow.
func Evaluate(rules Rules, st TransitionState) Decision {
	if d := CheckOrder(st.Current, st.At); !d.Allowed {
		return d
	}
	if st.Proposed == domain.StatusDriving && st.DrivingToday >= rules.DailyDrivingLimit {
		return Decision{
			Reason: ReasonDailyDrivingLimit,
			Detail: fmt.Sprintf("%.2f of %.2f driving hours already used today", st.DrivingToday, rules.DailyDrivingLimit),
		}
	}
	if st.Proposed.CountsTowardCycle() && st.CycleUsed >= st.Cycle.MaxHours {
		return Decision{
			Reason: ReasonCycleLimit,
			Detail: fmt.Sprintf("%.2f of %.2f cycle hours used in the last %d days", st.CycleUsed, st.Cycle.MaxHours, st.Cycle.WindowDays),
		}
	}
	return Allow
}
