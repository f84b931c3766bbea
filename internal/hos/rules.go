package hos

import (
	"fmt"
	"time"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// Rules is the regulatory configuration the engine evaluates against.
type Rules struct {
	// DailyDrivingLimit is the maximum driving hours per log day.
	DailyDrivingLimit float64
	// Cycles maps each cycle type to its cap and window length.
	Cycles map[domain.CycleType]domain.CycleRule
	// DefaultCycle applies when a request does not name a cycle.
	DefaultCycle domain.CycleType
	// WindowMode selects rolling or calendar cycle windows.
	WindowMode WindowMode
	// Location defines where log days start and end.
	Location *time.Location
	// RestIntervalHours is the driving time between planned rest stops.
	RestIntervalHours float64
}

// DefaultRules returns the federal property-carrying rules: 11 hours of
// daily driving, 70h/8d default cycle, rolling windows in UTC and a rest
// stop every 4 hours.
func DefaultRules() Rules {
	cycles := make(map[domain.CycleType]domain.CycleRule, len(domain.DefaultCycleRules))
	for k, v := range domain.DefaultCycleRules {
		cycles[k] = v
	}
	return Rules{
		DailyDrivingLimit: 11,
		Cycles:            cycles,
		DefaultCycle:      domain.Cycle70Hour8Day,
		WindowMode:        WindowRolling,
		Location:          time.UTC,
		RestIntervalHours: DefaultRestIntervalHours,
	}
}

// Cycle resolves c to its rule, substituting DefaultCycle when c is empty.
func (r Rules) Cycle(c domain.CycleType) (domain.CycleType, domain.CycleRule, error) {
	if c == "" {
		c = r.DefaultCycle
	}
	rule, ok := r.Cycles[c]
	if !ok {
		return "", domain.CycleRule{}, fmt.Errorf("%w: unknown cycle type %q", domain.ErrValidation, c)
	}
	return c, rule, nil
}

// Loc returns the configured location, or UTC when unset.
func (r Rules) Loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}
