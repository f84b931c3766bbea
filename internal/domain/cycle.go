package domain

import "fmt"

// CycleType names the regulatory cycle a driver operates under.
type CycleType string

const (
	Cycle70Hour8Day CycleType = "70_8"
	Cycle60Hour7Day CycleType = "60_7"
)

// CycleRule is the cap and window length behind a CycleType.
type CycleRule struct {
	MaxHours   float64 `toml:"max_hours"`
	WindowDays int     `toml:"window_days"`
}

// DefaultCycleRules holds the federal property-carrying limits.
var DefaultCycleRules = map[CycleType]CycleRule{
	Cycle70Hour8Day: {MaxHours: 70, WindowDays: 8},
	Cycle60Hour7Day: {MaxHours: 60, WindowDays: 7},
}

// ParseCycleType converts s into a CycleType.
// Returns ErrValidation for unknown cycles.
func ParseCycleType(s string) (CycleType, error) {
	c := CycleType(s)
	if _, ok := DefaultCycleRules[c]; !ok {
		return "", fmt.Errorf("%w: unknown cycle type %q", ErrValidation, s)
	}
	return c, nil
}
