// Package domain contains the core data types for the HOS logbook.
// It has no dependencies on other internal packages and is imported by every
// other internal package (hos, repo, service, handler).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DutyStatus is one of the four regulatory duty statuses.
type DutyStatus string

const (
	StatusOffDuty      DutyStatus = "off_duty"
	StatusSleeperBerth DutyStatus = "sleeper_berth"
	StatusDriving      DutyStatus = "driving"
	StatusOnDuty       DutyStatus = "on_duty"
)

// AllStatuses lists every duty status in log-sheet order.
var AllStatuses = []DutyStatus{StatusOffDuty, StatusSleeperBerth, StatusDriving, StatusOnDuty}

// ParseDutyStatus converts s into a DutyStatus.
// Returns ErrValidation for anything that is not one of the four statuses.
func ParseDutyStatus(s string) (DutyStatus, error) {
	st := DutyStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown duty status %q", ErrValidation, s)
	}
	return st, nil
}

// Valid reports whether s is one of the four known statuses.
func (s DutyStatus) Valid() bool {
	switch s {
	case StatusOffDuty, StatusSleeperBerth, StatusDriving, StatusOnDuty:
		return true
	}
	return false
}

// CountsTowardCycle reports whether time spent in s is charged against the
// cycle cap (driving and on-duty-not-driving).
func (s DutyStatus) CountsTowardCycle() bool {
	return s == StatusDriving || s == StatusOnDuty
}

// StatusInterval is one entry in a driver's duty-status timeline.
// End is nil while the interval is the driver's current (open) status.
type StatusInterval struct {
	ID        uuid.UUID  `json:"id"`
	DriverID  uuid.UUID  `json:"driver_id"`
	Status    DutyStatus `json:"status"`
	Start     time.Time  `json:"start"`
	End       *time.Time `json:"end,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Open reports whether the interval has not been closed yet.
func (i StatusInterval) Open() bool {
	return i.End == nil
}
