package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. unknown duty status, missing coordinates).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrOutOfOrder is returned when a new duty status is reported at a time
// earlier than the start of the driver's currently open interval.
var ErrOutOfOrder = errors.New("status out of order")

// ErrDailyDrivingLimit marks a transition into driving rejected because the
// driver already reached the daily driving cap.
var ErrDailyDrivingLimit = errors.New("daily driving limit reached")

// ErrCycleLimit marks a transition into driving or on-duty rejected because
// the driver already reached the cycle cap for the trailing window.
var ErrCycleLimit = errors.New("cycle limit reached")

// ErrHoursExceeded signals that the hours computed for a single day add up to
// more than 24. It means the stored timeline is corrupt and is never clamped.
var ErrHoursExceeded = errors.New("daily hours exceed 24")

// ErrRouteUnavailable is returned when the routing provider fails. The core
// does not retry or fall back to another provider.
var ErrRouteUnavailable = errors.New("route unavailable")
