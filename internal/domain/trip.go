package domain

import (
	"time"

	"github.com/google/uuid"
)

// LatLon is a WGS84 coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within latitude/longitude bounds.
func (p LatLon) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Trip is a single routed movement for a driver, created when a route is
// calculated. End, DistanceKm and DurationHours come from the routing provider.
type Trip struct {
	ID            uuid.UUID  `json:"id"`
	DriverID      uuid.UUID  `json:"driver_id"`
	Origin        LatLon     `json:"origin"`
	Destination   LatLon     `json:"destination"`
	Waypoints     []LatLon   `json:"waypoints"`
	Start         time.Time  `json:"start"`
	End           *time.Time `json:"end,omitempty"`
	DistanceKm    float64    `json:"distance_km"`
	DurationHours float64    `json:"duration_hours"`
	CycleType     CycleType  `json:"cycle_type"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RoutePoint is one sample of a route's cumulative distance/time profile.
type RoutePoint struct {
	Position                LatLon  `json:"position"`
	CumulativeDistanceKm    float64 `json:"cumulative_distance_km"`
	CumulativeDurationHours float64 `json:"cumulative_duration_hours"`
}

// RestStop is a planned stop along a route. It is derived from a route
// profile on every request and never persisted.
type RestStop RoutePoint

// Route is what a routing provider returns for an ordered list of waypoints.
type Route struct {
	DistanceKm    float64      `json:"distance_km"`
	DurationHours float64      `json:"duration_hours"`
	Profile       []RoutePoint `json:"profile"`
	Geometry      []LatLon     `json:"geometry,omitempty"`
}
