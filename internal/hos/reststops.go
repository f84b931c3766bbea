package hos

import (
	"math"
	"sort"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// DefaultRestIntervalHours is the driving time between planned rest stops.
const DefaultRestIntervalHours = 4.0

// PlanRestStops walks a route profile in increasing cumulative-duration order
// and emits a rest stop at the first point at or past each multiple of
// intervalHours. Stops carry the point's own cumulative figures; nothing is
// interpolated.
//
// After a stop the next threshold is the next multiple of the interval above
// that stop, so a single long step that crosses several thresholds yields one
// stop. Routes no longer than one interval get no stops. A non-positive
// interval falls back to DefaultRestIntervalHours.
//
// The input slice is not modified and the result depends only on the input.
func PlanRestStops(profile []domain.RoutePoint, intervalHours float64) []domain.RestStop {
	if intervalHours <= 0 {
		intervalHours = DefaultRestIntervalHours
	}
	stops := []domain.RestStop{}
	if len(profile) == 0 {
		return stops
	}

	points := make([]domain.RoutePoint, len(profile))
	copy(points, profile)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CumulativeDurationHours < points[j].CumulativeDurationHours
	})

	if points[len(points)-1].CumulativeDurationHours <= intervalHours {
		return stops
	}

	threshold := intervalHours
	for _, p := range points {
		if p.CumulativeDurationHours < threshold {
			continue
		}
		stops = append(stops, domain.RestStop(p))
		threshold = (math.Floor(p.CumulativeDurationHours/intervalHours) + 1) * intervalHours
	}
	return stops
}
