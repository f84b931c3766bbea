package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/pkordes/hos-logbook/internal/domain"
)

const earthRadiusKm = 6371.0

// StaticProvider draws great-circle legs between waypoints at a constant
// speed. It needs no network and is used when no ORS key is configured.
type StaticProvider struct {
	// SpeedKmh is the assumed average speed. Zero means 80 km/h.
	SpeedKmh float64
	// SampleKm is the spacing of profile points along each leg. Zero means 25 km.
	SampleKm float64
}

// Route implements Provider.
func (s StaticProvider) Route(_ context.Context, waypoints []domain.LatLon) (domain.Route, error) {
	if len(waypoints) < 2 {
		return domain.Route{}, fmt.Errorf("routing.StaticProvider.Route: %w: need at least two waypoints", domain.ErrRouteUnavailable)
	}
	speed := s.SpeedKmh
	if speed <= 0 {
		speed = 80
	}
	sample := s.SampleKm
	if sample <= 0 {
		sample = 25
	}

	profile := []domain.RoutePoint{{Position: waypoints[0]}}
	geometry := []domain.LatLon{waypoints[0]}
	var total float64
	for i := 1; i < len(waypoints); i++ {
		from, to := waypoints[i-1], waypoints[i]
		leg := haversineKm(from, to)
		n := max(int(math.Ceil(leg/sample)), 1)
		for k := 1; k <= n; k++ {
			f := float64(k) / float64(n)
			p := interpolate(from, to, f)
			dist := total + leg*f
			profile = append(profile, domain.RoutePoint{
				Position:                p,
				CumulativeDistanceKm:    dist,
				CumulativeDurationHours: dist / speed,
			})
			geometry = append(geometry, p)
		}
		total += leg
	}

	return domain.Route{
		DistanceKm:    total,
		DurationHours: total / speed,
		Profile:       profile,
		Geometry:      geometry,
	}, nil
}

func haversineKm(a, b domain.LatLon) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// interpolate is linear in lat/lon, which is close enough for sampling.
func interpolate(a, b domain.LatLon, f float64) domain.LatLon {
	return domain.LatLon{Lat: a.Lat + (b.Lat-a.Lat)*f, Lon: a.Lon + (b.Lon-a.Lon)*f}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
