// Package routing holds RoutingProvider adapters: the OpenRouteService
// client, a SQLite-backed cache in front of any provider and a
// straight-line provider for development.
package routing

import (
	"context"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// Provider computes a route through an ordered list of waypoints. It has the
// same method set as service.RoutingProvider.
type Provider interface {
	Route(ctx context.Context, waypoints []domain.LatLon) (domain.Route, error)
}
