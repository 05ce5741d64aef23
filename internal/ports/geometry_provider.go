package ports

import (
	"context"

	"github.com/paulmach/orb"
)

// Port: boundary to the external routing-geometry service.
type RouteGeometryProvider interface {
	// Return a dense polyline following the road network through the
	// given waypoints, in visit order. Errors wrap
	// ErrProviderUnavailable or ErrMalformedResponse; the caller falls
	// back to the sparse waypoint list.
	GetGeometry(ctx context.Context, waypoints []orb.Point) (orb.LineString, error)
}
