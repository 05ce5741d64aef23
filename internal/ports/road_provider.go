package ports

import (
	"context"

	"github.com/paulmach/orb"

	"route-safety-service/internal/domain"
)

// Port: boundary to the external road network service.
type RoadNetworkProvider interface {
	// Return all named highway line features intersecting the bound.
	// Features without a name tag are included; attribution decides how
	// to bucket them. Errors wrap ErrProviderUnavailable or
	// ErrMalformedResponse.
	GetRoads(ctx context.Context, bound orb.Bound) ([]domain.RoadFeature, error)
}
