package ports

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"route-safety-service/internal/domain"
)

// Port: boundary to the external flood raster service.
type HazardRasterProvider interface {
	// Fetch the flood occupancy raster for one tile and analysis date.
	//
	// A (nil, nil) return means the provider had no data for the tile,
	// which is a valid outcome, not an error. Errors wrap
	// ErrProviderUnavailable or ErrMalformedResponse.
	FetchRaster(ctx context.Context, bound orb.Bound, date time.Time) (*domain.HazardTile, error)
}
