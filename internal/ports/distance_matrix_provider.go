package ports

import (
	"context"

	"github.com/paulmach/orb"
)

// Contract for building the travel-cost matrix over a set of points.
type DistanceMatrixProvider interface {
	// Return a square matrix of non-negative travel costs in meters,
	// indexed by point order. The diagonal is zero; the matrix need not
	// be symmetric.
	GetMatrix(ctx context.Context, points []orb.Point) ([][]int, error)
}
