package distance

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Road-network detours add roughly this factor over great-circle distance.
const circuityFactor = 1.3

// HaversineMatrixProvider approximates travel distances from great-circle
// distance scaled by a fixed circuity factor. Used when no routing API key
// is configured; the resulting matrix is symmetric.
type HaversineMatrixProvider struct{}

func NewHaversineMatrixProvider() *HaversineMatrixProvider {
	return &HaversineMatrixProvider{}
}

func (h *HaversineMatrixProvider) GetMatrix(_ context.Context, points []orb.Point) ([][]int, error) {
	out := make([][]int, len(points))
	for i := range points {
		out[i] = make([]int, len(points))
		for j := range points {
			if i == j {
				continue
			}
			meters := orbgeo.DistanceHaversine(points[i], points[j]) * circuityFactor
			out[i][j] = int(math.Round(meters))
		}
	}
	return out, nil
}
