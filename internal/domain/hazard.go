package domain

import "github.com/paulmach/orb"

// Single-band flood occupancy raster for one grid tile.
//
// Pixels is row-major with value 1 meaning flooded. Transform is a GDAL-style
// geotransform mapping pixel (col, row) to projected coordinates in CRS:
//
//	x = t[0] + col*t[1] + row*t[2]
//	y = t[3] + col*t[4] + row*t[5]
//
// Bound is the tile's extent in WGS84 degrees, used for cheap containment
// checks before any projection is attempted. A HazardTile is immutable once
// fetched; the tile cache is its sole writer.
type HazardTile struct {
	Bound     orb.Bound
	CRS       string
	Transform [6]float64
	Pixels    [][]uint8
}

func (t *HazardTile) Height() int { return len(t.Pixels) }

func (t *HazardTile) Width() int {
	if len(t.Pixels) == 0 {
		return 0
	}
	return len(t.Pixels[0])
}

// FloodedAt reports whether the exact pixel is flooded.
// Out-of-range indices read as not flooded.
func (t *HazardTile) FloodedAt(row, col int) bool {
	if row < 0 || row >= t.Height() || col < 0 || col >= t.Width() {
		return false
	}
	return t.Pixels[row][col] == 1
}

// NeighborhoodFlooded scans a (2*buffer+1)^2 pixel window around (row, col),
// clamped to the raster edges, for any flooded pixel.
func (t *HazardTile) NeighborhoodFlooded(row, col, buffer int) bool {
	minRow := max(0, row-buffer)
	maxRow := min(t.Height(), row+buffer+1)
	minCol := max(0, col-buffer)
	maxCol := min(t.Width(), col+buffer+1)

	for r := minRow; r < maxRow; r++ {
		for c := minCol; c < maxCol; c++ {
			if t.Pixels[r][c] == 1 {
				return true
			}
		}
	}
	return false
}

// Classification of a route sample point against the hazard rasters.
type PointClass string

const (
	ClassFlooded   PointClass = "flooded"
	ClassNearFlood PointClass = "near-flood"
)

// Route sample point that intersected (or nearly intersected) a flood zone.
// AffectedPoints are derived per analysis run and never persisted; points
// classified clear are not recorded at all.
type AffectedPoint struct {
	VehicleID   int
	SampleIndex int
	Coord       orb.Point
	TileBound   orb.Bound
	Row         int
	Col         int
	Class       PointClass
}
