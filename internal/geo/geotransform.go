package geo

import (
	"errors"
	"math"
)

// Returned when a projected point cannot be mapped to a valid raster pixel,
// either because the geotransform is singular or the point falls outside the
// raster. Callers skip the single point, never the tile or the request.
var ErrOutsideRaster = errors.New("point outside raster")

// RowCol inverts a GDAL geotransform to map projected coordinates onto a
// pixel (row, col) within a width x height raster.
func RowCol(transform [6]float64, width, height int, x, y float64) (row, col int, err error) {
	det := transform[1]*transform[5] - transform[2]*transform[4]
	if math.Abs(det) < 1e-12 {
		return 0, 0, ErrOutsideRaster
	}

	dx := x - transform[0]
	dy := y - transform[3]

	fcol := (dx*transform[5] - dy*transform[2]) / det
	frow := (dy*transform[1] - dx*transform[4]) / det

	row = int(math.Floor(frow))
	col = int(math.Floor(fcol))

	if row < 0 || row >= height || col < 0 || col >= width {
		return 0, 0, ErrOutsideRaster
	}
	return row, col, nil
}
