package services

import (
	"errors"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/domain"
	"route-safety-service/internal/geo"
)

// Pixel window inspected around a clear pixel before calling a point safe.
const nearFloodBuffer = 3

// AnalyzeRoute classifies every sample point of one vehicle's dense route
// geometry against the retrieved hazard tiles.
//
// Tiles whose WGS84 bounds do not contain a point are skipped before any
// projection work. A point whose exact pixel is flooded is always classified
// flooded — the first flooded tile wins and no further tiles are checked,
// which is order-safe because tiles never overlap. A clear pixel with any
// flooded pixel in its +/-3 neighborhood yields near-flood. Points matching
// no tile are clear and are not recorded, bounding memory on long routes.
//
// A projection or pixel-indexing failure skips the single point for that
// tile, never the tile or the run.
func AnalyzeRoute(
	vehicleID int,
	line orb.LineString,
	tiles []*domain.HazardTile,
	registry *geo.TransformerRegistry,
	logger *zap.Logger,
) []domain.AffectedPoint {
	var affected []domain.AffectedPoint

	for i, pt := range line {
		var near *domain.AffectedPoint
		flooded := false

		for _, tile := range tiles {
			if !tile.Bound.Contains(pt) {
				continue
			}

			x, y, err := registry.Project(tile.CRS, pt)
			if err != nil {
				logger.Debug("projection skipped for point",
					zap.Int("vehicle", vehicleID),
					zap.Int("sample", i),
					zap.String("crs", tile.CRS),
					zap.Error(err))
				continue
			}

			row, col, err := geo.RowCol(tile.Transform, tile.Width(), tile.Height(), x, y)
			if err != nil {
				if !errors.Is(err, geo.ErrOutsideRaster) {
					logger.Debug("pixel indexing skipped for point",
						zap.Int("vehicle", vehicleID),
						zap.Int("sample", i),
						zap.Error(err))
				}
				continue
			}

			if tile.FloodedAt(row, col) {
				affected = append(affected, domain.AffectedPoint{
					VehicleID:   vehicleID,
					SampleIndex: i,
					Coord:       pt,
					TileBound:   tile.Bound,
					Row:         row,
					Col:         col,
					Class:       domain.ClassFlooded,
				})
				flooded = true
				break
			}

			if near == nil && tile.NeighborhoodFlooded(row, col, nearFloodBuffer) {
				near = &domain.AffectedPoint{
					VehicleID:   vehicleID,
					SampleIndex: i,
					Coord:       pt,
					TileBound:   tile.Bound,
					Row:         row,
					Col:         col,
					Class:       domain.ClassNearFlood,
				}
			}
		}

		if !flooded && near != nil {
			affected = append(affected, *near)
		}
	}

	return affected
}
