package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/domain"
	"route-safety-service/internal/ports"
)

const (
	// Margin added around the affected extent before fetching roads.
	attributionPaddingDeg = 0.005

	// Maximum point-to-vertex distance for attributing a point to a
	// named road (~100m in degree units).
	proximityThresholdDeg = 0.001

	// A road with more than this many affected points is severely flooded.
	severePointThreshold = 5

	fallbackRoadName = "Local roads in area"
)

// roadVertex indexes one vertex of a road feature in the r-tree.
type roadVertex struct {
	loc        rtreego.Point
	featureIdx int
}

func (v *roadVertex) Bounds() rtreego.Rect {
	return v.loc.ToRect(1e-9)
}

// AttributeRoads maps flagged points onto named road features and aggregates
// per-road severity.
//
// Road features for the padded affected extent come from the road network
// provider; each point attaches to the feature with the nearest vertex when
// that vertex is within the proximity threshold, otherwise it lands in the
// unnamed local-roads bucket. Provider failure degrades every point to the
// bucket instead of failing the request (degraded=true in that case).
func AttributeRoads(
	ctx context.Context,
	provider ports.RoadNetworkProvider,
	points []domain.AffectedPoint,
	logger *zap.Logger,
) ([]domain.RoadImpact, bool) {
	if len(points) == 0 {
		return nil, false
	}

	extent := orb.Bound{Min: points[0].Coord, Max: points[0].Coord}
	for _, p := range points[1:] {
		extent = extent.Extend(p.Coord)
	}
	extent = extent.Pad(attributionPaddingDeg)

	features, err := provider.GetRoads(ctx, extent)
	if err != nil {
		logger.Warn("road attribution degraded to area bucket", zap.Error(err))
		return []domain.RoadImpact{fallbackImpact(points)}, true
	}

	tree := rtreego.NewTree(2, 25, 50)
	for fi, f := range features {
		for _, vert := range f.Geometry {
			tree.Insert(&roadVertex{
				loc:        rtreego.Point{vert.Lon(), vert.Lat()},
				featureIdx: fi,
			})
		}
	}

	groups := make(map[string][]domain.AffectedPoint)
	groupFeature := make(map[string]domain.RoadFeature)
	var unattributed []domain.AffectedPoint

	for _, p := range points {
		fi, ok := nearestFeature(tree, p.Coord)
		if !ok {
			unattributed = append(unattributed, p)
			continue
		}

		f := features[fi]
		name := f.Name
		if name == "" {
			name = "Unnamed road"
		}
		key := name + "|" + f.Class
		groups[key] = append(groups[key], p)
		groupFeature[key] = f
	}

	impacts := make([]domain.RoadImpact, 0, len(groups)+1)
	for key, pts := range groups {
		f := groupFeature[key]
		name := f.Name
		if name == "" {
			name = "Unnamed road"
		}

		impacts = append(impacts, domain.RoadImpact{
			Name:           name,
			Class:          f.Class,
			Description:    describeRoad(name, f.Class),
			Severity:       severityFor(len(pts)),
			AffectedPoints: len(pts),
			Coordinates:    pointCoords(pts),
		})
	}

	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].AffectedPoints != impacts[j].AffectedPoints {
			return impacts[i].AffectedPoints > impacts[j].AffectedPoints
		}
		return impacts[i].Name < impacts[j].Name
	})

	if len(unattributed) > 0 {
		impacts = append(impacts, fallbackImpact(unattributed))
	}

	return impacts, false
}

// nearestFeature finds the feature owning the vertex nearest the point,
// rejecting matches beyond the proximity threshold.
func nearestFeature(tree *rtreego.Rtree, p orb.Point) (int, bool) {
	got := tree.NearestNeighbor(rtreego.Point{p.Lon(), p.Lat()})
	if got == nil {
		return 0, false
	}

	v := got.(*roadVertex)
	dx := p.Lon() - v.loc[0]
	dy := p.Lat() - v.loc[1]
	if math.Sqrt(dx*dx+dy*dy) >= proximityThresholdDeg {
		return 0, false
	}
	return v.featureIdx, true
}

func severityFor(points int) domain.Severity {
	if points > severePointThreshold {
		return domain.SeveritySeverelyFlooded
	}
	return domain.SeverityPartiallyFlooded
}

func describeRoad(name, class string) string {
	switch class {
	case "motorway", "trunk":
		return fmt.Sprintf("%s (Major road)", name)
	case "primary", "secondary":
		return fmt.Sprintf("%s (Main road)", name)
	default:
		return fmt.Sprintf("%s (Local road)", name)
	}
}

func fallbackImpact(points []domain.AffectedPoint) domain.RoadImpact {
	return domain.RoadImpact{
		Name:           fallbackRoadName,
		Class:          "local",
		Description:    describeRoad(fallbackRoadName, "local"),
		Severity:       severityFor(len(points)),
		AffectedPoints: len(points),
		Coordinates:    pointCoords(points),
	}
}

func pointCoords(points []domain.AffectedPoint) []orb.Point {
	coords := make([]orb.Point, 0, len(points))
	for _, p := range points {
		coords = append(coords, p.Coord)
	}
	return coords
}
