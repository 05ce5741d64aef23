package geometry

import (
	"context"

	"github.com/paulmach/orb"
)

// LinearGeometryProvider densifies each route leg by linear interpolation.
// It is the no-credentials fallback when no directions API is configured:
// geometry follows straight legs instead of the road network, which is good
// enough for hazard sampling but not for turn-by-turn display.
type LinearGeometryProvider struct {
	// Interpolated points per leg. Zero means 10.
	PointsPerLeg int
}

func NewLinearGeometryProvider() *LinearGeometryProvider {
	return &LinearGeometryProvider{}
}

func (p *LinearGeometryProvider) GetGeometry(_ context.Context, waypoints []orb.Point) (orb.LineString, error) {
	if len(waypoints) == 0 {
		return nil, nil
	}

	per := p.PointsPerLeg
	if per < 1 {
		per = 10
	}

	var line orb.LineString
	for i := 0; i < len(waypoints)-1; i++ {
		a, b := waypoints[i], waypoints[i+1]
		for s := 0; s < per; s++ {
			f := float64(s) / float64(per)
			line = append(line, orb.Point{
				a.Lon() + (b.Lon()-a.Lon())*f,
				a.Lat() + (b.Lat()-a.Lat())*f,
			})
		}
	}
	line = append(line, waypoints[len(waypoints)-1])
	return line, nil
}
