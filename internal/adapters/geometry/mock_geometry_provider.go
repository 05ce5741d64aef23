package geometry

import (
	"context"

	"github.com/paulmach/orb"
)

// MockGeometryProvider densifies each leg with a fixed number of
// interpolated points, or fails, and counts calls for tests.
type MockGeometryProvider struct {
	PointsPerLeg int
	Calls        int
	Err          error
}

func (m *MockGeometryProvider) GetGeometry(_ context.Context, waypoints []orb.Point) (orb.LineString, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	per := m.PointsPerLeg
	if per < 1 {
		per = 4
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
