package roads

import (
	"context"

	"github.com/paulmach/orb"

	"route-safety-service/internal/domain"
)

// MockRoadProvider serves a fixed feature set and counts calls for tests.
type MockRoadProvider struct {
	Features []domain.RoadFeature
	Calls    int
	Err      error
}

func (m *MockRoadProvider) GetRoads(_ context.Context, _ orb.Bound) ([]domain.RoadFeature, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Features, nil
}
