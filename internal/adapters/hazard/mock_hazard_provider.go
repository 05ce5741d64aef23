package hazard

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"route-safety-service/internal/domain"
)

// MockHazardProvider serves canned tiles keyed by tile bound and counts
// calls, for cache and pipeline tests. Safe for concurrent use.
type MockHazardProvider struct {
	mu    sync.Mutex
	Tiles map[orb.Bound]*domain.HazardTile
	Err   error
	calls int
}

func (m *MockHazardProvider) FetchRaster(_ context.Context, bound orb.Bound, _ time.Time) (*domain.HazardTile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tiles[bound], nil
}

func (m *MockHazardProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
