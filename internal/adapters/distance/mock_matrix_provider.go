package distance

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
)

// MockMatrixProvider serves a fixed matrix and counts calls for tests.
type MockMatrixProvider struct {
	Matrix [][]int
	Calls  int
	Err    error
}

func (m *MockMatrixProvider) GetMatrix(_ context.Context, points []orb.Point) ([][]int, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Matrix) != len(points) {
		return nil, fmt.Errorf("mock matrix is %dx%d, request has %d points",
			len(m.Matrix), len(m.Matrix), len(points))
	}
	return m.Matrix, nil
}
