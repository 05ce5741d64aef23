package services

import (
	"errors"
	"testing"
	"time"
)

// Symmetric 4-node instance with a unique optimal tour 0-2-3-1-0 of cost 80.
var tourMatrix = [][]int{
	{0, 10, 15, 20},
	{10, 0, 35, 25},
	{15, 35, 0, 30},
	{20, 25, 30, 0},
}

func TestSolveRoutesSingleVehicleTour(t *testing.T) {
	sol, err := SolveRoutes(tourMatrix, 1, OptimizerConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sol.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(sol.Routes))
	}
	if len(sol.Dropped) != 0 {
		t.Fatalf("expected no dropped stops, got %v", sol.Dropped)
	}
	if sol.TotalCost != 80 {
		t.Fatalf("total cost = %d, want 80", sol.TotalCost)
	}

	route := sol.Routes[0]
	if route.DistanceMeters != 80 {
		t.Fatalf("route distance = %d, want 80", route.DistanceMeters)
	}
	if route.Stops[0] != 0 || route.Stops[len(route.Stops)-1] != 0 {
		t.Fatalf("route must start and end at the depot, got %v", route.Stops)
	}
	if len(route.Stops) != 5 {
		t.Fatalf("expected depot + 3 stops + depot, got %v", route.Stops)
	}
}

func TestSolveRoutesIsDeterministic(t *testing.T) {
	first, err := SolveRoutes(tourMatrix, 2, OptimizerConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := SolveRoutes(tourMatrix, 2, OptimizerConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.TotalCost != first.TotalCost {
			t.Fatalf("run %d: total cost = %d, want %d", i, again.TotalCost, first.TotalCost)
		}
	}
}

func TestSolveRoutesSingleStopTwoVehicles(t *testing.T) {
	matrix := [][]int{
		{0, 5},
		{7, 0},
	}

	sol, err := SolveRoutes(matrix, 2, OptimizerConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sol.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(sol.Routes))
	}

	served := 0
	for _, r := range sol.Routes {
		if r.HasDeliveries() {
			served++
			if r.DistanceMeters != 12 {
				t.Fatalf("serving route distance = %d, want 12", r.DistanceMeters)
			}
		} else if len(r.Stops) != 2 {
			t.Fatalf("idle vehicle should stay at the depot, got %v", r.Stops)
		}
	}
	if served != 1 {
		t.Fatalf("expected exactly 1 vehicle to serve the stop, got %d", served)
	}
	if len(sol.Dropped) != 0 {
		t.Fatalf("the single stop is mandatory, got dropped %v", sol.Dropped)
	}
}

func TestSolveRoutesBalancesLoad(t *testing.T) {
	// 4 stops over 2 vehicles: capacity 3 per vehicle, so no vehicle may
	// take every stop.
	matrix := make([][]int, 5)
	for i := range matrix {
		matrix[i] = make([]int, 5)
		for j := range matrix[i] {
			if i != j {
				matrix[i][j] = 100
			}
		}
	}

	sol, err := SolveRoutes(matrix, 2, OptimizerConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range sol.Routes {
		if stops := len(r.Stops) - 2; stops > 3 {
			t.Fatalf("vehicle %d exceeds capacity: %d stops", r.VehicleID, stops)
		}
	}
	if len(sol.Dropped) != 0 {
		t.Fatalf("expected no dropped stops, got %v", sol.Dropped)
	}
}

func TestSolveRoutesRejectsInvalidInput(t *testing.T) {
	if _, err := SolveRoutes(tourMatrix, 0, OptimizerConfig{}); !errors.Is(err, ErrNoFeasibleRoute) {
		t.Fatalf("expected ErrNoFeasibleRoute for 0 vehicles, got %v", err)
	}

	ragged := [][]int{{0, 1}, {1}}
	if _, err := SolveRoutes(ragged, 1, OptimizerConfig{}); err == nil {
		t.Fatal("expected error for ragged matrix")
	}

	negative := [][]int{{0, -1}, {1, 0}}
	if _, err := SolveRoutes(negative, 1, OptimizerConfig{}); err == nil {
		t.Fatal("expected error for negative cost")
	}

	dirtyDiagonal := [][]int{{1, 2}, {2, 0}}
	if _, err := SolveRoutes(dirtyDiagonal, 1, OptimizerConfig{}); err == nil {
		t.Fatal("expected error for non-zero diagonal")
	}
}

func TestSolveRoutesHonorsTimeBudget(t *testing.T) {
	_, err := SolveRoutes(tourMatrix, 1, OptimizerConfig{TimeLimit: -1})
	if err != nil {
		t.Fatalf("negative limit must fall back to the default, got %v", err)
	}

	// A microscopic budget can expire before construction finishes; the
	// failure mode must be the typed error, not a hang.
	_, err = SolveRoutes(tourMatrix, 1, OptimizerConfig{TimeLimit: time.Nanosecond})
	if err != nil && !errors.Is(err, ErrNoFeasibleRoute) {
		t.Fatalf("expected ErrNoFeasibleRoute or success, got %v", err)
	}
}
