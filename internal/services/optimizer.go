package services

import (
	"errors"
	"fmt"
	"time"

	"route-safety-service/internal/domain"
)

// Objective cost charged per stop that is dropped instead of visited.
// Large enough that dropping only wins over absurd detours, which models
// "optional but strongly preferred" stops.
const DropPenalty = 1_000_000

type OptimizerConfig struct {
	// Wall-clock budget for the whole solve. Zero means 30s.
	TimeLimit time.Duration
}

// Solution of one optimization request.
type Solution struct {
	Routes  []domain.RouteAssignment
	Dropped []int
	// Total traveled distance plus penalties for dropped stops.
	TotalCost int
}

// SolveRoutes solves a capacitated vehicle routing problem over the cost
// matrix: index 0 is the depot, every other index is a stop with demand 1.
//
// Each vehicle may serve at most ceil-share-plus-slack stops
// (stops/vehicles + 1) so uneven stop counts never overload one vehicle;
// with a single stop the capacity bound is relaxed since the stop is then
// mandatory and cannot be dropped. Construction is cheapest-arc insertion
// followed by 2-opt and relocate local search under the time budget.
//
// The search is fully deterministic: rerunning on an unchanged matrix yields
// the same total cost.
func SolveRoutes(matrix [][]int, vehicleCount int, cfg OptimizerConfig) (*Solution, error) {
	n := len(matrix)
	if err := validateMatrix(matrix); err != nil {
		return nil, err
	}
	if vehicleCount < 1 {
		return nil, fmt.Errorf("solve routes: vehicle count %d: %w", vehicleCount, ErrNoFeasibleRoute)
	}

	limit := cfg.TimeLimit
	if limit <= 0 {
		limit = 30 * time.Second
	}
	deadline := time.Now().Add(limit)

	stops := n - 1

	// Capacity model from the demand split: relaxed for the single
	// mandatory stop, ceil-share-plus-one otherwise.
	capacity := n
	allowDrop := false
	if stops > 1 {
		capacity = stops/vehicleCount + 1
		allowDrop = true
	}

	s := &solver{
		matrix:    matrix,
		vehicles:  vehicleCount,
		capacity:  capacity,
		allowDrop: allowDrop,
		deadline:  deadline,
		routes:    make([][]int, vehicleCount),
	}

	if err := s.constructCheapestInsertion(); err != nil {
		return nil, err
	}
	s.improve()

	return s.solution(), nil
}

func validateMatrix(matrix [][]int) error {
	if len(matrix) == 0 {
		return errors.New("solve routes: matrix is empty")
	}
	for i, row := range matrix {
		if len(row) != len(matrix) {
			return fmt.Errorf("solve routes: matrix row %d has %d entries, want %d",
				i, len(row), len(matrix))
		}
		for j, c := range row {
			if c < 0 {
				return fmt.Errorf("solve routes: negative cost at [%d][%d]", i, j)
			}
		}
		if row[i] != 0 {
			return fmt.Errorf("solve routes: matrix diagonal at %d is %d, want 0", i, row[i])
		}
	}
	return nil
}

type solver struct {
	matrix    [][]int
	vehicles  int
	capacity  int
	allowDrop bool
	deadline  time.Time

	routes  [][]int // per-vehicle stop node sequence, depot excluded
	dropped []int
}

func (s *solver) cost(i, j int) int { return s.matrix[i][j] }

// routeDistance is the depot-to-depot traveled distance of one route.
func (s *solver) routeDistance(route []int) int {
	if len(route) == 0 {
		return 0
	}
	total := s.cost(0, route[0])
	for i := 0; i < len(route)-1; i++ {
		total += s.cost(route[i], route[i+1])
	}
	total += s.cost(route[len(route)-1], 0)
	return total
}

func (s *solver) totalCost() int {
	total := DropPenalty * len(s.dropped)
	for _, r := range s.routes {
		total += s.routeDistance(r)
	}
	return total
}

// insertionDelta is the distance added by inserting node at pos in route.
func (s *solver) insertionDelta(route []int, pos, node int) int {
	prev, next := 0, 0
	if pos > 0 {
		prev = route[pos-1]
	}
	if pos < len(route) {
		next = route[pos]
	}
	return s.cost(prev, node) + s.cost(node, next) - s.cost(prev, next)
}

// constructCheapestInsertion routes every stop by repeatedly applying the
// globally cheapest feasible insertion (the PATH_CHEAPEST_ARC analogue).
// Stops that no vehicle can take are dropped when dropping is allowed,
// otherwise the instance is infeasible.
func (s *solver) constructCheapestInsertion() error {
	unrouted := make([]int, 0, len(s.matrix)-1)
	for node := 1; node < len(s.matrix); node++ {
		unrouted = append(unrouted, node)
	}

	for len(unrouted) > 0 {
		if time.Now().After(s.deadline) {
			return fmt.Errorf("solve routes: time budget exhausted during construction: %w", ErrNoFeasibleRoute)
		}

		bestDelta := -1
		bestNodeIdx, bestVehicle, bestPos := -1, -1, -1

		for ni, node := range unrouted {
			for v := 0; v < s.vehicles; v++ {
				if len(s.routes[v]) >= s.capacity {
					continue
				}
				for pos := 0; pos <= len(s.routes[v]); pos++ {
					delta := s.insertionDelta(s.routes[v], pos, node)
					if bestDelta < 0 || delta < bestDelta {
						bestDelta = delta
						bestNodeIdx, bestVehicle, bestPos = ni, v, pos
					}
				}
			}
		}

		if bestNodeIdx < 0 {
			// No vehicle has remaining capacity.
			if !s.allowDrop {
				return fmt.Errorf("solve routes: %d stops cannot be assigned: %w",
					len(unrouted), ErrNoFeasibleRoute)
			}
			s.dropped = append(s.dropped, unrouted...)
			break
		}

		node := unrouted[bestNodeIdx]
		route := s.routes[bestVehicle]
		route = append(route[:bestPos], append([]int{node}, route[bestPos:]...)...)
		s.routes[bestVehicle] = route
		unrouted = append(unrouted[:bestNodeIdx], unrouted[bestNodeIdx+1:]...)
	}

	return nil
}

// improve runs deterministic local search passes until no move helps or the
// time budget runs out.
func (s *solver) improve() {
	for {
		if time.Now().After(s.deadline) {
			return
		}

		improved := false
		for v := range s.routes {
			if s.twoOptPass(v) {
				improved = true
			}
		}
		if s.relocatePass() {
			improved = true
		}
		if s.allowDrop && s.reinsertPass() {
			improved = true
		}

		if !improved {
			return
		}
	}
}

// twoOptPass reverses route segments while reversal lowers distance.
// Asymmetric matrices are handled by re-evaluating full route distance.
func (s *solver) twoOptPass(v int) bool {
	route := s.routes[v]
	if len(route) < 2 {
		return false
	}

	improved := false
	for i := 0; i < len(route)-1; i++ {
		for j := i + 1; j < len(route); j++ {
			candidate := make([]int, len(route))
			copy(candidate, route)
			for a, b := i, j; a < b; a, b = a+1, b-1 {
				candidate[a], candidate[b] = candidate[b], candidate[a]
			}
			if s.routeDistance(candidate) < s.routeDistance(route) {
				copy(route, candidate)
				improved = true
			}
		}
	}
	return improved
}

// relocatePass moves single stops between vehicles when the move lowers
// total distance and respects the receiving vehicle's capacity.
func (s *solver) relocatePass() bool {
	improved := false
	for from := range s.routes {
		for i := 0; i < len(s.routes[from]); i++ {
			node := s.routes[from][i]

			removed := make([]int, 0, len(s.routes[from])-1)
			removed = append(removed, s.routes[from][:i]...)
			removed = append(removed, s.routes[from][i+1:]...)
			saving := s.routeDistance(s.routes[from]) - s.routeDistance(removed)

			bestDelta := -1
			bestVehicle, bestPos := -1, -1
			for to := range s.routes {
				if to == from || len(s.routes[to]) >= s.capacity {
					continue
				}
				for pos := 0; pos <= len(s.routes[to]); pos++ {
					delta := s.insertionDelta(s.routes[to], pos, node)
					if bestDelta < 0 || delta < bestDelta {
						bestDelta = delta
						bestVehicle, bestPos = to, pos
					}
				}
			}

			if bestVehicle >= 0 && bestDelta < saving {
				s.routes[from] = removed
				target := s.routes[bestVehicle]
				target = append(target[:bestPos], append([]int{node}, target[bestPos:]...)...)
				s.routes[bestVehicle] = target
				improved = true
				i--
			}
		}
	}
	return improved
}

// reinsertPass brings dropped stops back whenever any vehicle has capacity;
// the insertion detour is always cheaper than the drop penalty.
func (s *solver) reinsertPass() bool {
	improved := false
	for i := 0; i < len(s.dropped); i++ {
		node := s.dropped[i]

		bestDelta := -1
		bestVehicle, bestPos := -1, -1
		for v := range s.routes {
			if len(s.routes[v]) >= s.capacity {
				continue
			}
			for pos := 0; pos <= len(s.routes[v]); pos++ {
				delta := s.insertionDelta(s.routes[v], pos, node)
				if bestDelta < 0 || delta < bestDelta {
					bestDelta = delta
					bestVehicle, bestPos = v, pos
				}
			}
		}

		if bestVehicle >= 0 && bestDelta < DropPenalty {
			route := s.routes[bestVehicle]
			route = append(route[:bestPos], append([]int{node}, route[bestPos:]...)...)
			s.routes[bestVehicle] = route
			s.dropped = append(s.dropped[:i], s.dropped[i+1:]...)
			improved = true
			i--
		}
	}
	return improved
}

func (s *solver) solution() *Solution {
	sol := &Solution{
		Routes:    make([]domain.RouteAssignment, 0, s.vehicles),
		Dropped:   s.dropped,
		TotalCost: s.totalCost(),
	}

	for v, route := range s.routes {
		stops := make([]int, 0, len(route)+2)
		stops = append(stops, 0)
		stops = append(stops, route...)
		stops = append(stops, 0)

		sol.Routes = append(sol.Routes, domain.RouteAssignment{
			VehicleID:      v,
			Stops:          stops,
			DistanceMeters: s.routeDistance(route),
		})
	}
	return sol
}
