package domain

import "github.com/paulmach/orb"

// Planned stop sequence for a single vehicle.
//
// Stops holds Location indices into the planning request's location slice,
// always starting and ending at the depot (index 0). A vehicle that serves
// no deliveries still carries the trivial sequence [0, 0].
//
// A RouteAssignment is the output of the routing optimizer and is read-only
// for every downstream component.
type RouteAssignment struct {
	VehicleID      int
	Stops          []int
	DistanceMeters int
}

// True when the vehicle leaves the depot at all.
func (r RouteAssignment) HasDeliveries() bool { return len(r.Stops) > 2 }

// Waypoints resolves the stop indices against the request's locations,
// in visit order including both depot legs.
func (r RouteAssignment) Waypoints(locations []Location) []orb.Point {
	pts := make([]orb.Point, 0, len(r.Stops))
	for _, idx := range r.Stops {
		pts = append(pts, locations[idx].Point())
	}
	return pts
}
