package domain

import "github.com/paulmach/orb"

// Named line feature from the road network provider.
type RoadFeature struct {
	Name     string
	Class    string
	Geometry orb.LineString
}

type Severity string

const (
	SeverityPartiallyFlooded Severity = "partially-flooded"
	SeveritySeverelyFlooded  Severity = "severely-flooded"
)

// Aggregated flood impact for one named road (or the unnamed local-roads
// bucket when no feature is close enough to attribute to).
type RoadImpact struct {
	Name           string
	Class          string
	Description    string
	Severity       Severity
	AffectedPoints int
	Coordinates    []orb.Point
}

// Advisory detour proposal for a vehicle whose route crosses a hazard.
// Geometry is empty when the geometry provider failed; the annotations are
// heuristic and carry no correctness guarantee.
type AlternativeRoute struct {
	VehicleID     int
	Label         string
	Waypoints     []orb.Point
	Geometry      orb.LineString
	Degraded      bool
	ExtraTime     string
	ExtraDistance string
	SafetyRating  string
	RouteType     string
}

// Dense (or degraded sparse) path geometry for one vehicle's route.
type RouteGeometry struct {
	VehicleID int
	Line      orb.LineString
	Degraded  bool
}

// Complete outcome of one PlanAndAssess run.
//
// FloodDataFound distinguishes "zero impacts because every tile came back
// empty" from "zero impacts with real raster coverage". TilesFailed counts
// provider degradations so partial hazard coverage is never silent.
type AssessmentResult struct {
	// Locations in the order route stop indices refer to, depot first.
	Locations    []Location
	Routes       []RouteAssignment
	Geometries   []RouteGeometry
	Impacts      []RoadImpact
	Alternatives []AlternativeRoute

	FloodDataFound   bool
	DegradedGeometry bool
	DegradedRoads    bool
	TilesRequested   int
	TilesWithData    int
	TilesFailed      int
}
