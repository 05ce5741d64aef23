package dto

import "time"

type LocationRequest struct {
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type AssessRequest struct {
	Locations    []LocationRequest `json:"locations"`
	DepotIndex   int               `json:"depot_index"`
	VehicleCount int               `json:"vehicle_count"`
	AnalysisDate *time.Time        `json:"analysis_date"`
	TileSizeDeg  float64           `json:"tile_size_deg"`
}

type StopResponse struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type RouteResponse struct {
	VehicleID        int            `json:"vehicle_id"`
	Stops            []StopResponse `json:"stops"`
	DistanceMeters   int            `json:"distance_meters"`
	Geometry         string         `json:"geometry"`
	GeometryDegraded bool           `json:"geometry_degraded"`
}

type RoadImpactResponse struct {
	Name           string       `json:"name"`
	Class          string       `json:"class"`
	Description    string       `json:"description"`
	Severity       string       `json:"severity"`
	AffectedPoints int          `json:"affected_points"`
	Coordinates    [][2]float64 `json:"coordinates"`
}

type AlternativeResponse struct {
	VehicleID     int    `json:"vehicle_id"`
	Label         string `json:"label"`
	Geometry      string `json:"geometry"`
	Degraded      bool   `json:"degraded"`
	ExtraTime     string `json:"extra_time"`
	ExtraDistance string `json:"extra_distance"`
	SafetyRating  string `json:"safety_rating"`
	RouteType     string `json:"route_type"`
}

type AssessResponse struct {
	Routes       []RouteResponse       `json:"routes"`
	Impacts      []RoadImpactResponse  `json:"impacts"`
	Alternatives []AlternativeResponse `json:"alternatives"`

	FloodDataFound   bool `json:"flood_data_found"`
	DegradedGeometry bool `json:"degraded_geometry"`
	DegradedRoads    bool `json:"degraded_roads"`
	TilesRequested   int  `json:"tiles_requested"`
	TilesWithData    int  `json:"tiles_with_data"`
	TilesFailed      int  `json:"tiles_failed"`
}
