package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/adapters/distance"
	"route-safety-service/internal/adapters/geometry"
	"route-safety-service/internal/adapters/hazard"
	"route-safety-service/internal/adapters/roads"
	"route-safety-service/internal/domain"
	"route-safety-service/internal/hazardcache"
	"route-safety-service/internal/ports"
)

// floodEverywhereProvider returns an all-flooded WGS84 raster for every
// requested tile.
type floodEverywhereProvider struct{}

func (*floodEverywhereProvider) FetchRaster(_ context.Context, bound orb.Bound, _ time.Time) (*domain.HazardTile, error) {
	const size = 50
	pixels := make([][]uint8, size)
	for r := range pixels {
		pixels[r] = make([]uint8, size)
		for c := range pixels[r] {
			pixels[r][c] = 1
		}
	}
	return &domain.HazardTile{
		Bound: bound,
		CRS:   "EPSG:4326",
		Transform: [6]float64{
			bound.Min.Lon(), (bound.Max.Lon() - bound.Min.Lon()) / size, 0,
			bound.Max.Lat(), 0, -(bound.Max.Lat() - bound.Min.Lat()) / size,
		},
		Pixels: pixels,
	}, nil
}

var testLocations = []domain.Location{
	{Category: "Depot", Name: "Hub", Lat: 50.05, Lon: 10.05},
	{Category: "Hospital", Name: "North Clinic", Lat: 50.06, Lon: 10.06},
	{Category: "School", Name: "East Primary", Lat: 50.07, Lon: 10.07},
}

var testMatrix = [][]int{
	{0, 1000, 2000},
	{1000, 0, 1000},
	{2000, 1000, 0},
}

func newTestEngine(hazardProvider ports.HazardRasterProvider) *Engine {
	logger := zap.NewNop()
	return NewEngine(
		&distance.MockMatrixProvider{Matrix: testMatrix},
		&geometry.MockGeometryProvider{PointsPerLeg: 5},
		&roads.MockRoadProvider{},
		hazardcache.New(hazardProvider, logger),
		logger,
		EngineConfig{},
	)
}

func testRequest() PlanAndAssessRequest {
	return PlanAndAssessRequest{
		Locations:    testLocations,
		VehicleCount: 1,
		AnalysisDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		TileSizeDeg:  0.1,
	}
}

func TestPlanAndAssessNoFloodData(t *testing.T) {
	engine := newTestEngine(&hazard.MockHazardProvider{})

	result, err := engine.PlanAndAssess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(result.Routes))
	}
	if result.Routes[0].DistanceMeters != 4000 {
		t.Fatalf("route distance = %d, want 4000", result.Routes[0].DistanceMeters)
	}
	if len(result.Geometries) != 1 {
		t.Fatalf("expected geometry for the serving vehicle, got %d", len(result.Geometries))
	}

	if result.FloodDataFound {
		t.Fatal("expected FloodDataFound=false when every tile is empty")
	}
	if result.TilesRequested == 0 {
		t.Fatal("expected at least one tile request")
	}
	if result.TilesWithData != 0 || result.TilesFailed != 0 {
		t.Fatalf("tile counters = (%d, %d), want (0, 0)",
			result.TilesWithData, result.TilesFailed)
	}
	if len(result.Impacts) != 0 || len(result.Alternatives) != 0 {
		t.Fatalf("expected no impacts or alternatives, got %d / %d",
			len(result.Impacts), len(result.Alternatives))
	}
}

func TestPlanAndAssessCountsFailedTiles(t *testing.T) {
	provider := &hazard.MockHazardProvider{Err: errors.New("raster service down")}
	engine := newTestEngine(provider)

	result, err := engine.PlanAndAssess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TilesRequested == 0 {
		t.Fatal("expected at least one tile request")
	}
	if result.TilesFailed != result.TilesRequested {
		t.Fatalf("tiles failed = %d, want every requested tile (%d)",
			result.TilesFailed, result.TilesRequested)
	}
	if result.TilesWithData != 0 || result.FloodDataFound {
		t.Fatalf("expected no flood data, got %d tiles and found=%v",
			result.TilesWithData, result.FloodDataFound)
	}

	// A second request over the same area sees the same degraded coverage
	// even though the failures are now served out of the cache.
	calls := provider.CallCount()
	again, err := engine.PlanAndAssess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if again.TilesFailed != again.TilesRequested {
		t.Fatalf("repeat tiles failed = %d, want %d", again.TilesFailed, again.TilesRequested)
	}
	if provider.CallCount() != calls {
		t.Fatalf("provider called %d more times, want cached failures reused",
			provider.CallCount()-calls)
	}
}

func TestPlanAndAssessFloodedRoute(t *testing.T) {
	engine := newTestEngine(&floodEverywhereProvider{})

	result, err := engine.PlanAndAssess(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.FloodDataFound {
		t.Fatal("expected FloodDataFound=true")
	}
	if result.TilesWithData != result.TilesRequested {
		t.Fatalf("tiles with data = %d, requested = %d",
			result.TilesWithData, result.TilesRequested)
	}

	// No road features in range, so every point lands in the area bucket.
	if len(result.Impacts) != 1 {
		t.Fatalf("expected 1 impact, got %d", len(result.Impacts))
	}
	if result.Impacts[0].Name != "Local roads in area" {
		t.Fatalf("impact name = %q", result.Impacts[0].Name)
	}
	if result.Impacts[0].Severity != domain.SeveritySeverelyFlooded {
		t.Fatalf("severity = %q, want severe for a fully flooded route", result.Impacts[0].Severity)
	}

	// Two detour proposals for the single impacted vehicle.
	if len(result.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(result.Alternatives))
	}
	for _, alt := range result.Alternatives {
		if alt.VehicleID != result.Routes[0].VehicleID {
			t.Fatalf("alternative for vehicle %d, want %d", alt.VehicleID, result.Routes[0].VehicleID)
		}
	}
}

func TestPlanAndAssessDepotRotation(t *testing.T) {
	engine := newTestEngine(&hazard.MockHazardProvider{})

	req := testRequest()
	req.DepotIndex = 2

	result, err := engine.PlanAndAssess(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Locations[0].Name != "East Primary" {
		t.Fatalf("location 0 = %q, want the requested depot first", result.Locations[0].Name)
	}
	if len(result.Locations) != 3 {
		t.Fatalf("expected all locations preserved, got %d", len(result.Locations))
	}
	for _, route := range result.Routes {
		if route.Stops[0] != 0 || route.Stops[len(route.Stops)-1] != 0 {
			t.Fatalf("route must start and end at the rotated depot, got %v", route.Stops)
		}
	}
}

func TestPlanAndAssessInvalidRequests(t *testing.T) {
	engine := newTestEngine(&hazard.MockHazardProvider{})

	req := testRequest()
	req.Locations = testLocations[:1]
	if _, err := engine.PlanAndAssess(context.Background(), req); err == nil {
		t.Fatal("expected error for a single location")
	}

	req = testRequest()
	req.DepotIndex = 9
	if _, err := engine.PlanAndAssess(context.Background(), req); err == nil {
		t.Fatal("expected error for out-of-range depot index")
	}

	req = testRequest()
	req.VehicleCount = 0
	if _, err := engine.PlanAndAssess(context.Background(), req); err == nil {
		t.Fatal("expected error for zero vehicles")
	}
}

func TestPlanAndAssessMatrixProviderFailure(t *testing.T) {
	logger := zap.NewNop()
	engine := NewEngine(
		&distance.MockMatrixProvider{Err: errors.New("matrix down")},
		&geometry.MockGeometryProvider{},
		&roads.MockRoadProvider{},
		hazardcache.New(&hazard.MockHazardProvider{}, logger),
		logger,
		EngineConfig{},
	)

	if _, err := engine.PlanAndAssess(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error when the distance matrix is unavailable")
	}
}
