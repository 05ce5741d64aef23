package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/domain"
	"route-safety-service/internal/geo"
	"route-safety-service/internal/hazardcache"
	"route-safety-service/internal/platform/obs"
	"route-safety-service/internal/ports"
)

type EngineConfig struct {
	// Bounded fan-out for hazard tile fetches. Zero means 4.
	TileWorkers int
	// Overall analysis timeout is BaseTimeout + PerTileTimeout * tiles.
	BaseTimeout    time.Duration
	PerTileTimeout time.Duration
	// Padding around the route extent before tiling.
	RouteBoundPaddingDeg float64
	// Wall-clock budget for the routing optimizer.
	OptimizerTimeLimit time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.TileWorkers <= 0 {
		c.TileWorkers = 4
	}
	if c.BaseTimeout <= 0 {
		c.BaseTimeout = 30 * time.Second
	}
	if c.PerTileTimeout <= 0 {
		c.PerTileTimeout = 3 * time.Second
	}
	if c.RouteBoundPaddingDeg <= 0 {
		c.RouteBoundPaddingDeg = 0.01
	}
	if c.OptimizerTimeLimit <= 0 {
		c.OptimizerTimeLimit = 30 * time.Second
	}
	return c
}

type PlanAndAssessRequest struct {
	Locations    []domain.Location
	DepotIndex   int
	VehicleCount int
	AnalysisDate time.Time
	TileSizeDeg  float64
}

// Engine runs the full plan-and-assess pipeline: optimize vehicle routes,
// resolve dense geometry, sweep the covering hazard tiles, attribute flooded
// samples to named roads and propose detours for impacted vehicles.
//
// All collaborators are constructor-injected; the hazard tile cache outlives
// requests while geometry resolution is cached per request.
type Engine struct {
	matrixProvider   ports.DistanceMatrixProvider
	geometryProvider ports.RouteGeometryProvider
	roadProvider     ports.RoadNetworkProvider
	tiles            *hazardcache.Cache
	registry         *geo.TransformerRegistry
	logger           *zap.Logger
	cfg              EngineConfig
}

func NewEngine(
	matrixProvider ports.DistanceMatrixProvider,
	geometryProvider ports.RouteGeometryProvider,
	roadProvider ports.RoadNetworkProvider,
	tiles *hazardcache.Cache,
	logger *zap.Logger,
	cfg EngineConfig,
) *Engine {
	return &Engine{
		matrixProvider:   matrixProvider,
		geometryProvider: geometryProvider,
		roadProvider:     roadProvider,
		tiles:            tiles,
		registry:         geo.NewTransformerRegistry(),
		logger:           logger,
		cfg:              cfg.withDefaults(),
	}
}

// PlanAndAssess produces routes for the request and the flood impact
// assessment of those routes.
//
// The only terminal failures are an unusable request, an unreachable
// distance matrix, and ErrNoFeasibleRoute from the optimizer. Hazard, road
// and geometry provider failures degrade locally and surface as flags on
// the result, never as silent partial success.
func (e *Engine) PlanAndAssess(ctx context.Context, req PlanAndAssessRequest) (_ *domain.AssessmentResult, err error) {
	defer obs.Time(ctx, e.logger, "engine.PlanAndAssess")(&err)

	locations, err := reorderDepotFirst(req.Locations, req.DepotIndex)
	if err != nil {
		return nil, fmt.Errorf("plan and assess: %w", err)
	}
	if req.VehicleCount < 1 {
		return nil, fmt.Errorf("plan and assess: vehicle count must be at least 1")
	}

	tileSize := req.TileSizeDeg
	if tileSize <= 0 {
		tileSize = 0.1
	}

	points := make([]orb.Point, 0, len(locations))
	for _, l := range locations {
		points = append(points, l.Point())
	}

	matrix, err := e.matrixProvider.GetMatrix(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("plan and assess: get distance matrix: %w", err)
	}

	sol, err := SolveRoutes(matrix, req.VehicleCount, OptimizerConfig{TimeLimit: e.cfg.OptimizerTimeLimit})
	if err != nil {
		return nil, fmt.Errorf("plan and assess: %w", err)
	}

	result := &domain.AssessmentResult{Locations: locations, Routes: sol.Routes}

	resolver := NewGeometryResolver(e.geometryProvider, e.logger)
	for _, route := range sol.Routes {
		if !route.HasDeliveries() {
			continue
		}

		line, degraded := resolver.Resolve(ctx, route.Waypoints(locations))
		result.Geometries = append(result.Geometries, domain.RouteGeometry{
			VehicleID: route.VehicleID,
			Line:      line,
			Degraded:  degraded,
		})
		if degraded {
			result.DegradedGeometry = true
		}
	}

	tiles := e.fetchHazardTiles(ctx, result, req.AnalysisDate, tileSize)

	var affected []domain.AffectedPoint
	for _, g := range result.Geometries {
		affected = append(affected,
			AnalyzeRoute(g.VehicleID, g.Line, tiles, e.registry, e.logger)...)
	}

	impacts, degradedRoads := AttributeRoads(ctx, e.roadProvider, affected, e.logger)
	result.Impacts = impacts
	result.DegradedRoads = degradedRoads

	impactedVehicles := make(map[int]bool)
	for _, p := range affected {
		impactedVehicles[p.VehicleID] = true
	}

	for _, route := range sol.Routes {
		if !impactedVehicles[route.VehicleID] {
			continue
		}
		result.Alternatives = append(result.Alternatives,
			SynthesizeAlternatives(ctx, resolver, route.VehicleID, route.Waypoints(locations))...)
	}

	return result, nil
}

// fetchHazardTiles tiles the overall route extent and retrieves rasters
// through the cache with bounded fan-out. Cancellation stops issuing new
// fetches; tiles already retrieved still feed classification, so the caller
// gets partial results rather than nothing.
func (e *Engine) fetchHazardTiles(
	ctx context.Context,
	result *domain.AssessmentResult,
	date time.Time,
	tileSizeDeg float64,
) []*domain.HazardTile {
	if len(result.Geometries) == 0 {
		return nil
	}

	extent := orb.Bound{Min: result.Geometries[0].Line[0], Max: result.Geometries[0].Line[0]}
	for _, g := range result.Geometries {
		for _, p := range g.Line {
			extent = extent.Extend(p)
		}
	}
	extent = extent.Pad(e.cfg.RouteBoundPaddingDeg)

	seq := geo.TileSeq(extent, tileSizeDeg)
	for range seq {
		result.TilesRequested++
	}

	// Overall budget scales with tile count.
	ctx, cancel := context.WithTimeout(ctx,
		e.cfg.BaseTimeout+time.Duration(result.TilesRequested)*e.cfg.PerTileTimeout)
	defer cancel()

	var (
		mu        sync.Mutex
		collected []*domain.HazardTile
		failures  int
		wg        sync.WaitGroup
	)
	sem := make(chan struct{}, e.cfg.TileWorkers)

	for bound := range seq {
		// Stop issuing new fetches once cancelled.
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(bound orb.Bound) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			tile, failed, err := e.tiles.Get(ctx, bound, date)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					e.logger.Warn("tile lookup failed", zap.Error(err))
				}
				return
			}

			mu.Lock()
			if failed {
				failures++
			}
			if tile != nil {
				collected = append(collected, tile)
			}
			mu.Unlock()
		}(bound)
	}
	wg.Wait()

	result.TilesFailed = failures
	result.TilesWithData = len(collected)
	result.FloodDataFound = len(collected) > 0

	// Fixed tile order keeps classification independent of fetch
	// completion order.
	sort.Slice(collected, func(i, j int) bool {
		if collected[i].Bound.Min.Lon() != collected[j].Bound.Min.Lon() {
			return collected[i].Bound.Min.Lon() < collected[j].Bound.Min.Lon()
		}
		return collected[i].Bound.Min.Lat() < collected[j].Bound.Min.Lat()
	})

	return collected
}

// reorderDepotFirst moves the depot to index 0, preserving the relative
// order of the remaining locations so downstream indices stay stable.
func reorderDepotFirst(locations []domain.Location, depotIndex int) ([]domain.Location, error) {
	if len(locations) < 2 {
		return nil, errors.New("need a depot and at least one delivery location")
	}
	if depotIndex < 0 || depotIndex >= len(locations) {
		return nil, fmt.Errorf("depot index %d out of range", depotIndex)
	}

	ordered := make([]domain.Location, 0, len(locations))
	ordered = append(ordered, locations[depotIndex])
	for i, l := range locations {
		if i != depotIndex {
			ordered = append(ordered, l)
		}
	}
	return ordered, nil
}
