package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"route-safety-service/internal/ports"
)

// GeometryResolver obtains dense path geometry for a stop sequence, caching
// results by the exact input coordinate sequence for its lifetime (one
// resolver per request). On provider failure it falls back to the sparse
// waypoint list and marks the result degraded so downstream components can
// note reduced analysis fidelity; the failure is cached too — a failed leg
// is terminal for the request, never retried in a loop.
//
// Safe for concurrent use; concurrent resolves of the same sequence share
// one provider call.
type GeometryResolver struct {
	provider ports.RouteGeometryProvider
	logger   *zap.Logger

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]resolvedGeometry
}

type resolvedGeometry struct {
	line     orb.LineString
	degraded bool
}

func NewGeometryResolver(provider ports.RouteGeometryProvider, logger *zap.Logger) *GeometryResolver {
	return &GeometryResolver{
		provider: provider,
		logger:   logger,
		cache:    make(map[string]resolvedGeometry),
	}
}

// Resolve returns dense geometry through the waypoints, or the waypoints
// themselves (degraded=true) when the provider fails.
func (r *GeometryResolver) Resolve(ctx context.Context, waypoints []orb.Point) (orb.LineString, bool) {
	if len(waypoints) < 2 {
		return orb.LineString(waypoints), false
	}

	key := geometryKey(waypoints)

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached.line, cached.degraded
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		cached, ok := r.cache[key]
		r.mu.Unlock()
		if ok {
			return cached, nil
		}

		line, err := r.provider.GetGeometry(ctx, waypoints)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}

			r.logger.Warn("route geometry degraded to sparse waypoints",
				zap.Int("waypoints", len(waypoints)),
				zap.Error(err))
			res := resolvedGeometry{line: orb.LineString(waypoints), degraded: true}
			r.storeResult(key, res)
			return res, nil
		}

		res := resolvedGeometry{line: line}
		r.storeResult(key, res)
		return res, nil
	})
	if err != nil {
		// Cancelled mid-flight: hand back the sparse list uncached.
		return orb.LineString(waypoints), true
	}

	res := v.(resolvedGeometry)
	return res.line, res.degraded
}

func (r *GeometryResolver) storeResult(key string, res resolvedGeometry) {
	r.mu.Lock()
	r.cache[key] = res
	r.mu.Unlock()
}

func geometryKey(waypoints []orb.Point) string {
	var b strings.Builder
	for _, p := range waypoints {
		fmt.Fprintf(&b, "%.6f,%.6f;", p.Lon(), p.Lat())
	}
	return b.String()
}
