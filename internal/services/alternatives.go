package services

import (
	"context"

	"github.com/paulmach/orb"

	"route-safety-service/internal/domain"
)

// Heuristic detour templates: a lateral offset on each side of the route,
// with static advisory annotations.
var detourTemplates = []struct {
	label         string
	startOffset   orb.Point // applied to the route start
	endOffset     orb.Point // applied to the last true stop
	extraTime     string
	extraDistance string
	safetyRating  string
	routeType     string
}{
	{
		label:         "Southern bypass",
		startOffset:   orb.Point{0.05, -0.02},
		endOffset:     orb.Point{0.03, -0.01},
		extraTime:     "12-18 minutes",
		extraDistance: "8.5 km",
		safetyRating:  "High",
		routeType:     "Major roads",
	},
	{
		label:         "Western detour",
		startOffset:   orb.Point{-0.08, 0.01},
		endOffset:     orb.Point{-0.05, 0.02},
		extraTime:     "20-25 minutes",
		extraDistance: "15.2 km",
		safetyRating:  "Very High",
		routeType:     "Motorway",
	},
}

// SynthesizeAlternatives proposes two offset detours between a route's start
// and its last true stop and resolves their geometry. The output is advisory:
// geometry, when obtained, starts and ends at the same points as the
// original route; annotations are static heuristics for the UI.
func SynthesizeAlternatives(
	ctx context.Context,
	resolver *GeometryResolver,
	vehicleID int,
	waypoints []orb.Point,
) []domain.AlternativeRoute {
	if len(waypoints) < 2 {
		return nil
	}

	start := waypoints[0]
	end := waypoints[len(waypoints)-1]
	if len(waypoints) > 2 {
		// Skip the closing depot leg; detours target the delivery run.
		end = waypoints[len(waypoints)-2]
	}

	alternatives := make([]domain.AlternativeRoute, 0, len(detourTemplates))
	for _, tpl := range detourTemplates {
		via := []orb.Point{
			start,
			{start.Lon() + tpl.startOffset.Lon(), start.Lat() + tpl.startOffset.Lat()},
			{end.Lon() + tpl.endOffset.Lon(), end.Lat() + tpl.endOffset.Lat()},
			end,
		}

		line, degraded := resolver.Resolve(ctx, via)

		alternatives = append(alternatives, domain.AlternativeRoute{
			VehicleID:     vehicleID,
			Label:         tpl.label,
			Waypoints:     via,
			Geometry:      line,
			Degraded:      degraded,
			ExtraTime:     tpl.extraTime,
			ExtraDistance: tpl.extraDistance,
			SafetyRating:  tpl.safetyRating,
			RouteType:     tpl.routeType,
		})
	}

	return alternatives
}
