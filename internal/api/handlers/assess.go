package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"route-safety-service/internal/api/dto"
	"route-safety-service/internal/domain"
	"route-safety-service/internal/services"
)

type AssessHandler struct {
	Engine *services.Engine
	Logger *zap.Logger
}

// Assess plans vehicle routes for the submitted locations and reports the
// flood impact on them. An infeasible routing problem is the caller's
// fault (422), everything else that fails is ours (500).
func (h *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, h.Logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.AssessRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, h.Logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, h.Logger, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if len(req.Locations) < 2 {
		writeError(w, r, h.Logger, http.StatusBadRequest, "need a depot and at least one delivery location")
		return
	}
	if req.DepotIndex < 0 || req.DepotIndex >= len(req.Locations) {
		writeError(w, r, h.Logger, http.StatusBadRequest, "depot_index out of range")
		return
	}

	vehicleCount := req.VehicleCount
	if vehicleCount == 0 {
		vehicleCount = 1
	}
	if vehicleCount < 1 || vehicleCount > 20 {
		writeError(w, r, h.Logger, http.StatusBadRequest, "vehicle_count must be between 1 and 20")
		return
	}

	locations := make([]domain.Location, 0, len(req.Locations))
	for _, l := range req.Locations {
		if l.Lat < -90 || l.Lat > 90 || l.Lon < -180 || l.Lon > 180 {
			writeError(w, r, h.Logger, http.StatusBadRequest, "location coordinates out of range")
			return
		}
		locations = append(locations, domain.Location{
			Category: l.Category,
			Name:     l.Name,
			Lat:      l.Lat,
			Lon:      l.Lon,
		})
	}

	date := time.Now().UTC()
	if req.AnalysisDate != nil {
		date = req.AnalysisDate.UTC()
	}

	result, err := h.Engine.PlanAndAssess(r.Context(), services.PlanAndAssessRequest{
		Locations:    locations,
		DepotIndex:   req.DepotIndex,
		VehicleCount: vehicleCount,
		AnalysisDate: date,
		TileSizeDeg:  req.TileSizeDeg,
	})
	if err != nil {
		if errors.Is(err, services.ErrNoFeasibleRoute) {
			writeError(w, r, h.Logger, http.StatusUnprocessableEntity, "no feasible route for the given locations and vehicles")
			return
		}
		h.Logger.Error("plan and assess failed", zap.Error(err))
		writeError(w, r, h.Logger, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, h.Logger, http.StatusOK, toAssessResponse(result))
}

func toAssessResponse(result *domain.AssessmentResult) dto.AssessResponse {
	geomByVehicle := make(map[int]domain.RouteGeometry, len(result.Geometries))
	for _, g := range result.Geometries {
		geomByVehicle[g.VehicleID] = g
	}

	res := dto.AssessResponse{
		Routes:       make([]dto.RouteResponse, 0, len(result.Routes)),
		Impacts:      make([]dto.RoadImpactResponse, 0, len(result.Impacts)),
		Alternatives: make([]dto.AlternativeResponse, 0, len(result.Alternatives)),

		FloodDataFound:   result.FloodDataFound,
		DegradedGeometry: result.DegradedGeometry,
		DegradedRoads:    result.DegradedRoads,
		TilesRequested:   result.TilesRequested,
		TilesWithData:    result.TilesWithData,
		TilesFailed:      result.TilesFailed,
	}

	for _, route := range result.Routes {
		stops := make([]dto.StopResponse, 0, len(route.Stops))
		for _, idx := range route.Stops {
			loc := result.Locations[idx]
			stops = append(stops, dto.StopResponse{
				Index: idx,
				Label: loc.Label(),
				Lat:   loc.Lat,
				Lon:   loc.Lon,
			})
		}

		g := geomByVehicle[route.VehicleID]
		res.Routes = append(res.Routes, dto.RouteResponse{
			VehicleID:        route.VehicleID,
			Stops:            stops,
			DistanceMeters:   route.DistanceMeters,
			Geometry:         encodePolyline(g.Line),
			GeometryDegraded: g.Degraded,
		})
	}

	for _, impact := range result.Impacts {
		coords := make([][2]float64, 0, len(impact.Coordinates))
		for _, p := range impact.Coordinates {
			coords = append(coords, [2]float64{p.Lat(), p.Lon()})
		}
		res.Impacts = append(res.Impacts, dto.RoadImpactResponse{
			Name:           impact.Name,
			Class:          impact.Class,
			Description:    impact.Description,
			Severity:       string(impact.Severity),
			AffectedPoints: impact.AffectedPoints,
			Coordinates:    coords,
		})
	}

	for _, alt := range result.Alternatives {
		res.Alternatives = append(res.Alternatives, dto.AlternativeResponse{
			VehicleID:     alt.VehicleID,
			Label:         alt.Label,
			Geometry:      encodePolyline(alt.Geometry),
			Degraded:      alt.Degraded,
			ExtraTime:     alt.ExtraTime,
			ExtraDistance: alt.ExtraDistance,
			SafetyRating:  alt.SafetyRating,
			RouteType:     alt.RouteType,
		})
	}

	return res
}

// encodePolyline renders a line as a Google encoded polyline (lat, lon
// order) to keep response payloads small for dense geometry.
func encodePolyline(line orb.LineString) string {
	if len(line) == 0 {
		return ""
	}
	coords := make([][]float64, 0, len(line))
	for _, p := range line {
		coords = append(coords, []float64{p.Lat(), p.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}
