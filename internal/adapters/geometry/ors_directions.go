// Package geometry implements RouteGeometryProvider adapters over the
// OpenRouteService directions endpoint.
package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"route-safety-service/internal/platform/httpretry"
	"route-safety-service/internal/platform/obs"
	"route-safety-service/internal/ports"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// ORSDirectionsProvider fetches dense driving geometry through an ordered
// waypoint list, returned by ORS as a GeoJSON feature collection.
// Safe for concurrent use.
type ORSDirectionsProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	logger  *zap.Logger
}

func NewORSDirectionsProvider(apiKey string, logger *zap.Logger) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSDirectionsProvider{
		session: &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
		logger:  logger,
	}, nil
}

func (o *ORSDirectionsProvider) GetGeometry(ctx context.Context, waypoints []orb.Point) (_ orb.LineString, err error) {
	defer obs.Time(ctx, o.logger, "ors.GetGeometry")(&err)

	if len(waypoints) < 2 {
		return nil, errors.New("get geometry: need at least two waypoints")
	}

	coords := make([][]float64, 0, len(waypoints))
	for _, p := range waypoints {
		coords = append(coords, []float64{p.Lon(), p.Lat()})
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	resp, err := httpretry.DoWithRetry(ctx, o.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", o.apiKey)
		req.Header.Set("Accept", "application/geo+json")
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("directions request: %w: %w", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read directions response: %w: %w", ports.ErrProviderUnavailable, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode directions response: %w: %w", ports.ErrMalformedResponse, err)
	}

	var line orb.LineString
	for _, feature := range fc.Features {
		if ls, ok := feature.Geometry.(orb.LineString); ok {
			line = append(line, ls...)
		}
	}

	if len(line) == 0 {
		return nil, fmt.Errorf("%w: directions response has no line geometry", ports.ErrMalformedResponse)
	}
	return line, nil
}
