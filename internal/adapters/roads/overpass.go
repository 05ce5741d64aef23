// Package roads implements the RoadNetworkProvider adapter over the
// OpenStreetMap Overpass API.
package roads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/domain"
	"route-safety-service/internal/platform/httpretry"
	"route-safety-service/internal/platform/obs"
	"route-safety-service/internal/ports"
)

const defaultOverpassURL = "https://overpass-api.de/api/interpreter"

type overpassGeom struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []overpassGeom    `json:"geometry"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// OverpassClient fetches named highway line features for a bounding box.
// Safe for concurrent use.
type OverpassClient struct {
	session *http.Client
	baseURL string
	logger  *zap.Logger
}

func NewOverpassClient(baseURL string, logger *zap.Logger) *OverpassClient {
	if baseURL == "" {
		baseURL = defaultOverpassURL
	}
	return &OverpassClient{
		session: &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *OverpassClient) GetRoads(ctx context.Context, bound orb.Bound) (_ []domain.RoadFeature, err error) {
	defer obs.Time(ctx, c.logger, "overpass.GetRoads")(&err)

	// Overpass bounding boxes are (south, west, north, east).
	query := fmt.Sprintf(`[out:json];(way["highway"](%f,%f,%f,%f););out geom;`,
		bound.Min.Lat(), bound.Min.Lon(), bound.Max.Lat(), bound.Max.Lon())

	form := url.Values{"data": {query}}

	resp, err := httpretry.DoWithRetry(ctx, c.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w: %w", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var or overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w: %w", ports.ErrMalformedResponse, err)
	}

	features := make([]domain.RoadFeature, 0, len(or.Elements))
	for _, el := range or.Elements {
		if el.Type != "way" || len(el.Geometry) == 0 {
			continue
		}

		line := make(orb.LineString, 0, len(el.Geometry))
		for _, g := range el.Geometry {
			line = append(line, orb.Point{g.Lon, g.Lat})
		}

		features = append(features, domain.RoadFeature{
			Name:     el.Tags["name"],
			Class:    el.Tags["highway"],
			Geometry: line,
		})
	}

	return features, nil
}
