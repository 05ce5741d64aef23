// Package hazard implements the HazardRasterProvider adapter over the flood
// analysis webhook: a request for a tile returns a result URL, which is then
// downloaded as a JSON raster payload.
package hazard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"route-safety-service/internal/domain"
	"route-safety-service/internal/platform/httpretry"
	"route-safety-service/internal/ports"
)

type analysisRequest struct {
	Coordinates string `json:"coordinates"`
	Timestamp   int64  `json:"timestamp"`
}

type analysisResponse struct {
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

type rasterPayload struct {
	CRS       string    `json:"crs"`
	Transform []float64 `json:"transform"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Pixels    [][]uint8 `json:"pixels"`
}

const (
	statusSuccess = "success"
	statusNoData  = "no_data"
)

// FloodRasterClient calls the flood analysis webhook for one tile at a time.
// Requests are rate limited to stay inside the provider's quota regardless
// of how wide the caller fans out. Safe for concurrent use.
type FloodRasterClient struct {
	session    *http.Client
	webhookURL string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewFloodRasterClient(webhookURL string, requestsPerSecond float64, logger *zap.Logger) (*FloodRasterClient, error) {
	if webhookURL == "" {
		return nil, errors.New("flood webhook URL is empty")
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}

	return &FloodRasterClient{
		session:    &http.Client{Timeout: 60 * time.Second},
		webhookURL: webhookURL,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger,
	}, nil
}

// FetchRaster requests flood analysis for one tile bound and analysis date.
// Returns (nil, nil) when the provider reports no data for the tile.
func (c *FloodRasterClient) FetchRaster(ctx context.Context, bound orb.Bound, date time.Time) (*domain.HazardTile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(analysisRequest{
		Coordinates: fmt.Sprintf("%f,%f,%f,%f",
			bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()),
		Timestamp: date.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	resp, err := httpretry.DoWithRetry(ctx, c.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w: %w", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var ar analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w: %w", ports.ErrMalformedResponse, err)
	}

	switch ar.Status {
	case statusNoData:
		return nil, nil
	case statusSuccess:
		// fall through to raster download
	default:
		return nil, fmt.Errorf("%w: analysis status %q", ports.ErrMalformedResponse, ar.Status)
	}

	if ar.ResultURL == "" {
		return nil, fmt.Errorf("%w: analysis response missing result_url", ports.ErrMalformedResponse)
	}

	return c.fetchPayload(ctx, bound, ar.ResultURL)
}

func (c *FloodRasterClient) fetchPayload(ctx context.Context, bound orb.Bound, url string) (*domain.HazardTile, error) {
	resp, err := httpretry.DoWithRetry(ctx, c.session, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("raster download: %w: %w", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var rp rasterPayload
	if err := json.NewDecoder(resp.Body).Decode(&rp); err != nil {
		return nil, fmt.Errorf("decode raster payload: %w: %w", ports.ErrMalformedResponse, err)
	}

	tile, err := buildTile(bound, rp)
	if err != nil {
		return nil, err
	}
	if tile == nil {
		// Empty payload body after a success status: no data for the tile.
		return nil, nil
	}

	c.logger.Debug("hazard raster fetched",
		zap.String("crs", tile.CRS),
		zap.Int("width", tile.Width()),
		zap.Int("height", tile.Height()))
	return tile, nil
}

// buildTile validates the raster payload field by field; any inconsistency
// is a malformed response, never a partial tile.
func buildTile(bound orb.Bound, rp rasterPayload) (*domain.HazardTile, error) {
	if rp.Width == 0 && rp.Height == 0 && len(rp.Pixels) == 0 {
		// Provider may signal emptiness with an empty payload body.
		return nil, nil
	}

	if rp.CRS == "" {
		return nil, fmt.Errorf("%w: raster payload missing crs", ports.ErrMalformedResponse)
	}
	if len(rp.Transform) != 6 {
		return nil, fmt.Errorf(
			"%w: raster geotransform has %d coefficients, want 6",
			ports.ErrMalformedResponse, len(rp.Transform),
		)
	}
	if rp.Height <= 0 || rp.Width <= 0 || len(rp.Pixels) != rp.Height {
		return nil, fmt.Errorf(
			"%w: raster is %dx%d but payload has %d rows",
			ports.ErrMalformedResponse, rp.Width, rp.Height, len(rp.Pixels),
		)
	}
	for i, row := range rp.Pixels {
		if len(row) != rp.Width {
			return nil, fmt.Errorf(
				"%w: raster row %d has %d pixels, want %d",
				ports.ErrMalformedResponse, i, len(row), rp.Width,
			)
		}
	}

	var transform [6]float64
	copy(transform[:], rp.Transform)

	return &domain.HazardTile{
		Bound:     bound,
		CRS:       rp.CRS,
		Transform: transform,
		Pixels:    rp.Pixels,
	}, nil
}
