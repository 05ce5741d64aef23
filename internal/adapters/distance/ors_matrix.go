// Package distance implements DistanceMatrixProvider adapters: the
// OpenRouteService matrix endpoint for road distances and a haversine
// fallback for keyless operation.
package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"route-safety-service/internal/platform/httpretry"
	"route-safety-service/internal/platform/obs"
	"route-safety-service/internal/ports"
)

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
}

// ORSMatrixProvider builds full NxN distance matrices using the
// OpenRouteService matrix endpoint. Safe for concurrent use.
type ORSMatrixProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	logger  *zap.Logger
}

func NewORSMatrixProvider(apiKey string, logger *zap.Logger) (*ORSMatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSMatrixProvider{
		session: &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
		logger:  logger,
	}, nil
}

// GetMatrix fetches the all-pairs driving distance matrix for the points.
func (o *ORSMatrixProvider) GetMatrix(ctx context.Context, points []orb.Point) (_ [][]int, err error) {
	defer obs.Time(ctx, o.logger, "ors.GetMatrix")(&err)

	if len(points) == 0 {
		return [][]int{}, nil
	}

	locations := make([][]float64, 0, len(points))
	for _, p := range points {
		locations = append(locations, []float64{p.Lon(), p.Lat()})
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	resp, err := httpretry.DoWithRetry(ctx, o.session, func() (*http.Request, error) {
		return o.newRequest(ctx, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request: %w: %w", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w: %w", ports.ErrMalformedResponse, err)
	}

	if len(mr.Distances) != len(points) {
		return nil, fmt.Errorf(
			"%w: expected %d matrix rows, got %d",
			ports.ErrMalformedResponse, len(points), len(mr.Distances),
		)
	}

	out := make([][]int, len(points))
	for i, row := range mr.Distances {
		if len(row) != len(points) {
			return nil, fmt.Errorf(
				"%w: matrix row %d has %d entries, want %d",
				ports.ErrMalformedResponse, i, len(row), len(points),
			)
		}

		out[i] = make([]int, len(points))
		for j, cell := range row {
			if i == j {
				continue
			}
			if cell == nil {
				return nil, fmt.Errorf(
					"%w: matrix cell [%d][%d] is unroutable",
					ports.ErrMalformedResponse, i, j,
				)
			}
			// ORS returns float meters; round for integer arc costs.
			out[i][j] = int(math.Round(*cell))
		}
	}

	return out, nil
}

func (o *ORSMatrixProvider) newRequest(ctx context.Context, url string, body *bytes.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
