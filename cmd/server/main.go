package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"route-safety-service/internal/adapters/distance"
	"route-safety-service/internal/adapters/geometry"
	"route-safety-service/internal/adapters/hazard"
	"route-safety-service/internal/adapters/roads"
	"route-safety-service/internal/api"
	"route-safety-service/internal/hazardcache"
	"route-safety-service/internal/ports"
	"route-safety-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (ORS, flood webhook, Overpass) behind ports
// and starts the HTTP server.
func main() {
	// Missing .env is fine; the process environment is authoritative.
	_ = godotenv.Load()

	logger, err := newLogger(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	port := getEnv("PORT", "8080")
	webhookURL := os.Getenv("FLOOD_WEBHOOK_URL")
	if strings.TrimSpace(webhookURL) == "" {
		logger.Fatal("FLOOD_WEBHOOK_URL is required")
	}

	// Without an ORS key the service still plans routes: haversine distances
	// and straight-leg geometry, flagged degraded in responses.
	var (
		matrixProvider   ports.DistanceMatrixProvider
		geometryProvider ports.RouteGeometryProvider
	)
	orsKey := strings.TrimSpace(os.Getenv("ORS_API_KEY"))
	if orsKey == "" {
		logger.Warn("ORS_API_KEY not set, falling back to haversine distances and sparse geometry")
		matrixProvider = distance.NewHaversineMatrixProvider()
		geometryProvider = geometry.NewLinearGeometryProvider()
	} else {
		matrixProvider, err = distance.NewORSMatrixProvider(orsKey, logger)
		if err != nil {
			logger.Fatal("init matrix provider", zap.Error(err))
		}
		geometryProvider, err = geometry.NewORSDirectionsProvider(orsKey, logger)
		if err != nil {
			logger.Fatal("init directions provider", zap.Error(err))
		}
	}

	hazardProvider, err := hazard.NewFloodRasterClient(webhookURL, 2, logger)
	if err != nil {
		logger.Fatal("init flood raster client", zap.Error(err))
	}

	roadProvider := roads.NewOverpassClient(getEnv("OVERPASS_URL", ""), logger)

	tileCache := hazardcache.New(hazardProvider, logger)
	engine := services.NewEngine(matrixProvider, geometryProvider, roadProvider, tileCache, logger, services.EngineConfig{})
	router := api.NewRouter(engine, logger)

	// Timeouts are tuned for many-tile hazard analysis (external API latency).
	logger.Info("server listening", zap.String("addr", ":"+port))
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logger.Fatal("server stopped", zap.Error(srv.ListenAndServe()))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}
