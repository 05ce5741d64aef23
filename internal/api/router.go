package api

import (
	"net/http"

	"go.uber.org/zap"

	"route-safety-service/internal/api/handlers"
	"route-safety-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(engine *services.Engine, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	assessHandler := &handlers.AssessHandler{
		Engine: engine,
		Logger: logger,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/assess", assessHandler.Assess)

	return loggingMiddleware(mux, logger)
}
