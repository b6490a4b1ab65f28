package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/studiumlab/tutor-backend/internal/api/middleware"
	pipelineapi "github.com/studiumlab/tutor-backend/internal/api/pipeline"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(pipelineHandler *pipelineapi.Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Register routes
	pipelineapi.RegisterRoutes(r, pipelineHandler, apiKey)

	return r
}
