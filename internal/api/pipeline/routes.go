package pipelineapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/studiumlab/tutor-backend/internal/api/middleware"
)

// RegisterRoutes registers the pipeline endpoints. An empty apiKey disables
// authentication (local runs).
func RegisterRoutes(r chi.Router, h *Handler, apiKey string) {
	r.Route("/api/v1/pipelines", func(r chi.Router) {
		if apiKey != "" {
			r.Use(middleware.APIKeyAuth(apiKey))
		}
		r.Post("/tutor-chat/{variant}/run", h.RunTutorChat)
		r.Get("/{feature}", h.FeatureNotImplemented)
	})
}
