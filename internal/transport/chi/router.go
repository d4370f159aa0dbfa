package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/metrics"
)

// NewRouter mounts the API routes behind recovery, request id, logging, auth and metrics middleware.
func NewRouter(s *Server, apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/owners/{owner}/facts", func(r chi.Router) {
			r.Post("/", s.AddFact)
			r.Post("/import", s.ImportFacts)
			r.Get("/search", s.SearchFacts)
			r.Get("/{id}", s.GetFact)
		})
		r.Put("/prompts/{feature}", s.PutPrompt)
		r.Get("/prompts/{feature}", s.GetPrompt)
	})

	s.logger.Debug("HTTP routes mounted", zap.Int("api_keys", len(apiKeys)))
	return r
}
