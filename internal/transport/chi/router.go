package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/schooldex/internal/metrics"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	// APIKeys guard the cache admin routes; empty disables the check.
	APIKeys []string
	// RequestTimeout cancels the request context; zero disables it.
	RequestTimeout time.Duration
}

// NewRouter mounts the server routes with the standard middleware chain.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	if cfg.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search/filters", s.GetFilters)
		r.Get("/search/suggestions", s.GetSuggestions)
		r.Get("/schools", s.ListSchools)
		r.Post("/query", s.Query)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(cfg.APIKeys))
			r.Post("/cache/invalidate", s.InvalidateCache)
			r.Delete("/cache", s.FlushCache)
		})
	})
	return r
}
