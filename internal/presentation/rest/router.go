package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routable registers a group of endpoints on a router.
type Routable interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter assembles the API surface. Health and metrics sit outside the
// /api/v1 group so probes and scrapers skip the CORS and logging stack.
func NewRouter(logger *slog.Logger, metrics http.Handler, health *HealthHandler, handlers ...Routable) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	health.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-Id"},
			MaxAge:         300,
		}))
		api.Use(TraceMiddleware)
		api.Use(RequestLogger(logger))
		for _, h := range handlers {
			h.RegisterRoutes(api)
		}
	})

	return r
}
