package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CatalogHandler defines the HTTP handlers of one thesis catalog, allowing
// the router to be decoupled from the concrete search implementation.
type CatalogHandler interface {
	Search(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Recommend(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Dependencies holds all injectable dependencies used by route handlers.
type Dependencies struct {
	DB          HealthChecker
	DevMode     bool
	CORSOrigins []string
	// Catalogs maps the URL segment under /api to its handler, e.g. "books".
	Catalogs map[string]CatalogHandler
	// CatalogIndex serves GET /api/catalogs when set.
	CatalogIndex http.HandlerFunc
}

// NewRouter builds the chi router with the route tree and middleware stack.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// --- Global middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(deps.DevMode, deps.CORSOrigins))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// --- Health check ---
	r.Get("/health", healthHandler(deps))

	// --- Public API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(requireJSON)
		if deps.CatalogIndex != nil {
			r.Get("/catalogs", deps.CatalogIndex)
		}
		for name, h := range deps.Catalogs {
			r.Route("/"+name, func(r chi.Router) {
				r.Post("/search", h.Search)
				r.Get("/{id}", h.Get)
				r.Post("/{id}/recommend", h.Recommend)
			})
		}
	})

	return r
}

// corsMiddleware returns a CORS middleware. Dev mode adds the local frontend
// origins to the configured list.
func corsMiddleware(devMode bool, origins []string) func(http.Handler) http.Handler {
	allowedOrigins := append([]string{}, origins...)
	if devMode {
		allowedOrigins = append(allowedOrigins, "http://localhost:5173", "http://localhost:3000")
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

// healthHandler reports the health status of the application, including a
// database connectivity check.
func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.DB == nil {
			JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		if err := deps.DB.Health(r.Context()); err != nil {
			Error(w, http.StatusServiceUnavailable, "database health check failed", "")
			return
		}
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, "route not found", "")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "method not allowed", "")
}
