// Package handler implements the HTTP handlers of the preview server.
// All handlers are methods on Server. Methods are split into files by concern
// (health.go, permit.go, site.go) but share the same Server struct.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/middleware"
	"github.com/pkordes/permitsite/internal/seo"
	"github.com/pkordes/permitsite/internal/service"
)

// MaxClassifyBody is the largest permit document POST /api/classify accepts.
const MaxClassifyBody = 1 << 20

// PermitServicer defines the business operations the permit handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the data source.
type PermitServicer interface {
	List(ctx context.Context, params domain.PaginationParams) (domain.Page[service.PermitSummary], error)
	Get(ctx context.Context, id string) (service.PermitDetail, error)
	Classify(p domain.Permit) seo.Decision
}

// Server holds the dependencies of every handler.
type Server struct {
	permits PermitServicer
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(permits PermitServicer, log *slog.Logger) *Server {
	return &Server{permits: permits, log: log}
}

// RouterConfig is everything NewRouter wires together.
type RouterConfig struct {
	Server      *Server
	Logger      *slog.Logger
	CORSOrigins []string

	// SiteDir is the generated site served at "/". Empty disables it.
	SiteDir string
	// Directives are echoed as X-Robots-Tag on matching static pages.
	Directives middleware.RobotsDirectives
}

// NewRouter builds the preview server's chi router.
//
// Middleware is applied in order: RequestID → RealIP → SlogLogger →
// Recoverer → CORS. RequestID must come before SlogLogger so each log line
// carries the request ID.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))

	s := cfg.Server
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api", func(r chi.Router) {
		r.Get("/permits", s.ListPermits)
		r.Get("/permits/{id}", s.GetPermit)
		r.With(middleware.NewMaxBodySizeHandler(MaxClassifyBody)).Post("/classify", s.ClassifyPermit)
	})

	if cfg.SiteDir != "" {
		site := middleware.NewRobotsTagHandler(cfg.Directives)(SiteHandler(cfg.SiteDir))
		r.Method(http.MethodGet, "/*", site)
		r.Method(http.MethodHead, "/*", site)
	}
	return r
}
