package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/audithub/audithub/internal/directory"
	"github.com/audithub/audithub/internal/grants"
	"github.com/audithub/audithub/internal/identity"
	"github.com/audithub/audithub/internal/observability"
	"github.com/audithub/audithub/internal/ordering"
	"github.com/audithub/audithub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Resolver         *identity.Resolver
	DirectoryHandler *directory.Handler
	GrantsHandler    *grants.Handler
	OrderingHandler  *ordering.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with AuditHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	authenticated := identity.Middleware(params.Resolver, params.Logger)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticated)
		r.Route("/users", params.DirectoryHandler.MountRoutes)
		r.Route("/grants", params.GrantsHandler.MountRoutes)
	})

	r.Route("/maintenance", func(r chi.Router) {
		r.Use(authenticated)
		params.OrderingHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
