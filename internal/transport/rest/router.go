package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/auth"
	"github.com/frahmantamala/servicebook/internal/claim"
	"github.com/frahmantamala/servicebook/internal/machine"
	"github.com/frahmantamala/servicebook/internal/maintenance"
	"github.com/frahmantamala/servicebook/internal/maintenancetype"
	"github.com/frahmantamala/servicebook/internal/transport/middleware"
	"github.com/frahmantamala/servicebook/internal/transport/swagger"
	"github.com/frahmantamala/servicebook/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

const SchemaPath = "/api/schema/"

type Handlers struct {
	Auth            *auth.Handler
	RBAC            *auth.RBACAuthorization
	User            *user.Handler
	Machine         *machine.Handler
	Maintenance     *maintenance.Handler
	Claim           *claim.Handler
	MaintenanceType *maintenancetype.Handler
	Health          *HealthHandler
	Schema          http.Handler
}

type Options struct {
	AllowedOrigins string
	SearchRate     float64
	SearchBurst    int
	// LogBodies turns on request/response logging with secrets masked.
	LogBodies bool
	Logger    *slog.Logger
}

func RegisterAllRoutes(router chi.Router, h *Handlers, opts Options) {
	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	if opts.LogBodies {
		router.Use(middleware.LoggingMiddleware(nil))
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Check)
		r.Get("/ping", h.Health.Ping)

		if h.Schema != nil {
			r.Handle("/schema/", h.Schema)
			r.Handle("/docs/*", swagger.Handler(SchemaPath))
		}

		r.Route("/auth/token", func(ar chi.Router) {
			ar.Post("/", h.Auth.Login)
			ar.Post("/refresh/", h.Auth.Refresh)
			ar.Post("/verify/", h.Auth.Verify)
		})

		// Public lookup, throttled per client IP
		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RateLimit(opts.SearchRate, opts.SearchBurst))
			sr.Use(h.Auth.AuthMiddleware)
			sr.Get("/search", h.Machine.Search)
			sr.Get("/search/", h.Machine.Search)
		})

		// Everything below reads the caller from an optional bearer token
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.With(h.RBAC.RequireAuthenticated()).Get("/me/", h.User.Me)
			pr.Get("/maintenance-types/", h.MaintenanceType.List)

			pr.Route("/machines", func(mr chi.Router) {
				mr.Use(h.RBAC.RequireWrite(access.Machines))
				mr.Get("/", h.Machine.List)
				mr.Post("/", h.Machine.Create)
				mr.Get("/facets/", h.Machine.Facets)
				mr.Get("/{id}/", h.Machine.Get)
				mr.Put("/{id}/", h.Machine.Replace)
				mr.Patch("/{id}/", h.Machine.Patch)
				mr.Delete("/{id}/", h.Machine.Delete)
			})

			pr.Route("/maintenance", func(mr chi.Router) {
				mr.Use(h.RBAC.RequireWrite(access.Maintenance))
				mr.Get("/", h.Maintenance.List)
				mr.Post("/", h.Maintenance.Create)
				mr.Get("/facets/", h.Maintenance.Facets)
				mr.Get("/{id}/", h.Maintenance.Get)
				mr.Put("/{id}/", h.Maintenance.Replace)
				mr.Patch("/{id}/", h.Maintenance.Patch)
				mr.Delete("/{id}/", h.Maintenance.Delete)
			})

			pr.Route("/claims", func(cr chi.Router) {
				cr.Use(h.RBAC.RequireWrite(access.Claims))
				cr.Get("/", h.Claim.List)
				cr.Post("/", h.Claim.Create)
				cr.Get("/facets/", h.Claim.Facets)
				cr.Get("/{id}/", h.Claim.Get)
				cr.Put("/{id}/", h.Claim.Replace)
				cr.Patch("/{id}/", h.Claim.Patch)
				cr.Delete("/{id}/", h.Claim.Delete)
			})
		})
	})
}
