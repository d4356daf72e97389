package web

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/servicebook/internal/transport/middleware"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Options struct {
	// LogBodies turns on request/response logging with secrets masked.
	LogBodies bool
	Logger    *slog.Logger
}

func RegisterRoutes(router chi.Router, h *Handler, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	if opts.LogBodies {
		router.Use(middleware.LoggingMiddleware(nil))
	}

	router.Handle("/static/*", http.StripPrefix("/static/", staticFiles()))

	router.Group(func(r chi.Router) {
		r.Use(h.Session)

		r.Get("/", h.Home)
		r.Get("/filter", h.Filter)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/machines/{id}", h.Machine)

		r.Route("/ui/{collection}", func(ur chi.Router) {
			ur.Post("/", h.Save)
			ur.Post("/{id}", h.Save)
			ur.Post("/{id}/delete", h.Remove)
		})
	})
}
