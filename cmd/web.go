package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/web"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the dashboard",
	Long:  `Start the server-rendered dashboard. It reaches the data only through the REST API at web.api_base_url.`,
	Run: func(cmd *cobra.Command, args []string) {
		startWebServer()
	},
}

func startWebServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := setupLogger(cfg.Observability.Logging)

	bus := events.NewEventBus(lg)
	facets := client.NewFacetsCache(cfg.Web.FacetsTTL, lg)
	bus.Subscribe(events.EventTypeCollectionInvalidated, facets.OnCollectionInvalidated)

	handler, err := web.NewHandler(web.Dependencies{
		API: client.NewClient(client.Config{
			BaseURL: cfg.Web.APIBaseURL,
			Timeout: cfg.Web.RequestTimeout,
		}, lg),
		Facets:    facets,
		Publisher: bus,
		Cookie: web.CookieConfig{
			Name:   cfg.Web.CookieName,
			Secure: cfg.Web.CookieSecure,
		},
		Logger: lg,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dashboard: %v\n", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	web.RegisterRoutes(router, handler, web.Options{
		LogBodies: cfg.Observability.Logging.Level == "debug",
		Logger:    lg,
	})

	serve(&http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, lg, nil)
}
