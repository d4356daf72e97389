// Package web is the server-rendered dashboard. It talks to the API only through
// internal/client, one session-bound client per request.
package web

import (
	"log/slog"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/transport"
	"golang.org/x/sync/singleflight"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Dependencies struct {
	API       *client.Client
	Facets    *client.FacetsCache
	Publisher events.Publisher
	Cookie    CookieConfig
	Logger    *slog.Logger
}

type Handler struct {
	*transport.BaseHandler
	api       *client.Client
	facets    *client.FacetsCache
	publisher events.Publisher
	cookie    CookieConfig
	pages     *pages
	// submits collapses a double submission of the same form within one session.
	submits singleflight.Group
}

func NewHandler(deps Dependencies) (*Handler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	if deps.Cookie.Name == "" {
		deps.Cookie.Name = "access_token"
	}
	base := transport.NewBaseHandler(deps.Logger)
	base.Logger = base.Logger.With("component", "web")
	return &Handler{
		BaseHandler: base,
		api:         deps.API,
		facets:      deps.Facets,
		publisher:   deps.Publisher,
		cookie:      deps.Cookie,
		pages:       p,
	}, nil
}

func roleOf(p *client.Profile) access.Role {
	if p == nil {
		return access.RoleUnknown
	}
	return access.Resolve(&access.Profile{IsStaff: p.IsStaff, Groups: p.Groups})
}
