package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/transport"
)

type ServiceAPI interface {
	Profile(ctx context.Context, id int64) (*Profile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Me handles GET /me/
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrNotAuthenticated)
		return
	}

	profile, err := h.Service.Profile(r.Context(), p.ID)
	if err != nil {
		h.Logger.Error("Me: failed to load profile", "user_id", p.ID, "error", err)
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
