package maintenancetype

import (
	"context"
	"net/http"

	"github.com/frahmantamala/servicebook/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]Type, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("List: failed to get maintenance types", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get maintenance types")
		return
	}
	h.WriteJSON(w, http.StatusOK, types)
}
