package maintenance

import (
	"context"
	"net/http"
	"net/url"

	"github.com/frahmantamala/servicebook/internal/query"
	"github.com/frahmantamala/servicebook/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, q url.Values, page *query.Page) ([]Record, int64, error)
	Get(ctx context.Context, id int64) (*Record, error)
	Create(ctx context.Context, dto WriteDTO) (*Record, error)
	Update(ctx context.Context, id int64, dto WriteDTO, full bool) (*Record, error)
	Delete(ctx context.Context, id int64) error
	Facets(ctx context.Context) (*Facets, error)
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

// List serves GET /maintenance/. The response is a bare array unless ?page= is given.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := query.PageFrom(q)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	items, total, err := h.Service.List(r.Context(), q, page)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if page != nil {
		h.WriteJSON(w, http.StatusOK, query.NewPaginated(r, *page, total, items))
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathID(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto WriteDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	rec, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rec)
}

// Replace serves PUT: fields missing from the body are reset.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

// Patch serves PATCH: only the fields present in the body change.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, full bool) {
	id, ok := h.PathID(w, r)
	if !ok {
		return
	}
	var dto WriteDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	rec, err := h.Service.Update(r.Context(), id, dto, full)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Facets(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}
