package machine

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/frahmantamala/servicebook/internal/query"
	"github.com/frahmantamala/servicebook/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, q url.Values, page *query.Page) ([]ListItem, int64, error)
	Get(ctx context.Context, id int64) (*Detail, error)
	Create(ctx context.Context, dto WriteDTO) (*Machine, error)
	Update(ctx context.Context, id int64, dto WriteDTO, full bool) (*Machine, error)
	Delete(ctx context.Context, id int64) error
	Facets(ctx context.Context) (*Facets, error)
	Search(ctx context.Context, term string) ([]Public, error)
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

// List serves GET /machines/. The response is a bare array unless ?page= is given.
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
	detail, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto WriteDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	m, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
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
	m, err := h.Service.Update(r.Context(), id, dto, full)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
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

// Search serves the public lookup at GET /search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		h.WriteJSON(w, http.StatusBadRequest, map[string]string{"q": EmptySearchMessage, "detail": EmptySearchMessage})
		return
	}
	found, err := h.Service.Search(r.Context(), term)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, found)
}
