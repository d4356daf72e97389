package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/core/events"
	"github.com/frahmantamala/servicebook/internal/form"
	"github.com/frahmantamala/servicebook/internal/web/view"
	"github.com/frahmantamala/servicebook/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	MessageSessionExpired = "Сессия истекла, войдите снова"
	MessageForbidden      = "Недостаточно прав"
	MessageBadForm        = "Некорректные данные формы"
)

type mutationResponse struct {
	// HTML is the re-fetched table that replaces the current one.
	HTML     string `json:"html"`
	Redirect string `json:"redirect"`
}

type alertResponse struct {
	Error string `json:"error"`
}

func (h *Handler) alert(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, alertResponse{Error: message})
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (access.Collection, bool) {
	name := chi.URLParam(r, "collection")
	for _, c := range access.Collections {
		if string(c) == name {
			return c, true
		}
	}
	h.alert(w, http.StatusNotFound, "Not found.")
	return "", false
}

func formPayload(collection access.Collection, v url.Values) (client.Payload, error) {
	switch collection {
	case access.Maintenance:
		f := form.MaintenanceFromValues(v)
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f.Payload(), nil
	case access.Claims:
		f := form.ClaimFromValues(v)
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f.Payload(), nil
	default:
		f := form.MachineFromValues(v)
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f.Payload(), nil
	}
}

// Save creates a record, or updates it when the route carries an id. Updates go out as PATCH
// so fields the form does not own are kept.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.collection(w, r)
	if !ok {
		return
	}
	var id int64
	if chi.URLParam(r, "id") != "" {
		if id, ok = h.PathID(w, r); !ok {
			return
		}
	}
	if err := r.ParseForm(); err != nil {
		h.alert(w, http.StatusBadRequest, MessageBadForm)
		return
	}

	payload, err := formPayload(collection, r.PostForm)
	if err != nil {
		h.alert(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	action := access.ActionCreate
	if id > 0 {
		action = access.ActionEdit
	}
	h.mutate(w, r, collection, action, id, payload, func(ctx context.Context, api *client.Client) error {
		if id == 0 {
			_, err := api.Create(ctx, collection, payload)
			return err
		}
		_, err := api.Update(ctx, collection, id, payload)
		return err
	})
}

// Remove deletes a record. The page asks for confirmation before posting here.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.collection(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.alert(w, http.StatusBadRequest, MessageBadForm)
		return
	}
	h.mutate(w, r, collection, access.ActionDelete, id, nil, func(ctx context.Context, api *client.Client) error {
		return api.Delete(ctx, collection, id)
	})
}

// submitKey identifies a submission for collapsing. Only the same payload sent to the same
// record from the same session shares a key.
func submitKey(token string, collection access.Collection, action access.Action, id int64, payload client.Payload) string {
	digest := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			sum := sha256.Sum256(raw)
			digest = hex.EncodeToString(sum[:])
		}
	}
	return strings.Join([]string{token, string(collection), string(action), strconv.FormatInt(id, 10), digest}, "|")
}

// mutate runs op and re-fetches the table with the filters the page had. A failed op
// answers with the server's message and nothing else changes. On success every cache derived
// from the touched collections is invalidated before the new table is returned.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, collection access.Collection, action access.Action, id int64, payload client.Payload, op func(ctx context.Context, api *client.Client) error) {
	ctx := r.Context()
	s := sessionFrom(ctx)
	api := h.api.For(s)

	profile, err := api.Me(ctx)
	if err != nil {
		s.Clear()
		h.alert(w, http.StatusUnauthorized, MessageSessionExpired)
		return
	}
	role := roleOf(profile)
	if !access.Can(role, collection, action) {
		h.alert(w, http.StatusForbidden, MessageForbidden)
		return
	}

	q, err := url.ParseQuery(r.PostForm.Get("return"))
	if err != nil {
		q = url.Values{}
	}
	q = modalQuery(q)
	q.Set("tab", string(collection))
	tab := tabFor(string(collection))

	v, err, shared := h.submits.Do(submitKey(s.Get(), collection, action, id, payload), func() (interface{}, error) {
		b := newBoard(api, tab, q)
		var opErr error
		err := b.Mutate(ctx, func(ctx context.Context) error {
			opErr = op(ctx, api)
			return opErr
		})
		if opErr != nil {
			return nil, opErr
		}
		h.invalidate(ctx, collection)
		if err != nil && !errors.Is(err, view.ErrStale) {
			logger.From(ctx).Warn("reload after mutation failed", "collection", collection, "error", err)
		}
		return b, nil
	})
	if shared {
		logger.From(ctx).Debug("duplicate submission collapsed", "collection", collection, "action", action)
	}
	if err != nil {
		logger.From(ctx).Info("mutation rejected", "collection", collection, "action", action, "id", id, "error", err)
		h.alert(w, http.StatusBadRequest, err.Error())
		return
	}

	var typeNames map[int64]string
	if collection == access.Maintenance {
		typeNames = maintenanceTypeNames(ctx, api)
	}
	html, err := h.pages.table(v.(*board).table(access.For(role, collection), q, typeNames))
	if err != nil {
		h.Logger.Error("render failed", "collection", collection, "error", err)
		h.alert(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.WriteJSON(w, http.StatusOK, mutationResponse{HTML: html, Redirect: "/?" + q.Encode()})
}

// maintenanceTypeNames resolves type ids for rows that carry only the id. A failed lookup leaves
// the ids as they are.
func maintenanceTypeNames(ctx context.Context, api *client.Client) map[int64]string {
	names := map[int64]string{}
	types, err := api.MaintenanceTypes(ctx)
	if err != nil {
		logger.From(ctx).Warn("maintenance types unavailable", "error", err)
		return names
	}
	for _, t := range types {
		names[t.ID] = t.Name
	}
	return names
}

func (h *Handler) invalidate(ctx context.Context, collection access.Collection) {
	if h.publisher == nil {
		return
	}
	event := events.NewCollectionInvalidatedEvent(client.Affected(collection)...)
	if err := h.publisher.PublishSync(ctx, event); err != nil {
		logger.From(ctx).Error("invalidation failed", "collection", collection, "error", err)
	}
}
