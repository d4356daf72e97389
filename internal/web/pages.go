package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/filter"
	"github.com/frahmantamala/servicebook/internal/form"
	"github.com/frahmantamala/servicebook/internal/session"
	"github.com/frahmantamala/servicebook/internal/web/view"
	"github.com/frahmantamala/servicebook/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	MessageNoMatches  = "Машины с таким номером не найдено"
	MessageLoadFailed = "Не удалось загрузить"
)

// viewer fetches the profile behind the session. A token the API no longer accepts clears the
// session, and the caller carries on anonymously.
func (h *Handler) viewer(ctx context.Context, s *session.Store, api *client.Client) *client.Profile {
	if !s.Authenticated() {
		return nil
	}
	profile, err := api.Me(ctx)
	if err != nil {
		logger.From(ctx).Info("session rejected, continuing anonymously", "error", err)
		s.Clear()
		return nil
	}
	return profile
}

// Home is the dashboard for a signed-in user and the public serial lookup otherwise.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	api := h.api.For(s)

	profile := h.viewer(r.Context(), s, api)
	if profile == nil {
		h.search(w, r, api)
		return
	}
	h.dashboard(w, r, api, profile)
}

type searchView struct {
	Query   string
	State   string
	Message string
	Results []client.PublicMachine
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, api *client.Client) {
	v := searchView{Query: strings.TrimSpace(r.URL.Query().Get("q")), State: "idle"}
	if v.Query != "" {
		results, err := api.Search(r.Context(), v.Query)
		switch {
		case err != nil:
			v.State, v.Message = "error", err.Error()
		case len(results) == 0:
			v.State, v.Message = "empty", MessageNoMatches
		default:
			v.State, v.Results = "results", results
		}
	}
	h.page(w, r, http.StatusOK, "search.html", frame{Title: "Поиск машины", Page: v})
}

type tabLink struct {
	Title  string
	URL    string
	Active bool
}

type filterInput struct {
	filter.Field
	Value string
}

type chipLink struct {
	Text string
	URL  string
}

type dashboardView struct {
	Tabs     []tabLink
	Filters  []filterInput
	Chips    []chipLink
	ClearURL string
	// Return is the current query, posted back by filters and forms.
	Return string
	NewURL string
	Table  tableView
	Modal  *modalView
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request, api *client.Client, profile *client.Profile) {
	ctx := r.Context()
	q := r.URL.Query()
	tab := tabFor(q.Get("tab"))
	role := roleOf(profile)
	perms := access.For(role, tab.Collection)
	b := newBoard(api, tab, q)

	var (
		facets    client.Facets
		ch        choices
		typeNames = map[int64]string{}
	)
	loads := []func(ctx context.Context) error{
		func(ctx context.Context) error {
			f, err := h.facets.Get(ctx, api, tab.Collection, strconv.FormatInt(profile.ID, 10))
			if err != nil {
				logger.From(ctx).Warn("facets unavailable", "collection", tab.Collection, "error", err)
				return err
			}
			facets = f
			return nil
		},
	}
	if tab.Collection != access.Machines {
		loads = append(loads, func(ctx context.Context) error {
			machines, err := api.ListMachines(ctx, url.Values{"ordering": {"serial_number"}})
			if err != nil {
				logger.From(ctx).Warn("machine options unavailable", "error", err)
				return err
			}
			ch.machines = form.MachineOptions(machines)
			return nil
		})
	}
	if tab.Collection == access.Maintenance {
		loads = append(loads, func(ctx context.Context) error {
			types, err := api.MaintenanceTypes(ctx)
			if err != nil {
				logger.From(ctx).Warn("maintenance types unavailable", "error", err)
				return err
			}
			for _, t := range types {
				ch.types = append(ch.types, form.TypeOption{ID: t.ID, Name: t.Name})
				typeNames[t.ID] = t.Name
			}
			return nil
		})
	}

	if err := view.Gather(ctx, b.Load, loads...); errors.Is(err, view.ErrStale) {
		return
	}

	ctl := tab.controller(facets)
	v := dashboardView{
		Return: q.Encode(),
		Table:  b.table(perms, q, typeNames),
		Modal:  b.modal(perms, q, ch),
	}
	for _, t := range tabs {
		v.Tabs = append(v.Tabs, tabLink{
			Title:  t.Title,
			URL:    "/?" + tab.switchTo(q, t).Encode(),
			Active: t.Collection == tab.Collection,
		})
	}
	for _, f := range ctl.Fields() {
		v.Filters = append(v.Filters, filterInput{Field: f, Value: q.Get(f.Name)})
	}
	for _, c := range ctl.Chips(q) {
		v.Chips = append(v.Chips, chipLink{Text: c.Text(), URL: "/?" + c.Query.Encode()})
	}
	if len(tab.names().Active(q)) > 0 {
		v.ClearURL = "/?" + tab.names().Clear(modalQuery(q)).Encode()
	}
	if perms.CanCreate {
		nq := modalQuery(q)
		nq.Set("new", "1")
		v.NewURL = "/?" + nq.Encode()
	}

	h.page(w, r, http.StatusOK, "dashboard.html", frame{
		Title:   tab.Title,
		Auth:    true,
		Profile: profile,
		Role:    role,
		Page:    v,
	})
}

// Filter commits one field and redirects to the resulting dashboard URL. The page reaches it
// through location.replace so the history entry is replaced, not added.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := url.ParseQuery(params.Get("return"))
	if err != nil {
		q = url.Values{}
	}
	tab := tabFor(q.Get("tab"))
	next := tab.names().Commit(modalQuery(q), params.Get("name"), params.Get("value"))
	http.Redirect(w, r, "/?"+next.Encode(), http.StatusSeeOther)
}

type loginView struct {
	Username string
	Error    string
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.page(w, r, http.StatusOK, "login.html", frame{Title: "Вход", Page: loginView{}})
}

// Login stores the token through the session, which writes the cookie, then goes home.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.page(w, r, http.StatusBadRequest, "login.html", frame{Title: "Вход", Page: loginView{Error: client.LoginFallbackMessage}})
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	s := sessionFrom(r.Context())

	if _, err := h.api.For(s).Login(r.Context(), s, username, r.PostForm.Get("password")); err != nil {
		message := client.LoginFallbackMessage
		var herr *client.HTTPError
		if errors.As(err, &herr) {
			message = herr.Error()
		}
		logger.From(r.Context()).Info("login failed", "username", username, "error", err)
		h.page(w, r, http.StatusOK, "login.html", frame{Title: "Вход", Page: loginView{Username: username, Error: message}})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type detailView struct {
	Machine *client.MachineDetail
	Error   string
}

// Machine is the detail page with both histories.
func (h *Handler) Machine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	s := sessionFrom(r.Context())
	api := h.api.For(s)
	profile := h.viewer(r.Context(), s, api)
	if profile == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	v := detailView{}
	machine, err := api.GetMachine(r.Context(), id)
	if err != nil {
		logger.From(r.Context()).Warn("machine detail failed", "id", id, "error", err)
		v.Error = MessageLoadFailed + ": " + err.Error()
	} else {
		v.Machine = machine
	}

	title := "Машина"
	if machine != nil {
		title = "Машина № " + machine.SerialNumber
	}
	h.page(w, r, http.StatusOK, "detail.html", frame{
		Title:   title,
		Auth:    true,
		Profile: profile,
		Role:    roleOf(profile),
		Page:    v,
	})
}
