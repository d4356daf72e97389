package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/client"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func staticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// frame is what layout.html renders around every page.
type frame struct {
	Title   string
	Auth    bool
	Profile *client.Profile
	Role    access.Role
	Page    interface{}
}

type pages struct {
	set map[string]*template.Template
}

var funcs = template.FuncMap{
	"hours": hoursText,
	"spare": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func parsePages() (*pages, error) {
	p := &pages{set: make(map[string]*template.Template)}
	for _, name := range []string{"search.html", "login.html", "dashboard.html", "detail.html"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/table.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		p.set[name] = t
	}
	return p, nil
}

// render buffers the page so a template error still produces a clean 500.
func (p *pages) render(w http.ResponseWriter, status int, name string, data frame) error {
	t, ok := p.set[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// table renders the rows fragment the dashboard swaps in after a mutation.
func (p *pages) table(data tableView) (string, error) {
	var buf bytes.Buffer
	if err := p.set["dashboard.html"].ExecuteTemplate(&buf, "table", data); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}
	return buf.String(), nil
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name string, data frame) {
	if err := h.pages.render(w, status, name, data); err != nil {
		h.Logger.Error("render failed", "page", name, "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
