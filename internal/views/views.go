// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/BradenHooton/formgate/internal/session"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	PageLogin  = "login"
	PageMenu   = "menu"
	PageError  = "error"
	PageScreen = "screen"
	PageDriver = "driver"
	PageDebug  = "debug"
)

var pageNames = []string{PageLogin, PageMenu, PageError, PageScreen, PageDriver, PageDebug}

// FieldSource renders the hidden inputs every form must carry.
type FieldSource interface {
	Fields(r *http.Request) template.HTML
}

// Page is the data passed to every template.
type Page struct {
	Title    string
	Lang     string
	Identity *session.Identity
	Message  string
	Error    string
	Data     any
}

type Renderer struct {
	pages  map[string]*template.Template
	fields FieldSource
}

// New parses every page against the shared layout. The hiddenFields function
// is bound per request in Render.
func New(fields FieldSource) (*Renderer, error) {
	funcs := template.FuncMap{
		"hiddenFields": func() template.HTML { return "" },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{pages: pages, fields: fields}, nil
}

// Render executes the page into a buffer and writes it with status 200. Pages
// are never cached since they may carry single-use tokens.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, page Page) error {
	return v.RenderStatus(w, r, http.StatusOK, name, page)
}

func (v *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, page Page) error {
	base, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	t, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone page %s: %w", name, err)
	}
	t.Funcs(template.FuncMap{
		"hiddenFields": func() template.HTML { return v.fields.Fields(r) },
	})

	var buf bytes.Buffer
	if err := t.Execute(&buf, page); err != nil {
		return fmt.Errorf("render page %s: %w", name, err)
	}

	pkghttp.NoStore(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
