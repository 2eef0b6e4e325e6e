package handlers

import (
	"net/http"

	"github.com/BradenHooton/formgate/internal/views"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
)

// DriverTarget is a screen reachable from the driver page.
type DriverTarget struct {
	ID   string
	Name string
	Path string
}

// DriverHandler serves the developer navigation page. Each target gets its
// own POST action so every hop goes through token validation.
type DriverHandler struct {
	pages   *Pages
	targets []DriverTarget
}

func NewDriverHandler(pages *Pages, targets []DriverTarget) *DriverHandler {
	return &DriverHandler{pages: pages, targets: targets}
}

func (h *DriverHandler) Targets() []DriverTarget {
	return h.targets
}

// SelectPath is the POST action for a target.
func SelectPath(target DriverTarget) string {
	return "/driver/select/" + target.ID
}

func (h *DriverHandler) Show(w http.ResponseWriter, r *http.Request) error {
	screens := make([]views.DriverScreen, 0, len(h.targets))
	for _, t := range h.targets {
		screens = append(screens, views.DriverScreen{ID: t.ID, Name: t.Name})
	}

	page := views.Page{Title: "Driver", Data: views.DriverData{Screens: screens}}
	h.pages.Flash(w, r, &page)
	return h.pages.Render(w, r, views.PageDriver, page)
}

// Select redirects to the target's screen.
func (h *DriverHandler) Select(target DriverTarget) AppHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		pkghttp.SeeOther(w, r, target.Path)
		return nil
	}
}
