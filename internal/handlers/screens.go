package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/services"
	"github.com/BradenHooton/formgate/internal/views"
)

// MenuLister lists the screens reachable from the menu.
type MenuLister interface {
	List(ctx context.Context) ([]models.Menu, error)
}

// MenuHandler serves the post-login menu
type MenuHandler struct {
	pages *Pages
	menus MenuLister
}

func NewMenuHandler(pages *Pages, menus MenuLister) *MenuHandler {
	return &MenuHandler{pages: pages, menus: menus}
}

func (h *MenuHandler) Show(w http.ResponseWriter, r *http.Request) error {
	menus, err := h.menus.List(r.Context())
	if err != nil {
		return err
	}

	page := views.Page{Title: "Menu", Data: views.MenuData{Menus: menus}}
	h.pages.Flash(w, r, &page)
	return h.pages.Render(w, r, views.PageMenu, page)
}

// Executor runs a screen's business action.
type Executor interface {
	ScreenID() string
	Execute(ctx context.Context, parameter string) error
}

// ScreenHandler serves a single-parameter business screen: a form page and
// an execute action that re-renders the same page with the outcome.
type ScreenHandler struct {
	pages  *Pages
	svc    Executor
	title  string
	action string
}

func NewScreenHandler(pages *Pages, svc Executor, title, action string) *ScreenHandler {
	return &ScreenHandler{pages: pages, svc: svc, title: title, action: action}
}

func (h *ScreenHandler) Show(w http.ResponseWriter, r *http.Request) error {
	page := h.page("")
	h.pages.Flash(w, r, &page)
	return h.pages.Render(w, r, views.PageScreen, page)
}

// Execute runs the action. Business-rule failures are shown on the screen;
// anything else goes to the error boundary.
func (h *ScreenHandler) Execute(w http.ResponseWriter, r *http.Request) error {
	parameter := r.PostFormValue("parameter")

	err := h.svc.Execute(r.Context(), parameter)
	if se, ok := services.AsServiceError(err); ok {
		page := h.page(parameter)
		page.Error = h.pages.Text(r, se.Code)
		return h.pages.Render(w, r, views.PageScreen, page)
	}
	if err != nil {
		return err
	}

	page := h.page("")
	page.Message = h.pages.Text(r, messages.CodeCompleted, h.svc.ScreenID())
	return h.pages.Render(w, r, views.PageScreen, page)
}

func (h *ScreenHandler) page(parameter string) views.Page {
	return views.Page{
		Title: h.title,
		Data:  views.ScreenData{Action: h.action, Parameter: parameter},
	}
}

// ErrorPageHandler shows the message left by the error boundary.
type ErrorPageHandler struct {
	pages *Pages
}

func NewErrorPageHandler(pages *Pages) *ErrorPageHandler {
	return &ErrorPageHandler{pages: pages}
}

func (h *ErrorPageHandler) Show(w http.ResponseWriter, r *http.Request) error {
	page := views.Page{Title: "Error", Data: views.ErrorData{}}

	msg, ok := h.pages.Flash(w, r, &page)
	if !ok {
		page.Error = h.pages.Text(r, messages.CodeSystemError)
		return h.pages.Render(w, r, views.PageError, page)
	}

	page.Data = views.ErrorData{
		Code:       msg.Code,
		IncidentID: msg.IncidentID,
		Path:       msg.Path,
		At:         msg.At,
	}
	return h.pages.Render(w, r, views.PageError, page)
}
