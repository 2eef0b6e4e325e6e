package handlers

import (
	"net/http"
	"strings"

	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/views"
	"golang.org/x/text/language"
)

// Renderer writes a named page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, page views.Page) error
}

// Resolver looks up localized message text by code.
type Resolver interface {
	Resolve(code string, args []string, tag language.Tag) string
	Locale(r *http.Request) language.Tag
}

// IdentityReader reports who is logged in on the request's session.
type IdentityReader interface {
	Identity(r *http.Request) (*session.Identity, bool)
}

// FlashStore writes and consumes one-redirect messages.
type FlashStore interface {
	FlashSetter
	Pop(w http.ResponseWriter, r *http.Request) (*flash.Message, bool)
}

// Pages holds what every screen handler needs to build a page.
type Pages struct {
	views    Renderer
	messages Resolver
	sessions IdentityReader
	flashes  FlashStore
}

func NewPages(views Renderer, messages Resolver, sessions IdentityReader, flashes FlashStore) *Pages {
	return &Pages{
		views:    views,
		messages: messages,
		sessions: sessions,
		flashes:  flashes,
	}
}

// Render fills the per-request parts of page and writes it.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name string, page views.Page) error {
	if identity, ok := p.sessions.Identity(r); ok {
		page.Identity = identity
	}
	page.Lang = p.messages.Locale(r).String()
	return p.views.Render(w, r, name, page)
}

// Text resolves a message code in the request's language.
func (p *Pages) Text(r *http.Request, code string, args ...string) string {
	return p.messages.Resolve(code, args, p.messages.Locale(r))
}

// Flash consumes the pending flash, if any, and places its text on page as a
// message or an error depending on the code's severity.
func (p *Pages) Flash(w http.ResponseWriter, r *http.Request, page *views.Page) (*flash.Message, bool) {
	msg, ok := p.flashes.Pop(w, r)
	if !ok {
		return nil, false
	}
	p.place(r, page, msg.Code, msg.Args...)
	return msg, true
}

func (p *Pages) place(r *http.Request, page *views.Page, code string, args ...string) {
	text := p.Text(r, code, args...)
	if isErrorCode(code) {
		page.Error = text
		return
	}
	page.Message = text
}

// isErrorCode reports whether code is an error or warning rather than an
// informational message.
func isErrorCode(code string) bool {
	return !strings.HasPrefix(code, "I")
}
