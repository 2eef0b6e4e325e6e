package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/views"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
	"github.com/BradenHooton/formgate/pkg/logger"
)

const redacted = "[REDACTED]"

// SessionSnapshotter returns a copy of the request's session.
type SessionSnapshotter interface {
	Snapshot(r *http.Request) (*session.Session, bool)
}

// DebugHandler dumps request and session state for developers. It must not
// be mounted in production.
type DebugHandler struct {
	pages    *Pages
	sessions SessionSnapshotter
	env      string
}

func NewDebugHandler(pages *Pages, sessions SessionSnapshotter, env string) *DebugHandler {
	return &DebugHandler{pages: pages, sessions: sessions, env: env}
}

func (h *DebugHandler) Show(w http.ResponseWriter, r *http.Request) error {
	page := views.Page{Title: "Debug"}
	msg, _ := h.pages.Flash(w, r, &page)

	if err := r.ParseForm(); err != nil {
		return err
	}

	data := views.DebugData{
		Method:  r.Method,
		URI:     r.RequestURI,
		Query:   r.URL.RawQuery,
		Params:  views.Section{Title: "Parameters", Entries: h.valuesEntries(r.Form)},
		Headers: views.Section{Title: "Headers", Entries: h.valuesEntries(r.Header)},
	}
	if logger.SanitizeQueryString(data.Query) {
		data.Query = h.redact(data.Query)
		data.URI = r.URL.Path
	}

	if sess, ok := h.sessions.Snapshot(r); ok {
		data.SessionID = h.redact(sess.ID)
		data.SessionAttributes = views.Section{Title: "Session", Entries: h.sessionEntries(sess)}
	}

	if msg != nil && len(msg.Params) > 0 {
		entries := make([]views.Entry, 0, len(msg.Params))
		for k, v := range msg.Params {
			entries = append(entries, views.Entry{Key: k, Value: v})
		}
		sortEntries(entries)
		data.Flash = views.Section{Title: "Flash", Entries: entries}
	}

	page.Data = data
	return h.pages.Render(w, r, views.PageDebug, page)
}

// Submit stores the posted parameters in a flash and redirects back.
func (h *DebugHandler) Submit(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	params := make(map[string]string)
	for key, vals := range r.PostForm {
		if logger.IsSensitiveKey(key) || key == "_token" {
			continue
		}
		params[key] = strings.Join(vals, ",")
	}

	if err := h.pages.flashes.Set(w, flash.Message{Code: messages.CodeReceived, Params: params}); err != nil {
		return err
	}

	pkghttp.SeeOther(w, r, "/debug")
	return nil
}

func (h *DebugHandler) sessionEntries(sess *session.Session) []views.Entry {
	entries := []views.Entry{
		{Key: "created_at", Value: sess.CreatedAt.Format("2006-01-02 15:04:05")},
		{Key: "expires_at", Value: sess.ExpiresAt.Format("2006-01-02 15:04:05")},
	}
	if sess.Identity != nil {
		entries = append(entries,
			views.Entry{Key: "user_id", Value: sess.Identity.UserID},
			views.Entry{Key: "user_name", Value: sess.Identity.DisplayName},
			views.Entry{Key: "role", Value: sess.Identity.Role},
		)
	}
	for name, value := range sess.Tokens {
		entries = append(entries, views.Entry{Key: "token:" + name, Value: h.redact(value)})
	}
	sortEntries(entries)
	return entries
}

func (h *DebugHandler) valuesEntries(values map[string][]string) []views.Entry {
	entries := make([]views.Entry, 0, len(values))
	for key, vals := range values {
		value := strings.Join(vals, ", ")
		if logger.IsSensitiveKey(key) || key == "_token" {
			value = h.redact(value)
		}
		entries = append(entries, views.Entry{Key: key, Value: value})
	}
	sortEntries(entries)
	return entries
}

// redact hides value everywhere except in development.
func (h *DebugHandler) redact(value string) string {
	if h.env == "development" {
		return value
	}
	return redacted
}

func sortEntries(entries []views.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
