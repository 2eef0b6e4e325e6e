package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/formgate/internal/auth"
	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/views"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
	"github.com/BradenHooton/formgate/pkg/logger"
)

// Authenticator verifies submitted credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, userID, password string) (*session.Identity, error)
}

// SessionEnder invalidates the request's session.
type SessionEnder interface {
	Logout(w http.ResponseWriter, r *http.Request) error
}

// LoginForm is the posted login form. Field names match the inputs on the
// login page.
type LoginForm struct {
	UserID   string `validate:"required,max=64"`
	Password string `validate:"required,max=72"`
}

// LoginHandler serves the login and logout flow
type LoginHandler struct {
	pages         *Pages
	authenticator Authenticator
	outcomes      auth.OutcomeHandler
	sessions      SessionEnder
	audit         *logger.AuditLogger
	ipConfig      *pkghttp.IPConfig
	logger        *slog.Logger
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(pages *Pages, authenticator Authenticator, outcomes auth.OutcomeHandler, sessions SessionEnder, audit *logger.AuditLogger, ipConfig *pkghttp.IPConfig, log *slog.Logger) *LoginHandler {
	return &LoginHandler{
		pages:         pages,
		authenticator: authenticator,
		outcomes:      outcomes,
		sessions:      sessions,
		audit:         audit,
		ipConfig:      ipConfig,
		logger:        log,
	}
}

// Show renders the login form. A pending flash wins over the query markers
// left by the failure and logout redirects.
func (h *LoginHandler) Show(w http.ResponseWriter, r *http.Request) error {
	page := views.Page{Title: "Login", Data: views.LoginData{}}

	if _, ok := h.pages.Flash(w, r, &page); !ok {
		q := r.URL.Query()
		switch {
		case q.Has("error"):
			page.Error = h.pages.Text(r, messages.CodeLoginFailed)
		case q.Has("logout"):
			page.Message = h.pages.Text(r, messages.CodeLoggedOut)
		}
	}

	return h.pages.Render(w, r, views.PageLogin, page)
}

// Submit authenticates the posted credentials and hands the result to the
// outcome handlers, which own the response.
func (h *LoginHandler) Submit(w http.ResponseWriter, r *http.Request) error {
	form := LoginForm{
		UserID:   strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}

	if err := ValidateRequest(form); err != nil {
		return h.outcomes.OnFailure(w, r, form.UserID, fmt.Errorf("%w: %v", models.ErrBadRequest, err))
	}

	identity, err := h.authenticator.Authenticate(r.Context(), form.UserID, form.Password)
	if err != nil {
		if auth.IsRejection(err) {
			return h.outcomes.OnFailure(w, r, form.UserID, err)
		}
		return err
	}

	if err := h.outcomes.OnSuccess(w, r, *identity); err != nil {
		if errors.Is(err, session.ErrSessionLimit) {
			return h.outcomes.OnFailure(w, r, form.UserID, err)
		}
		return err
	}
	return nil
}

// Logout ends the session and returns to the login page.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	var userID string
	if sess, ok := h.pages.sessions.Identity(r); ok {
		userID = sess.UserID
	}

	if err := h.sessions.Logout(w, r); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if userID != "" {
		h.audit.LogSessionEvent(r.Context(), logger.AuditEvent{
			EventType: logger.EventLogout,
			UserID:    userID,
			IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
			UserAgent: r.UserAgent(),
			Success:   true,
		})
		h.logger.Info("logged out", slog.String("user_id", userID))
	}

	pkghttp.SeeOther(w, r, "/login?logout")
	return nil
}

// Root sends the user to the menu or the login page.
func Root(sessions IdentityReader) AppHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		if _, ok := sessions.Identity(r); ok {
			pkghttp.SeeOther(w, r, "/menu")
			return nil
		}
		pkghttp.SeeOther(w, r, "/login")
		return nil
	}
}
