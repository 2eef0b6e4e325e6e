package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/metrics"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/token"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
	"github.com/BradenHooton/formgate/pkg/logger"
)

// OutcomeHandler completes a login attempt. Exactly one method is invoked per
// attempt, and it owns the response.
type OutcomeHandler interface {
	OnSuccess(w http.ResponseWriter, r *http.Request, identity session.Identity) error
	OnFailure(w http.ResponseWriter, r *http.Request, attemptedID string, cause error) error
}

type (
	SuccessFunc func(w http.ResponseWriter, r *http.Request, identity session.Identity) error
	FailureFunc func(w http.ResponseWriter, r *http.Request, attemptedID string, cause error) error
)

// Outcomes adapts a pair of functions to OutcomeHandler.
type Outcomes struct {
	Success SuccessFunc
	Failure FailureFunc
}

func (o Outcomes) OnSuccess(w http.ResponseWriter, r *http.Request, identity session.Identity) error {
	return o.Success(w, r, identity)
}

func (o Outcomes) OnFailure(w http.ResponseWriter, r *http.Request, attemptedID string, cause error) error {
	return o.Failure(w, r, attemptedID, cause)
}

// SessionBinder attaches an identity to the request's session.
type SessionBinder interface {
	Login(w http.ResponseWriter, r *http.Request, identity session.Identity) error
}

// TokenIssuer mints a token into the request's session.
type TokenIssuer interface {
	Issue(w http.ResponseWriter, r *http.Request, name string) (string, error)
}

// FlashWriter leaves a message for the page after the redirect.
type FlashWriter interface {
	Set(w http.ResponseWriter, msg flash.Message) error
}

type OutcomeConfig struct {
	LandingPath string // after success
	FailurePath string // after failure
	IPConfig    *pkghttp.IPConfig
}

// NewSuccessHandler rotates the session ID, stores the identity and sends the
// user to the landing page.
func NewSuccessHandler(sessions SessionBinder, cfg OutcomeConfig, audit *logger.AuditLogger, log *slog.Logger, m *metrics.Metrics) SuccessFunc {
	return func(w http.ResponseWriter, r *http.Request, identity session.Identity) error {
		if err := sessions.Login(w, r, identity); err != nil {
			return fmt.Errorf("bind session: %w", err)
		}

		ip := pkghttp.ExtractClientIP(r, cfg.IPConfig)
		audit.LogAuthAttempt(r.Context(), logger.AuditEvent{
			EventType: logger.EventLogin,
			UserID:    identity.UserID,
			IPAddress: ip,
			UserAgent: r.UserAgent(),
			Success:   true,
		})
		m.LoginAttempt("success")
		log.Info("login succeeded", slog.String("user_id", identity.UserID), slog.String("remote_addr", ip))

		pkghttp.SeeOther(w, r, cfg.LandingPath)
		return nil
	}
}

// NewFailureHandler records the attempt, issues a fresh token for the retry
// form and sends the user back with a message that does not say which check
// failed.
func NewFailureHandler(tokens TokenIssuer, flashes FlashWriter, cfg OutcomeConfig, audit *logger.AuditLogger, log *slog.Logger, m *metrics.Metrics) FailureFunc {
	return func(w http.ResponseWriter, r *http.Request, attemptedID string, cause error) error {
		ip := pkghttp.ExtractClientIP(r, cfg.IPConfig)
		reason := ReasonClass(cause)

		log.Warn("authentication failed",
			slog.String("remote_addr", ip),
			slog.String("user_id", attemptedID),
			slog.String("reason", reason))
		audit.LogAuthAttempt(r.Context(), logger.AuditEvent{
			EventType:     logger.EventLogin,
			UserID:        attemptedID,
			IPAddress:     ip,
			UserAgent:     r.UserAgent(),
			FailureReason: reason,
		})
		m.LoginAttempt("failure")

		if _, err := tokens.Issue(w, r, token.FieldName); err != nil {
			return fmt.Errorf("issue retry token: %w", err)
		}
		m.TokenIssued("login_failure")

		if err := flashes.Set(w, flash.Message{Code: messages.CodeLoginFailed}); err != nil {
			return err
		}

		pkghttp.SeeOther(w, r, cfg.FailurePath)
		return nil
	}
}

// NewOutcomes wires the default success and failure handlers.
func NewOutcomes(sessions *session.Manager, flashes FlashWriter, cfg OutcomeConfig, audit *logger.AuditLogger, log *slog.Logger, m *metrics.Metrics) Outcomes {
	return Outcomes{
		Success: NewSuccessHandler(sessions, cfg, audit, log, m),
		Failure: NewFailureHandler(sessions, flashes, cfg, audit, log, m),
	}
}
