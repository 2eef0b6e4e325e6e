package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/token"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
	"github.com/BradenHooton/formgate/pkg/logger"
	"github.com/google/uuid"
)

// AppHandler is a screen handler. A returned error is turned into a response
// by the ErrorTranslator; the handler itself never writes error pages.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// FlashSetter leaves a message for the page after a redirect.
type FlashSetter interface {
	Set(w http.ResponseWriter, msg flash.Message) error
}

// ErrorTranslator is the single place where errors become responses. Every
// translated error is logged, stored as a flash with an incident ID and
// answered with a redirect to the shared error page.
type ErrorTranslator struct {
	flashes   FlashSetter
	audit     *logger.AuditLogger
	logger    *slog.Logger
	ipConfig  *pkghttp.IPConfig
	errorPath string
}

func NewErrorTranslator(flashes FlashSetter, audit *logger.AuditLogger, log *slog.Logger, ipConfig *pkghttp.IPConfig, errorPath string) *ErrorTranslator {
	return &ErrorTranslator{
		flashes:   flashes,
		audit:     audit,
		logger:    log,
		ipConfig:  ipConfig,
		errorPath: errorPath,
	}
}

// Wrap adapts an AppHandler to http.HandlerFunc.
func (t *ErrorTranslator) Wrap(h AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			t.Handle(w, r, err)
		}
	}
}

// Handle classifies err and redirects to the error page.
func (t *ErrorTranslator) Handle(w http.ResponseWriter, r *http.Request, err error) {
	t.handle(w, r, err, nil)
}

func (t *ErrorTranslator) handle(w http.ResponseWriter, r *http.Request, err error, stack []byte) {
	incidentID := uuid.NewString()
	attrs := []any{
		slog.String("incident_id", incidentID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	}

	var code string
	switch {
	case errors.Is(err, token.ErrInvalidToken):
		code = messages.CodeInvalidToken
		t.logger.WarnContext(r.Context(), "invalid form token", attrs...)
		t.audit.LogSessionEvent(r.Context(), logger.AuditEvent{
			EventType:     logger.EventTokenRejected,
			IPAddress:     pkghttp.ExtractClientIP(r, t.ipConfig),
			UserAgent:     r.UserAgent(),
			FailureReason: err.Error(),
			Metadata:      map[string]string{"path": r.URL.Path},
		})
	case errors.Is(err, models.ErrDataAccess):
		code = messages.CodeDataAccess
		t.logger.ErrorContext(r.Context(), "data access failure", attrs...)
	case errors.Is(err, models.ErrRateLimited):
		code = messages.CodeRateLimited
		t.logger.WarnContext(r.Context(), "rate limited", attrs...)
	default:
		code = messages.CodeSystemError
		if stack != nil {
			attrs = append(attrs, slog.String("stack", string(stack)))
		}
		t.logger.ErrorContext(r.Context(), "unhandled error", attrs...)
	}

	// The error page itself failed; a redirect would loop.
	if r.URL.Path == t.errorPath {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if ferr := t.flashes.Set(w, flash.Message{
		Code:       code,
		Path:       r.URL.Path,
		IncidentID: incidentID,
		At:         time.Now(),
	}); ferr != nil {
		t.logger.ErrorContext(r.Context(), "failed to set error flash",
			slog.String("incident_id", incidentID), slog.Any("error", ferr))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pkghttp.NoStore(w)
	pkghttp.SeeOther(w, r, t.errorPath)
}

// Recover turns panics in later handlers into an E0001 redirect.
func (t *ErrorTranslator) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			t.handle(w, r, fmt.Errorf("panic: %v", rec), debug.Stack())
		}()
		next.ServeHTTP(w, r)
	})
}
