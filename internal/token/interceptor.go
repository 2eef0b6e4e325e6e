package token

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/formgate/internal/metrics"
)

// ErrInvalidToken is raised when a protected submission carries a missing,
// stale or foreign token, or arrives without a session.
var ErrInvalidToken = errors.New("invalid token")

// Store issues and validates tokens held in the caller's session.
type Store interface {
	// Issue creates the session if needed and stores a fresh value under name.
	Issue(w http.ResponseWriter, r *http.Request, name string) (string, error)
	// CheckAndReissue atomically compares submitted with the stored value and
	// replaces it on match. ok is false when no session exists or the values
	// differ; err reports store failures only.
	CheckAndReissue(w http.ResponseWriter, r *http.Request, name, submitted string) (value string, ok bool, err error)
}

// ErrorHandler receives failures raised before the handler runs.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Interceptor applies the directive table to every request.
type Interceptor struct {
	directives Directives
	store      Store
	onError    ErrorHandler
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewInterceptor(directives Directives, store Store, onError ErrorHandler, logger *slog.Logger, m *metrics.Metrics) *Interceptor {
	return &Interceptor{
		directives: directives,
		store:      store,
		onError:    onError,
		logger:     logger,
		metrics:    m,
	}
}

// Middleware runs the directive for the matched route before next.
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch i.directives.Lookup(r.Method, r.URL.Path) {
		case Create:
			value, err := i.store.Issue(w, r, FieldName)
			if err != nil {
				i.onError(w, r, fmt.Errorf("issue token: %w", err))
				return
			}
			i.metrics.TokenIssued("create")
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), value)))

		case Validate:
			submitted := r.PostFormValue(FieldName)
			if submitted == "" {
				i.reject(w, r, "missing")
				return
			}

			value, ok, err := i.store.CheckAndReissue(w, r, FieldName, submitted)
			if err != nil {
				i.onError(w, r, fmt.Errorf("validate token: %w", err))
				return
			}
			if !ok {
				i.reject(w, r, "mismatch")
				return
			}
			i.metrics.TokenIssued("reissue")
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), value)))

		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (i *Interceptor) reject(w http.ResponseWriter, r *http.Request, reason string) {
	i.logger.Warn("token validation failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("reason", reason))
	i.metrics.TokenRejected(reason)
	i.onError(w, r, fmt.Errorf("%w: %s", ErrInvalidToken, reason))
}
