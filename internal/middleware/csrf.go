package middleware

import (
	"fmt"
	"net/http"

	"github.com/BradenHooton/formgate/internal/token"
	"github.com/justinas/nosurf"
)

// CSRFConfig configures the nosurf cookie and failure path.
type CSRFConfig struct {
	Secure   bool
	SameSite http.SameSite
	// OnFailure receives an error wrapping token.ErrInvalidToken.
	OnFailure func(w http.ResponseWriter, r *http.Request, err error)
}

// CSRF protects every unsafe method with nosurf's double-submit cookie.
func CSRF(config CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := nosurf.New(next)
		h.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   config.Secure,
			SameSite: config.SameSite,
		})
		h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			config.OnFailure(w, r, fmt.Errorf("%w: csrf: %v", token.ErrInvalidToken, nosurf.Reason(r)))
		}))
		return h
	}
}

// NosurfCSRF exposes nosurf's per-request token to the form field injector.
type NosurfCSRF struct{}

func (NosurfCSRF) FieldName() string {
	return nosurf.FormFieldName
}

func (NosurfCSRF) Token(r *http.Request) string {
	return nosurf.Token(r)
}
