package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/formgate/internal/models"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	// OnLimit receives models.ErrRateLimited for rejected requests.
	OnLimit func(w http.ResponseWriter, r *http.Request, err error)
}

// DefaultLoginRateLimit returns the login rate limit (10 requests per minute)
func DefaultLoginRateLimit(onLimit func(w http.ResponseWriter, r *http.Request, err error)) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		OnLimit:           onLimit,
	}
}

// LoginRateLimit returns the login rate limit for a configured budget. A
// budget <= 0 falls back to DefaultLoginRateLimit.
func LoginRateLimit(requestsPerMinute int, onLimit func(w http.ResponseWriter, r *http.Request, err error)) RateLimitConfig {
	config := DefaultLoginRateLimit(onLimit)
	if requestsPerMinute > 0 {
		config.RequestsPerMinute = requestsPerMinute
	}
	return config
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			config.OnLimit(w, r, models.ErrRateLimited)
		}),
	)
}
