// Package flash carries a message across exactly one redirect in a signed,
// short-lived cookie.
package flash

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Message is what a redirecting handler leaves for the next page.
type Message struct {
	Code       string            `json:"code"`
	Args       []string          `json:"args,omitempty"`
	Path       string            `json:"path,omitempty"`
	IncidentID string            `json:"incident_id,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	At         time.Time         `json:"at"`
}

type claims struct {
	Message Message `json:"msg"`
	jwt.RegisteredClaims
}

// Codec signs flash cookies with HS256.
type Codec struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewCodec(secret, cookieName string, ttl time.Duration, secure bool) *Codec {
	return &Codec{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Set replaces any pending flash with msg.
func (c *Codec) Set(w http.ResponseWriter, msg Message) error {
	now := time.Now()
	if msg.At.IsZero() {
		msg.At = now
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Message: msg,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("failed to sign flash: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending flash and clears it. Missing, tampered and expired
// cookies all yield false.
func (c *Codec) Pop(w http.ResponseWriter, r *http.Request) (*Message, bool) {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})

	msg, err := c.decode(cookie.Value)
	if err != nil {
		return nil, false
	}
	return msg, true
}

func (c *Codec) decode(value string) (*Message, error) {
	parsed := &claims{}
	token, err := jwt.ParseWithClaims(value, parsed, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid flash: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid flash")
	}
	return &parsed.Message, nil
}
