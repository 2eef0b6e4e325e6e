// Package session holds server-side session state: the per-form double-submit
// tokens and the authenticated identity. The browser only carries an opaque
// session ID cookie.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"time"
)

var (
	// ErrNotFound is returned by stores for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrSessionLimit is returned by Login when the user already holds the
	// maximum number of sessions and the policy forbids eviction.
	ErrSessionLimit = errors.New("concurrent session limit reached")
)

// Identity is stored in the session after a successful login.
type Identity struct {
	UserID          string
	DisplayName     string
	Role            string
	AuthenticatedAt time.Time
}

type Session struct {
	ID         string
	Tokens     map[string]string
	Identity   *Identity
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its idle deadline at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Session) Clone() *Session {
	c := *s
	c.Tokens = maps.Clone(s.Tokens)
	if c.Tokens == nil {
		c.Tokens = map[string]string{}
	}
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	return &c
}

func newSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:         id,
		Tokens:     map[string]string{},
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

// newID returns 256 random bits, URL-safe encoded.
func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
