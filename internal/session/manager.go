package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/BradenHooton/formgate/internal/metrics"
)

// Policy decides what happens when a user exceeds MaxSessions.
type Policy int

const (
	// EvictOldest expires the user's earliest sessions to make room.
	EvictOldest Policy = iota
	// PreventLogin rejects the new login.
	PreventLogin
)

// ParsePolicy maps configuration values to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "evict-oldest":
		return EvictOldest, nil
	case "prevent-login":
		return PreventLogin, nil
	default:
		return 0, fmt.Errorf("unknown session policy %q", s)
	}
}

// DefaultTTL applies when Options.TTL is not positive.
const DefaultTTL = 30 * time.Minute

type Options struct {
	Cookie      CookieConfig
	TTL         time.Duration // <= 0 means DefaultTTL
	MaxSessions int           // <= 0 means unlimited
	Policy      Policy
}

// Manager binds sessions to requests through a cookie and implements token
// issuing and validation on top of a Store.
type Manager struct {
	store    Store
	generate func() (string, error)
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewManager(store Store, generate func() (string, error), opts Options, logger *slog.Logger, m *metrics.Metrics) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Manager{
		store:    store,
		generate: generate,
		opts:     opts,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

type stateKey struct{}

// state is the request's view of its session. Handlers running later in the
// same request observe sessions created or renamed earlier.
type state struct {
	mu   sync.Mutex
	sess *Session
}

// Load resolves the session cookie once per request and extends the idle
// deadline of a live session.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &state{sess: m.resolve(r, true)}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), stateKey{}, st)))
	})
}

func (m *Manager) resolve(r *http.Request, touch bool) *Session {
	c, err := r.Cookie(m.opts.Cookie.Name)
	if err != nil || c.Value == "" {
		return nil
	}

	sess, err := m.store.Get(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Error("failed to load session", slog.String("error", err.Error()))
		}
		return nil
	}

	if touch {
		now := m.now()
		sess.LastSeenAt = now
		sess.ExpiresAt = now.Add(m.opts.TTL)
		if err := m.store.Touch(r.Context(), sess.ID, sess.LastSeenAt, sess.ExpiresAt); err != nil {
			m.logger.Warn("failed to extend session", slog.String("error", err.Error()))
		}
	}
	return sess
}

func (m *Manager) state(r *http.Request) *state {
	if st, ok := r.Context().Value(stateKey{}).(*state); ok {
		return st
	}
	return &state{sess: m.resolve(r, false)}
}

// ensure must be called with st.mu held.
func (m *Manager) ensure(w http.ResponseWriter, r *http.Request, st *state) (*Session, error) {
	if st.sess != nil {
		return st.sess, nil
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	sess := newSession(id, m.now(), m.opts.TTL)
	if err := m.store.Create(r.Context(), sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	setSessionCookie(w, id, m.opts.Cookie)
	st.sess = sess
	return sess, nil
}

// Issue stores a fresh token under name, creating the session if the request
// has none. Any previous value under name stops being valid.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request, name string) (string, error) {
	st := m.state(r)
	st.mu.Lock()
	defer st.mu.Unlock()

	value, err := m.generate()
	if err != nil {
		return "", err
	}

	for attempt := 0; ; attempt++ {
		sess, err := m.ensure(w, r, st)
		if err != nil {
			return "", err
		}
		err = m.store.SetToken(r.Context(), sess.ID, name, value)
		if errors.Is(err, ErrNotFound) && attempt == 0 {
			// Expired or evicted since the request began.
			st.sess = nil
			continue
		}
		if err != nil {
			return "", fmt.Errorf("store token: %w", err)
		}
		sess.Tokens[name] = value
		return value, nil
	}
}

// Check reports whether submitted equals the live token stored under name.
// A missing session, an empty value or a store failure all read as false.
func (m *Manager) Check(r *http.Request, name, submitted string) bool {
	st := m.state(r)
	st.mu.Lock()
	sess := st.sess
	st.mu.Unlock()

	if sess == nil || submitted == "" {
		return false
	}

	fresh, err := m.store.Get(r.Context(), sess.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Error("failed to read session for token check", slog.String("error", err.Error()))
		}
		return false
	}

	stored := fresh.Tokens[name]
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// CheckAndReissue validates submitted and, on success, atomically replaces it
// with a fresh value. Of two concurrent submissions of the same value at most
// one succeeds.
func (m *Manager) CheckAndReissue(w http.ResponseWriter, r *http.Request, name, submitted string) (string, bool, error) {
	st := m.state(r)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.sess == nil || submitted == "" {
		return "", false, nil
	}

	next, err := m.generate()
	if err != nil {
		return "", false, err
	}
	ok, err := m.store.SwapToken(r.Context(), st.sess.ID, name, submitted, next)
	if err != nil {
		return "", false, fmt.Errorf("swap token: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	st.sess.Tokens[name] = next
	return next, true, nil
}

// Login binds identity to the request's session under a new session ID, so an
// ID fixed before authentication is worthless afterwards. Tokens carry over.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, identity Identity) error {
	st := m.state(r)
	st.mu.Lock()
	defer st.mu.Unlock()

	ctx := r.Context()
	if identity.AuthenticatedAt.IsZero() {
		identity.AuthenticatedAt = m.now()
	}

	if err := m.enforceLimit(ctx, st, identity.UserID); err != nil {
		return err
	}

	newSessionID, err := newID()
	if err != nil {
		return err
	}

	if st.sess != nil {
		err := m.store.Rename(ctx, st.sess.ID, newSessionID)
		switch {
		case err == nil:
			st.sess.ID = newSessionID
		case errors.Is(err, ErrNotFound):
			st.sess = nil
		default:
			return fmt.Errorf("rotate session id: %w", err)
		}
	}
	if st.sess == nil {
		sess := newSession(newSessionID, m.now(), m.opts.TTL)
		if err := m.store.Create(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		st.sess = sess
	}

	if err := m.store.SetIdentity(ctx, st.sess.ID, identity); err != nil {
		return fmt.Errorf("store identity: %w", err)
	}
	st.sess.Identity = &identity
	setSessionCookie(w, st.sess.ID, m.opts.Cookie)
	return nil
}

// enforceLimit must be called with st.mu held.
func (m *Manager) enforceLimit(ctx context.Context, st *state, userID string) error {
	if m.opts.MaxSessions <= 0 {
		return nil
	}

	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	others := sessions[:0]
	for _, s := range sessions {
		if st.sess == nil || s.ID != st.sess.ID {
			others = append(others, s)
		}
	}
	if len(others) < m.opts.MaxSessions {
		return nil
	}

	if m.opts.Policy == PreventLogin {
		return ErrSessionLimit
	}

	sort.Slice(others, func(i, j int) bool {
		return others[i].Identity.AuthenticatedAt.Before(others[j].Identity.AuthenticatedAt)
	})
	for len(others) >= m.opts.MaxSessions {
		if err := m.store.Delete(ctx, others[0].ID); err != nil {
			return fmt.Errorf("evict session: %w", err)
		}
		m.metrics.SessionEvicted()
		m.logger.Info("session expired by newer login", slog.String("user_id", userID))
		others = others[1:]
	}
	return nil
}

// Logout destroys the request's session and its cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	st := m.state(r)
	st.mu.Lock()
	defer st.mu.Unlock()

	clearSessionCookie(w, m.opts.Cookie)
	if st.sess == nil {
		return nil
	}
	id := st.sess.ID
	st.sess = nil
	if err := m.store.Delete(r.Context(), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Identity returns the authenticated identity of the request's session.
func (m *Manager) Identity(r *http.Request) (*Identity, bool) {
	st := m.state(r)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.sess == nil || st.sess.Identity == nil {
		return nil, false
	}
	id := *st.sess.Identity
	return &id, true
}

// Snapshot returns a copy of the request's session.
func (m *Manager) Snapshot(r *http.Request) (*Session, bool) {
	st := m.state(r)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.sess == nil {
		return nil, false
	}
	return st.sess.Clone(), true
}

// RequireIdentity redirects requests without an authenticated session to
// loginPath.
func (m *Manager) RequireIdentity(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := m.Identity(r); !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
