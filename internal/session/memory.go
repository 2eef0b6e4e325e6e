package session

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Expired entries are hidden
// from reads and removed by DeleteExpired.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string, lastSeen, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	sess.LastSeenAt = lastSeen
	sess.ExpiresAt = expiresAt
	return nil
}

func (s *MemoryStore) SetToken(ctx context.Context, id, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	sess.Tokens[name] = value
	return nil
}

func (s *MemoryStore) SwapToken(ctx context.Context, id, name, expected, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return false, nil
	}
	current := sess.Tokens[name]
	if current == "" || subtle.ConstantTimeCompare([]byte(current), []byte(expected)) != 1 {
		return false, nil
	}
	sess.Tokens[name] = next
	return true, nil
}

func (s *MemoryStore) SetIdentity(ctx context.Context, id string, identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	sess.Identity = &identity
	return nil
}

func (s *MemoryStore) Rename(ctx context.Context, oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(oldID)
	if !ok {
		return ErrNotFound
	}
	delete(s.sessions, oldID)
	sess.ID = newID
	s.sessions[newID] = sess
	return nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var out []*Session
	for _, sess := range s.sessions {
		if sess.Expired(now) || sess.Identity == nil || sess.Identity.UserID != userID {
			continue
		}
		out = append(out, sess.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes every session past its deadline and reports how many
// were removed.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// live must be called with mu held.
func (s *MemoryStore) live(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now()) {
		return nil, false
	}
	return sess, true
}
