package session

import (
	"context"
	"time"
)

// Store persists sessions by ID. Implementations must be safe for concurrent
// use and SwapToken must be atomic.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, lastSeen, expiresAt time.Time) error
	SetToken(ctx context.Context, id, name, value string) error
	// SwapToken replaces the token under name with next only if it currently
	// equals expected. A missing session or token reports false.
	SwapToken(ctx context.Context, id, name, expected, next string) (bool, error)
	SetIdentity(ctx context.Context, id string, identity Identity) error
	// Rename moves a session to a new ID, keeping its contents.
	Rename(ctx context.Context, oldID, newID string) error
	// ListByUser returns the live sessions authenticated as userID.
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper is implemented by stores that need expired entries removed
// periodically.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
