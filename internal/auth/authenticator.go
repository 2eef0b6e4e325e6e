package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/session"
	pkgauth "github.com/BradenHooton/formgate/pkg/auth"
)

// AccountFinder loads accounts by login ID.
type AccountFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.Account, error)
}

// Authenticator verifies credentials against the users table.
type Authenticator struct {
	accounts AccountFinder
	timing   *TimingDelay
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthenticator(accounts AccountFinder, timing *TimingDelay, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		accounts: accounts,
		timing:   timing,
		logger:   logger,
	}
}

// Authenticate returns the identity for valid credentials. Rejections wrap
// models.ErrUnauthorized, models.ErrAccountLocked or models.ErrAccountDeleted;
// any other error is an infrastructure failure.
func (a *Authenticator) Authenticate(ctx context.Context, userID, password string) (*session.Identity, error) {
	start := time.Now()
	identity, err := a.authenticate(ctx, userID, password)
	if a.timing != nil && (err == nil || IsRejection(err)) {
		a.timing.WaitFrom(start, err == nil)
	}
	return identity, err
}

func (a *Authenticator) authenticate(ctx context.Context, userID, password string) (*session.Identity, error) {
	if userID == "" || password == "" {
		return nil, fmt.Errorf("empty credentials: %w", models.ErrUnauthorized)
	}

	account, err := a.accounts.FindByUserID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		// Spend the same bcrypt work as a real comparison.
		_ = pkgauth.ComparePassword(a.dummy(), password)
		return nil, fmt.Errorf("unknown user: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := pkgauth.ComparePassword(account.Password, password); err != nil {
		if !errors.Is(err, pkgauth.ErrMismatch) {
			a.logger.Error("stored password hash is unusable",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("password mismatch: %w", models.ErrUnauthorized)
	}

	if account.Deleted {
		return nil, models.ErrAccountDeleted
	}
	if account.Locked {
		return nil, models.ErrAccountLocked
	}

	return &session.Identity{
		UserID:      account.UserID,
		DisplayName: account.DisplayName(),
		Role:        account.Role,
	}, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		hash, err := pkgauth.HashPassword("formgate-timing-equalizer")
		if err == nil {
			a.dummyHash = hash
		}
	})
	return a.dummyHash
}

// IsRejection reports whether err is a credential or account-state rejection
// rather than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, models.ErrUnauthorized) ||
		errors.Is(err, models.ErrAccountLocked) ||
		errors.Is(err, models.ErrAccountDeleted) ||
		errors.Is(err, models.ErrBadRequest) ||
		errors.Is(err, session.ErrSessionLimit)
}

// ReasonClass names the kind of rejection for logs. It never includes the
// submitted secret.
func ReasonClass(err error) string {
	switch {
	case errors.Is(err, models.ErrAccountLocked):
		return "AccountLocked"
	case errors.Is(err, models.ErrAccountDeleted):
		return "AccountDeleted"
	case errors.Is(err, session.ErrSessionLimit):
		return "SessionLimitExceeded"
	case errors.Is(err, models.ErrBadRequest):
		return "InvalidInput"
	case errors.Is(err, models.ErrUnauthorized):
		return "BadCredentials"
	default:
		return "InternalError"
	}
}
