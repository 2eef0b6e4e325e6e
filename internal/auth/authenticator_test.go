package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/session"
	pkgauth "github.com/BradenHooton/formgate/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAccountFinder is a test double for AccountFinder
type MockAccountFinder struct {
	FindByUserIDFunc func(ctx context.Context, userID string) (*models.Account, error)
}

func (m *MockAccountFinder) FindByUserID(ctx context.Context, userID string) (*models.Account, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func accountsWith(t *testing.T, accounts ...models.Account) *MockAccountFinder {
	t.Helper()
	byID := map[string]models.Account{}
	for _, a := range accounts {
		byID[a.UserID] = a
	}
	return &MockAccountFinder{
		FindByUserIDFunc: func(ctx context.Context, userID string) (*models.Account, error) {
			a, ok := byID[userID]
			if !ok {
				return nil, models.ErrNotFound
			}
			return &a, nil
		},
	}
}

func TestAuthenticator_Authenticate(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecureP@ss123")
	require.NoError(t, err)

	finder := accountsWith(t,
		models.Account{UserID: "alice", Password: hash, UserName: "Alice Liddell", Role: models.RoleUser},
		models.Account{UserID: "bob", Password: hash, Role: models.RoleAdmin},
		models.Account{UserID: "locked", Password: hash, Locked: true},
		models.Account{UserID: "deleted", Password: hash, Deleted: true},
	)
	a := NewAuthenticator(finder, nil, discardLogger())

	tests := []struct {
		name     string
		userID   string
		password string
		wantErr  error
		reason   string
	}{
		{name: "unknown user", userID: "nobody", password: "SecureP@ss123", wantErr: models.ErrUnauthorized, reason: "BadCredentials"},
		{name: "wrong password", userID: "alice", password: "wrong", wantErr: models.ErrUnauthorized, reason: "BadCredentials"},
		{name: "empty user", userID: "", password: "SecureP@ss123", wantErr: models.ErrUnauthorized, reason: "BadCredentials"},
		{name: "locked account", userID: "locked", password: "SecureP@ss123", wantErr: models.ErrAccountLocked, reason: "AccountLocked"},
		{name: "deleted account", userID: "deleted", password: "SecureP@ss123", wantErr: models.ErrAccountDeleted, reason: "AccountDeleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := a.Authenticate(context.Background(), tt.userID, tt.password)
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsRejection(err))
			assert.Equal(t, tt.reason, ReasonClass(err))
		})
	}

	t.Run("valid credentials", func(t *testing.T) {
		identity, err := a.Authenticate(context.Background(), "alice", "SecureP@ss123")
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.UserID)
		assert.Equal(t, "Alice Liddell", identity.DisplayName)
		assert.Equal(t, models.RoleUser, identity.Role)
	})

	t.Run("display name falls back to user id", func(t *testing.T) {
		identity, err := a.Authenticate(context.Background(), "bob", "SecureP@ss123")
		require.NoError(t, err)
		assert.Equal(t, "bob", identity.DisplayName)
	})
}

func TestAuthenticator_RepositoryFailureIsNotARejection(t *testing.T) {
	dbErr := fmt.Errorf("find account: %w", models.ErrDataAccess)
	a := NewAuthenticator(&MockAccountFinder{
		FindByUserIDFunc: func(ctx context.Context, userID string) (*models.Account, error) {
			return nil, dbErr
		},
	}, nil, discardLogger())

	_, err := a.Authenticate(context.Background(), "alice", "x")
	assert.ErrorIs(t, err, models.ErrDataAccess)
	assert.False(t, IsRejection(err))
	assert.Equal(t, "InternalError", ReasonClass(err))
}

func TestAuthenticator_PadsRejections(t *testing.T) {
	td, slept := recordingDelay(TimingConfig{BaseDelayMs: 5000})
	a := NewAuthenticator(accountsWith(t), td, discardLogger())

	_, err := a.Authenticate(context.Background(), "nobody", "x")
	require.Error(t, err)
	assert.Len(t, *slept, 1)
}

func TestReasonClass_SessionLimit(t *testing.T) {
	err := fmt.Errorf("bind session: %w", session.ErrSessionLimit)
	assert.Equal(t, "SessionLimitExceeded", ReasonClass(err))
	assert.True(t, IsRejection(err))
	assert.False(t, IsRejection(errors.New("boom")))
}
