package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/views"
	"golang.org/x/text/language"
)

// MockRenderer records the last rendered page
type MockRenderer struct {
	RenderFunc func(w http.ResponseWriter, r *http.Request, name string, page views.Page) error
	Name       string
	Page       views.Page
}

func (m *MockRenderer) Render(w http.ResponseWriter, r *http.Request, name string, page views.Page) error {
	m.Name = name
	m.Page = page
	if m.RenderFunc != nil {
		return m.RenderFunc(w, r, name, page)
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

// MockResolver renders codes as "code|arg|arg"
type MockResolver struct{}

func (MockResolver) Resolve(code string, args []string, tag language.Tag) string {
	out := code
	for _, a := range args {
		out += "|" + a
	}
	return out
}

func (MockResolver) Locale(r *http.Request) language.Tag {
	return language.Japanese
}

// MockIdentityReader implements IdentityReader and SessionSnapshotter for testing
type MockIdentityReader struct {
	Current *session.Identity
	Session *session.Session
}

func (m *MockIdentityReader) Identity(r *http.Request) (*session.Identity, bool) {
	return m.Current, m.Current != nil
}

func (m *MockIdentityReader) Snapshot(r *http.Request) (*session.Session, bool) {
	return m.Session, m.Session != nil
}

// MockFlashStore keeps flashes in memory
type MockFlashStore struct {
	SetFunc func(w http.ResponseWriter, msg flash.Message) error
	Pending *flash.Message
	Sent    []flash.Message
}

func (m *MockFlashStore) Set(w http.ResponseWriter, msg flash.Message) error {
	if m.SetFunc != nil {
		if err := m.SetFunc(w, msg); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockFlashStore) Pop(w http.ResponseWriter, r *http.Request) (*flash.Message, bool) {
	msg := m.Pending
	m.Pending = nil
	return msg, msg != nil
}

// MockAuthenticator implements Authenticator for testing
type MockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, userID, password string) (*session.Identity, error)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, userID, password string) (*session.Identity, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, userID, password)
	}
	return nil, models.ErrUnauthorized
}

// MockOutcomeHandler implements auth.OutcomeHandler for testing
type MockOutcomeHandler struct {
	OnSuccessFunc func(w http.ResponseWriter, r *http.Request, identity session.Identity) error
	OnFailureFunc func(w http.ResponseWriter, r *http.Request, attemptedID string, cause error) error
	Failures      []error
}

func (m *MockOutcomeHandler) OnSuccess(w http.ResponseWriter, r *http.Request, identity session.Identity) error {
	if m.OnSuccessFunc != nil {
		return m.OnSuccessFunc(w, r, identity)
	}
	http.Redirect(w, r, "/menu", http.StatusSeeOther)
	return nil
}

func (m *MockOutcomeHandler) OnFailure(w http.ResponseWriter, r *http.Request, attemptedID string, cause error) error {
	m.Failures = append(m.Failures, cause)
	if m.OnFailureFunc != nil {
		return m.OnFailureFunc(w, r, attemptedID, cause)
	}
	http.Redirect(w, r, "/login?error", http.StatusSeeOther)
	return nil
}

// MockSessionEnder implements SessionEnder for testing
type MockSessionEnder struct {
	LogoutFunc func(w http.ResponseWriter, r *http.Request) error
	Calls      int
}

func (m *MockSessionEnder) Logout(w http.ResponseWriter, r *http.Request) error {
	m.Calls++
	if m.LogoutFunc != nil {
		return m.LogoutFunc(w, r)
	}
	return nil
}

// MockMenuLister implements MenuLister for testing
type MockMenuLister struct {
	ListFunc func(ctx context.Context) ([]models.Menu, error)
}

func (m *MockMenuLister) List(ctx context.Context) ([]models.Menu, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []models.Menu{}, nil
}

// MockExecutor implements Executor for testing
type MockExecutor struct {
	ID          string
	ExecuteFunc func(ctx context.Context, parameter string) error
}

func (m *MockExecutor) ScreenID() string {
	return m.ID
}

func (m *MockExecutor) Execute(ctx context.Context, parameter string) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, parameter)
	}
	return nil
}

// newTestPages wires Pages to in-memory doubles
func newTestPages(identity *session.Identity) (*Pages, *MockRenderer, *MockFlashStore) {
	renderer := &MockRenderer{}
	flashes := &MockFlashStore{}
	return NewPages(renderer, MockResolver{}, &MockIdentityReader{Current: identity}, flashes), renderer, flashes
}
