package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/token"
	"github.com/BradenHooton/formgate/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator() (*ErrorTranslator, *MockFlashStore, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	flashes := &MockFlashStore{}
	return NewErrorTranslator(flashes, logger.NewAuditLogger(log), log, nil, "/error"), flashes, &buf
}

func TestErrorTranslator_Handle(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantLog  string
		wantLvl  string
	}{
		{
			name:     "invalid token",
			err:      fmt.Errorf("%w: mismatch", token.ErrInvalidToken),
			wantCode: messages.CodeInvalidToken,
			wantLog:  "invalid form token",
			wantLvl:  `"level":"WARN"`,
		},
		{
			name:     "data access",
			err:      fmt.Errorf("list menus: %w", fmt.Errorf("%w: timeout", models.ErrDataAccess)),
			wantCode: messages.CodeDataAccess,
			wantLog:  "data access failure",
			wantLvl:  `"level":"ERROR"`,
		},
		{
			name:     "rate limited",
			err:      models.ErrRateLimited,
			wantCode: messages.CodeRateLimited,
			wantLog:  "rate limited",
			wantLvl:  `"level":"WARN"`,
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			wantCode: messages.CodeSystemError,
			wantLog:  "unhandled error",
			wantLvl:  `"level":"ERROR"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, flashes, logs := newTestTranslator()
			r := httptest.NewRequest(http.MethodPost, "/purchase/execute", nil)
			w := httptest.NewRecorder()

			tr.Handle(w, r, tt.err)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/error", w.Header().Get("Location"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

			require.Len(t, flashes.Sent, 1)
			msg := flashes.Sent[0]
			assert.Equal(t, tt.wantCode, msg.Code)
			assert.Equal(t, "/purchase/execute", msg.Path)
			_, err := uuid.Parse(msg.IncidentID)
			assert.NoError(t, err)
			assert.False(t, msg.At.IsZero())

			assert.Contains(t, logs.String(), tt.wantLog)
			assert.Contains(t, logs.String(), tt.wantLvl)
			assert.Contains(t, logs.String(), msg.IncidentID)
			assert.NotContains(t, w.Body.String(), tt.err.Error())
		})
	}
}

func TestErrorTranslator_InvalidTokenIsAudited(t *testing.T) {
	tr, _, logs := newTestTranslator()
	r := httptest.NewRequest(http.MethodPost, "/sample/execute", nil)

	tr.Handle(httptest.NewRecorder(), r, token.ErrInvalidToken)

	assert.Contains(t, logs.String(), `"event_type":"token_rejected"`)
	assert.Contains(t, logs.String(), `"path":"/sample/execute"`)
}

func TestErrorTranslator_ErrorPageDoesNotLoop(t *testing.T) {
	tr, flashes, _ := newTestTranslator()
	r := httptest.NewRequest(http.MethodGet, "/error", nil)
	w := httptest.NewRecorder()

	tr.Handle(w, r, errors.New("render failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, flashes.Sent)
}

func TestErrorTranslator_FlashFailure(t *testing.T) {
	tr, flashes, _ := newTestTranslator()
	flashes.SetFunc = func(w http.ResponseWriter, msg flash.Message) error {
		return errors.New("sign failed")
	}
	w := httptest.NewRecorder()

	tr.Handle(w, httptest.NewRequest(http.MethodGet, "/menu", nil), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestErrorTranslator_Wrap(t *testing.T) {
	tr, flashes, _ := newTestTranslator()

	ok := tr.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
	w := httptest.NewRecorder()
	ok(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, flashes.Sent)

	failing := tr.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return models.ErrDataAccess
	})
	w = httptest.NewRecorder()
	failing(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, flashes.Sent, 1)
	assert.Equal(t, messages.CodeDataAccess, flashes.Sent[0].Code)
}

func TestErrorTranslator_Recover(t *testing.T) {
	tr, flashes, logs := newTestTranslator()
	handler := tr.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write")
	}))
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, flashes.Sent, 1)
	assert.Equal(t, messages.CodeSystemError, flashes.Sent[0].Code)
	assert.Contains(t, logs.String(), `"stack"`)
	assert.NotContains(t, w.Body.String(), "nil map write")
}

func TestErrorTranslator_RecoverRepanicsAbort(t *testing.T) {
	tr, _, _ := newTestTranslator()
	handler := tr.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
