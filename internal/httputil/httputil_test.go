package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synexis/internal/logger"
)

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) Message {
	t.Helper()
	var m Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	return m
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"client error", http.StatusBadRequest, http.StatusBadRequest},
		{"server error", http.StatusServiceUnavailable, http.StatusServiceUnavailable},
		{"zero status defaults to 500", 0, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Fail(logger.Discard(), w, "Question required.", errors.New("cause"), tt.status)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "Question required.", decodeMessage(t, w).Message)
		})
	}
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Question string `json:"question" validate:"required"`
	}
	err := Validator.Struct(&payload{})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(logger.Discard(), w, err, "Question required.")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m := decodeMessage(t, w)
	assert.Equal(t, "Question required.", m.Message)
	assert.Equal(t, "required", m.Fields["Question"])
}

func TestRecovererAnswers500(t *testing.T) {
	h := Recoverer(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouterCORSAllowsCredentials(t *testing.T) {
	r := NewRouter(logger.Discard(), []string{"https://app.example"})
	r.Get("/healthz", HealthHandler(logger.Discard()))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouterWithoutOriginsSendsNoCORSHeaders(t *testing.T) {
	for _, origins := range [][]string{nil, {}} {
		r := NewRouter(logger.Discard(), origins)
		r.Get("/healthz", HealthHandler(logger.Discard()))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	}
}

func TestRouterRejectsUnlistedOrigin(t *testing.T) {
	r := NewRouter(logger.Discard(), []string{"https://app.example"})
	r.Get("/healthz", HealthHandler(logger.Discard()))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
