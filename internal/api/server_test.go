package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shakil/hookpipe/internal/classify"
	"github.com/shakil/hookpipe/internal/config"
	"github.com/shakil/hookpipe/internal/signing"
	"github.com/shakil/hookpipe/internal/storage"
)

func newTestServer(t *testing.T, store *MockStorage, adminToken string) *Server {
	t.Helper()
	validator, err := signing.NewValidator(testSecret)
	require.NoError(t, err)
	classifier := classify.NewClassifier(map[string]string{"demo-repo": "demo"}, []string{"scar-bot"})
	return NewServer(config.ServerConfig{}, adminToken, validator, classifier, store, zerolog.Nop())
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, new(MockStorage), "")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_WebhookRejectedWithoutSignature(t *testing.T) {
	store := new(MockStorage)
	s := newTestServer(t, store, "")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/github", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	store.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestRouter_AdminDisabledWithoutToken(t *testing.T) {
	s := newTestServer(t, new(MockStorage), "")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminAuth(t *testing.T) {
	store := new(MockStorage)
	store.On("GetStats", mock.Anything).Return(&storage.Stats{TotalEvents: 4}, nil)
	s := newTestServer(t, store, "admin-token")

	// No token
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer nope")
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_events":4`)
}
