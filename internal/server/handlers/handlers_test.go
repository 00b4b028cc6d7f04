package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
	"github.com/eventcall-app/eventcall/internal/server/csrf"
	"github.com/eventcall-app/eventcall/internal/server/users"
)

type fakeDispatcher struct {
	err       error
	eventType string
	called    int
}

func (f *fakeDispatcher) RepositoryDispatch(_ context.Context, eventType string, _ any) error {
	f.called++
	f.eventType = eventType
	return f.err
}

type fakeAuth struct {
	registerResp *models.AuthResponse
	registerErr  error
	loginResp    *models.AuthResponse
	loginErr     error
}

func (f *fakeAuth) Register(_ context.Context, _ users.Registration) (*models.AuthResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*models.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func apiError(status int) error {
	return &github.APIError{Status: status, Message: "Not Found"}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newTestServer(t *testing.T, dispatcher *fakeDispatcher, auth *fakeAuth, allowedOrigin string) (*httptest.Server, *csrf.Signer) {
	t.Helper()
	signer := csrf.NewSigner([]byte("secret"), time.Hour)
	h := New(signer, dispatcher, auth, allowedOrigin, testLogger())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, signer
}

func dispatchRequest(t *testing.T, srv *httptest.Server, grant csrf.Grant, origin string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"event_type":     "submit_rsvp",
		"client_payload": map[string]string{"x": "y"},
	})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/dispatch", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	req.Header.Set("X-CSRF-Client", grant.ClientID)
	req.Header.Set("X-CSRF-Token", grant.Token)
	req.Header.Set("X-CSRF-Expires", strconv.FormatInt(grant.Expires, 10))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDispatcher{}, &fakeAuth{}, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]bool{"ok": true}, body)
}

func TestHandshakeIssuesVerifiableGrant(t *testing.T) {
	srv, signer := newTestServer(t, &fakeDispatcher{}, &fakeAuth{}, "")

	resp, err := http.Get(srv.URL + "/api/csrf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var grant csrf.Grant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grant))
	require.NoError(t, signer.Verify(grant.ClientID, grant.Token, grant.Expires))
}

func TestDispatch_HappyPath(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv, signer := newTestServer(t, dispatcher, &fakeAuth{}, "")

	resp := dispatchRequest(t, srv, signer.Issue(), "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, dispatcher.called)
	assert.Equal(t, "submit_rsvp", dispatcher.eventType)
}

func TestDispatch_RejectsBadCSRF(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv, signer := newTestServer(t, dispatcher, &fakeAuth{}, "")

	grant := signer.Issue()
	grant.Token = "forged"
	resp := dispatchRequest(t, srv, grant, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, dispatcher.called)
}

func TestDispatch_RejectsForeignOrigin(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv, signer := newTestServer(t, dispatcher, &fakeAuth{}, "https://eventcall.app")

	resp := dispatchRequest(t, srv, signer.Issue(), "https://evil.example.com")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, dispatcher.called)
}

func TestDispatch_AllowsConfiguredOrigin(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv, signer := newTestServer(t, dispatcher, &fakeAuth{}, "https://eventcall.app")

	resp := dispatchRequest(t, srv, signer.Issue(), "https://eventcall.app")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, dispatcher.called)
}

func TestDispatch_MirrorsGitHubStatus(t *testing.T) {
	dispatcher := &fakeDispatcher{err: apiError(http.StatusNotFound)}
	srv, signer := newTestServer(t, dispatcher, &fakeAuth{}, "")

	resp := dispatchRequest(t, srv, signer.Issue(), "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogin_StatusMapping(t *testing.T) {
	auth := &fakeAuth{loginErr: common.ErrInvalidCredentials}
	srv, _ := newTestServer(t, &fakeDispatcher{}, auth, "")

	body, _ := json.Marshal(map[string]string{"username": "jane", "password": "x"})
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_Conflict(t *testing.T) {
	auth := &fakeAuth{registerErr: common.ErrUserExists}
	srv, _ := newTestServer(t, &fakeDispatcher{}, auth, "")

	body, _ := json.Marshal(map[string]string{"username": "jane", "password": "longenough"})
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_Created(t *testing.T) {
	auth := &fakeAuth{registerResp: &models.AuthResponse{
		Success: true,
		User:    &models.PublicUser{Username: "jane"},
	}}
	srv, _ := newTestServer(t, &fakeDispatcher{}, auth, "")

	body, _ := json.Marshal(map[string]string{"username": "jane", "password": "longenough"})
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var got models.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Success)
	assert.Equal(t, "jane", got.User.Username)
}
