package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := NewFileRepo(t.TempDir())
	require.NoError(t, err)
	return NewService(repo, time.Hour, nil)
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	u, token, exp, err := svc.Register("Alice@Example.com ", now)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEmpty(t, token)
	assert.Equal(t, now.Add(time.Hour), exp)

	// Same email resolves to the same user; the token is fresh.
	again, token2, _, err := svc.Register("alice@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.NotEqual(t, token, token2)

	_, _, _, err = svc.Register("not-an-email", now)
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAuthenticateRequest(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	u, token, _, err := svc.Register("alice@example.com", now)
	require.NoError(t, err)

	got, _, ok := svc.AuthenticateRequest(authedRequest(token), now)
	require.True(t, ok)
	assert.Equal(t, u.ID, got.ID)

	_, _, ok = svc.AuthenticateRequest(authedRequest("bogus"), now)
	assert.False(t, ok)

	_, _, ok = svc.AuthenticateRequest(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), now)
	assert.False(t, ok)
}

func TestAuthenticateRequest_Expiry(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	_, token, _, err := svc.Register("alice@example.com", now)
	require.NoError(t, err)

	_, _, ok := svc.AuthenticateRequest(authedRequest(token), now.Add(2*time.Hour))
	assert.False(t, ok)

	// The expired session is gone; the token never works again.
	_, _, ok = svc.AuthenticateRequest(authedRequest(token), now)
	assert.False(t, ok)
}

func TestRevokeSessionForRequest(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	_, token, _, err := svc.Register("alice@example.com", now)
	require.NoError(t, err)

	svc.RevokeSessionForRequest(authedRequest(token))

	_, _, ok := svc.AuthenticateRequest(authedRequest(token), now)
	assert.False(t, ok)
}

func TestRequireAPI(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	u, token, _, err := svc.Register("alice@example.com", now)
	require.NoError(t, err)

	var seen string
	handler := svc.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := UserFromContext(r.Context()); ok {
			seen = user.ID
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFileRepo_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	repo, err := NewFileRepo(dir)
	require.NoError(t, err)
	u, created, err := repo.GetOrCreateUser("alice@example.com", now)
	require.NoError(t, err)
	assert.True(t, created)

	reloaded, err := NewFileRepo(dir)
	require.NoError(t, err)
	got, ok := reloaded.GetUserByID(u.ID)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", got.Email)
}
