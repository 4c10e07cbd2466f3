package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(Config{JWTSecret: "test-secret", JWTExpiration: 5}, storage.NewMemoryUserStore())
}

func TestRegisterAndAuthenticate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	got, err := m.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRegisterDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	_, err = m.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, err = m.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Unknown user looks the same as a wrong password.
	_, err = m.Authenticate(ctx, "mallory", "hunter2")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateJWT("alice")
	require.NoError(t, err)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	other := NewManager(Config{JWTSecret: "different", JWTExpiration: 5}, storage.NewMemoryUserStore())
	_, err = other.ValidateJWT(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	m := newTestManager(t)

	var seenUser string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = UsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sensors", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sensors", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	token, err := m.GenerateJWT("alice")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/sensors", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", seenUser)
}
