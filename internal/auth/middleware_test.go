package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(userID))
	})
}

func TestRequireAuth(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService(t, at)
	token, err := ts.Generate(testUser)
	require.NoError(t, err)

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		RequireAuth(ts)(protectedHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, testUser.UserID, rr.Body.String())
	})

	t.Run("lowercase scheme accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Authorization", "bearer "+token)
		rr := httptest.NewRecorder()

		RequireAuth(ts)(protectedHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		rr := httptest.NewRecorder()

		RequireAuth(ts)(protectedHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "valid authentication required")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Authorization", "Basic "+token)
		rr := httptest.NewRecorder()

		RequireAuth(ts)(protectedHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := newTestTokenService(t, at)
		expired.now = fixedClock(at.Add(2 * time.Hour))

		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		RequireAuth(expired)(protectedHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "session expired")
	})
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)
	assert.Empty(t, id)
}
