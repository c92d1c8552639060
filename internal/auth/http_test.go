// ABOUTME: Tests for HTTP authentication middleware
// ABOUTME: Covers anonymous pass-through, valid tokens, bad tokens and deleted users

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vladimir-28/FitLife/internal/store"
)

type mockUserLookup struct {
	users map[int64]*store.User
	err   error
}

func (m *mockUserLookup) GetUser(_ context.Context, id int64) (*store.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func runMiddleware(t *testing.T, users UserLookup, verifier TokenVerifier, authHeader string) (*httptest.ResponseRecorder, *AuthContext, bool) {
	t.Helper()

	var gotAuth *AuthContext
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotAuth = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	OptionalAuthMiddleware(users, verifier, nil)(handler).ServeHTTP(rec, req)
	return rec, gotAuth, called
}

func TestOptionalAuthMiddleware_Anonymous(t *testing.T) {
	rec, authCtx, called := runMiddleware(t, &mockUserLookup{}, newTestVerifier(t), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Nil(t, authCtx)
}

func TestOptionalAuthMiddleware_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	token, err := verifier.Issue(5)
	require.NoError(t, err)

	users := &mockUserLookup{users: map[int64]*store.User{
		5: {ID: 5, Email: "ana@x.com"},
	}}

	rec, authCtx, called := runMiddleware(t, users, verifier, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	require.NotNil(t, authCtx)
	assert.Equal(t, int64(5), authCtx.UserID)
	assert.Equal(t, "ana@x.com", authCtx.Email)
}

func TestOptionalAuthMiddleware_Rejections(t *testing.T) {
	verifier := newTestVerifier(t)
	deletedToken, err := verifier.Issue(99)
	require.NoError(t, err)

	expired, err := NewJWTVerifier(testSecret, time.Hour)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expiredToken, err := expired.Issue(5)
	require.NoError(t, err)

	users := &mockUserLookup{users: map[int64]*store.User{5: {ID: 5}}}

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"wrong scheme", "Basic abc", "Token inválido"},
		{"empty bearer", "Bearer ", "Token inválido"},
		{"garbage", "Bearer nope", "Token inválido"},
		{"deleted user", "Bearer " + deletedToken, "Token inválido"},
		{"expired", "Bearer " + expiredToken, "Token expirado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := runMiddleware(t, users, verifier, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestOptionalAuthMiddleware_LookupFailure(t *testing.T) {
	verifier := newTestVerifier(t)
	token, err := verifier.Issue(5)
	require.NoError(t, err)

	rec, _, called := runMiddleware(t, &mockUserLookup{err: errors.New("db down")}, verifier, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
