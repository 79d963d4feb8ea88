package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserId(t *testing.T) {
	tcases := []struct {
		name     string
		ctx      context.Context
		userId   int
		expected bool
	}{
		{
			name:     "no user ID",
			ctx:      context.Background(),
			expected: false,
		},
		{
			name:     "user ID set",
			ctx:      WithUserId(context.Background(), 42),
			userId:   42,
			expected: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			userId, ok := UserId(tc.ctx)
			assert.Equal(t, tc.expected, ok, "expected UserId to return %v", tc.expected)
			assert.Equal(t, tc.userId, userId, "expected UserId to return %d", tc.userId)
		})
	}
}

func TestSessionToken(t *testing.T) {
	tcases := []struct {
		name    string
		build   func(r *http.Request)
		token   string
		wantErr bool
	}{
		{
			name:  "bearer header",
			build: func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc123") },
			token: "abc123",
		},
		{
			name:    "malformed header",
			build:   func(r *http.Request) { r.Header.Set("Authorization", "Basic abc123") },
			wantErr: true,
		},
		{
			name:  "query parameter fallback",
			build: func(r *http.Request) { q := r.URL.Query(); q.Set("token", "xyz789"); r.URL.RawQuery = q.Encode() },
			token: "xyz789",
		},
		{
			name:    "no token",
			build:   func(r *http.Request) {},
			wantErr: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.build(req)

			token, err := sessionToken(req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestJwtRoundTrip(t *testing.T) {
	app := &SphereApp{signingKey: []byte("test-signing-key")}

	token, err := app.createJwtForSession(42, defaultJwtExpiration)
	require.NoError(t, err)

	userId, err := app.extractUserIdFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userId)

	other := &SphereApp{signingKey: []byte("different-key")}
	_, err = other.extractUserIdFromToken(token)
	assert.Error(t, err, "tokens signed with another key must be rejected")

	expired, err := app.createJwtForSession(42, -time.Minute)
	require.NoError(t, err)

	_, err = app.extractUserIdFromToken(expired)
	assert.Error(t, err, "expired tokens must be rejected")
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, verifyPassword(hash, "hunter2"))
	assert.False(t, verifyPassword(hash, "hunter3"))
}
