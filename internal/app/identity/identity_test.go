package identity

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_IssueAndResolve(t *testing.T) {
	r := NewResolver("test-secret", time.Hour)

	token, err := r.Issue("user-1")
	require.NoError(t, err)

	userID, err := r.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestResolver_RejectsWrongSecret(t *testing.T) {
	token, err := NewResolver("secret-a", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewResolver("secret-b", time.Hour).Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolver_RejectsExpiredToken(t *testing.T) {
	r := NewResolver("test-secret", time.Hour)
	r.ttl = -time.Minute

	token, err := r.Issue("user-1")
	require.NoError(t, err)

	r.ttl = time.Hour
	_, err = r.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolver_RejectsGarbageToken(t *testing.T) {
	r := NewResolver("test-secret", time.Hour)

	_, err := r.Resolve("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromRequest(t *testing.T) {
	r := NewResolver("test-secret", time.Hour)
	token, err := r.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantUser   string
		wantErr    bool
	}{
		{name: "valid bearer token", authHeader: "Bearer " + token, wantUser: "user-1"},
		{name: "no header is anonymous", authHeader: "", wantUser: ""},
		{name: "missing bearer prefix", authHeader: token, wantErr: true},
		{name: "invalid token", authHeader: "Bearer junk", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			userID, err := r.FromRequest(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, userID)
		})
	}
}
