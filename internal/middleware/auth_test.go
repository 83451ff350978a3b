package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func ownerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetOwnerFromContext(r.Context())))
	})
}

func TestJWTAuth(t *testing.T) {
	h := JWTAuth(testSecret, "aura")(ownerEcho())

	valid, err := SignToken(testSecret, "aura", "user-42", time.Hour)
	require.NoError(t, err)
	expired, err := SignToken(testSecret, "aura", "user-42", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := SignToken(testSecret, "someone-else", "user-42", time.Hour)
	require.NoError(t, err)
	wrongKey, err := SignToken([]byte("other"), "aura", "user-42", time.Hour)
	require.NoError(t, err)
	badSubject, err := SignToken(testSecret, "aura", "bad subject!", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + otherIssuer, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"invalid subject", "Bearer " + badSubject, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/points", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-42", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"unauthorized"`)
			}
		})
	}
}
