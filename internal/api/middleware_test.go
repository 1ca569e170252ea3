package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth_MissingHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no scheme", "some-token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-paseto-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Authorization", tt.header)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
		})
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	srv, authResp := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks", authResp.AccessToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestGetUserID_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, getUserID(ctx))
	assert.Empty(t, getEmail(ctx))
}
