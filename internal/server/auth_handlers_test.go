package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	s := newTestServer(t)

	token, user := signup(t, s, "jane")
	assert.NotEmpty(t, token)
	assert.Equal(t, "jane", user["username"])

	// The profile is created with the account.
	profile, ok := user["profile"].(map[string]any)
	require.True(t, ok, "signup response must include the profile")
	assert.Equal(t, user["id"], profile["user_id"])
}

func TestSignup_FieldErrors(t *testing.T) {
	s := newTestServer(t)
	signup(t, s, "jane")

	tests := []struct {
		name      string
		body      map[string]string
		wantField string
	}{
		{
			name: "duplicate username",
			body: map[string]string{
				"username": "jane", "email": "second@example.com",
				"password": testPassword, "password_confirm": testPassword,
			},
			wantField: "username",
		},
		{
			name: "invalid email",
			body: map[string]string{
				"username": "john", "email": "not-an-email",
				"password": testPassword, "password_confirm": testPassword,
			},
			wantField: "email",
		},
		{
			name: "password mismatch",
			body: map[string]string{
				"username": "john", "email": "john@example.com",
				"password": testPassword, "password_confirm": testPassword + "x",
			},
			wantField: "password_confirm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, s, jsonRequest(t, http.MethodPost, "/api/auth/signup", tt.body, ""))
			require.Equal(t, http.StatusBadRequest, status)

			fields, ok := body["fields"].(map[string]any)
			require.True(t, ok, "response must carry field errors: %v", body)
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	signup(t, s, "jane")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "jane", "password": testPassword,
	}, ""))
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, _ = doJSON(t, s, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "jane", "password": "wrong-password",
	}, ""))
	assert.Equal(t, http.StatusUnauthorized, status)

	// Unknown users get the same answer as bad passwords.
	status, _ = doJSON(t, s, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "ghost", "password": testPassword,
	}, ""))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "jane")

	status, _ := doJSON(t, s, jsonRequest(t, http.MethodPost, "/api/auth/logout", nil, token))
	require.Equal(t, http.StatusOK, status)

	// The revoked token no longer opens gated routes.
	status, _ = doJSON(t, s, jsonRequest(t, http.MethodGet, "/api/users/me", nil, token))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequired_AnonymousGetsLoginURL(t *testing.T) {
	s := newTestServer(t)

	status, body := doJSON(t, s, jsonRequest(t, http.MethodPost, "/api/posts", map[string]string{
		"title": "t", "content": "c",
	}, ""))
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "/api/auth/login", body["login_url"])
}

func TestAuthRequired_RejectsGarbageToken(t *testing.T) {
	s := newTestServer(t)

	status, _ := doJSON(t, s, jsonRequest(t, http.MethodGet, "/api/users/me", nil, "not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, status)
}
