package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyAccount(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "jane")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodGet, "/api/users/me", nil, token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane", body["username"])

	profile, ok := body["profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, body["id"], profile["user_id"])
}

func TestUpdateMyAccount(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "jane")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodPut, "/api/users/me", map[string]any{
		"username": "jane_doe",
		"bio":      "Writes about distributed systems.",
	}, token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane_doe", body["username"])

	profile, ok := body["profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Writes about distributed systems.", profile["bio"])
}

func TestUpdateMyAccount_UsernameTaken(t *testing.T) {
	s := newTestServer(t)
	signup(t, s, "jane")
	token, _ := signup(t, s, "john")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodPut, "/api/users/me", map[string]any{
		"username": "jane",
	}, token))
	require.Equal(t, http.StatusBadRequest, status)

	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
}

func TestUploadAvatar(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "jane")

	img := image.NewRGBA(image.Rect(0, 0, 600, 400))
	for x := 0; x < 600; x += 10 {
		for y := 0; y < 400; y++ {
			img.Set(x, y, color.RGBA{B: 200, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/me/avatar", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	status, respBody := doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status, "upload body: %v", respBody)

	url, _ := respBody["avatar_url"].(string)
	assert.True(t, strings.HasPrefix(url, "/media/avatars/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	// The profile now points at the upload.
	status, me := doJSON(t, s, jsonRequest(t, http.MethodGet, "/api/users/me", nil, token))
	require.Equal(t, http.StatusOK, status)
	profile, _ := me["profile"].(map[string]any)
	assert.Equal(t, url, profile["avatar_url"])
}

func TestUploadAvatar_MissingFile(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "jane")

	req := httptest.NewRequest(http.MethodPost, "/api/users/me/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	status, body := doJSON(t, s, req)
	require.Equal(t, http.StatusBadRequest, status)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "avatar")
}

func TestDeleteMyAccount(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "jane")
	postID := createPost(t, s, token, "jane's post")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodDelete, "/api/users/me", nil, token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["deleted"])

	// The token died with the account.
	status, _ = doJSON(t, s, jsonRequest(t, http.MethodGet, "/api/users/me", nil, token))
	assert.Equal(t, http.StatusUnauthorized, status)

	// And so did the posts.
	status, _ = doJSON(t, s, jsonRequest(t, http.MethodGet, fmtPostPath(postID), nil, ""))
	assert.Equal(t, http.StatusNotFound, status)
}
