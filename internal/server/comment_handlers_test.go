package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addComment(t *testing.T, s *Server, token string, postID uint, content string) uint {
	t.Helper()
	status, body := doJSON(t, s, jsonRequest(t, http.MethodPost,
		fmtPostPath(postID)+"/comments", map[string]string{"content": content}, token))
	require.Equal(t, http.StatusCreated, status, "add comment body: %v", body)

	comment, ok := body["comment"].(map[string]any)
	require.True(t, ok)
	id, ok := comment["id"].(float64)
	require.True(t, ok)
	return uint(id)
}

func TestCreateComment(t *testing.T) {
	s := newTestServer(t)
	authorToken, _ := signup(t, s, "author")
	commenterToken, _ := signup(t, s, "commenter")
	postID := createPost(t, s, authorToken, "discuss")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodPost,
		fmtPostPath(postID)+"/comments", map[string]string{"content": "great read"}, commenterToken))
	require.Equal(t, http.StatusCreated, status)

	comment, ok := body["comment"].(map[string]any)
	require.True(t, ok)
	user, _ := comment["user"].(map[string]any)
	require.NotNil(t, user, "comment must embed its author")
	assert.Equal(t, "commenter", user["username"])
	assert.Equal(t, fmt.Sprintf("/posts/%d", postID), body["redirect_to"])
}

func TestCreateComment_EmptyContent(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "author")
	postID := createPost(t, s, token, "discuss")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodPost,
		fmtPostPath(postID)+"/comments", map[string]string{"content": "   "}, token))
	require.Equal(t, http.StatusBadRequest, status)

	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "content")
}

func TestCreateComment_MissingPost(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "author")

	status, _ := doJSON(t, s, jsonRequest(t, http.MethodPost,
		"/api/posts/9999/comments", map[string]string{"content": "into the void"}, token))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetComments_OldestFirst(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "author")
	postID := createPost(t, s, token, "discuss")

	addComment(t, s, token, postID, "first")
	addComment(t, s, token, postID, "second")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodGet,
		fmtPostPath(postID)+"/comments", nil, ""))
	require.Equal(t, http.StatusOK, status)

	comments, ok := body["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 2)
	first, _ := comments[0].(map[string]any)
	assert.Equal(t, "first", first["content"])
}

func TestDeleteComment_Owner(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "author")
	postID := createPost(t, s, token, "discuss")
	commentID := addComment(t, s, token, postID, "second thoughts")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodDelete,
		fmt.Sprintf("/api/comments/%d", commentID), nil, token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["deleted"])
	assert.Equal(t, fmt.Sprintf("/posts/%d", postID), body["redirect_to"])
}

func TestDeleteComment_NonOwnerIsSoftRefusal(t *testing.T) {
	s := newTestServer(t)
	authorToken, _ := signup(t, s, "author")
	intruderToken, _ := signup(t, s, "intruder")
	postID := createPost(t, s, authorToken, "discuss")
	commentID := addComment(t, s, authorToken, postID, "staying right here")

	// A 200 with a notice, not a 403: the client shows the notice and goes
	// back to the post.
	status, body := doJSON(t, s, jsonRequest(t, http.MethodDelete,
		fmt.Sprintf("/api/comments/%d", commentID), nil, intruderToken))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["deleted"])
	assert.NotEmpty(t, body["notice"])
	assert.Equal(t, fmt.Sprintf("/posts/%d", postID), body["redirect_to"])

	// The comment is still there.
	status, listBody := doJSON(t, s, jsonRequest(t, http.MethodGet,
		fmtPostPath(postID)+"/comments", nil, ""))
	require.Equal(t, http.StatusOK, status)
	comments, _ := listBody["comments"].([]any)
	assert.Len(t, comments, 1)
}

func TestDeleteComment_AnonymousGetsLoginURL(t *testing.T) {
	s := newTestServer(t)
	token, _ := signup(t, s, "author")
	postID := createPost(t, s, token, "discuss")
	commentID := addComment(t, s, token, postID, "still here")

	status, body := doJSON(t, s, jsonRequest(t, http.MethodDelete,
		fmt.Sprintf("/api/comments/%d", commentID), nil, ""))
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "/api/auth/login", body["login_url"])
}
