package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "writer")

	tests := []struct {
		name      string
		title     string
		content   string
		wantField string
	}{
		{"empty title", "", "content", "title"},
		{"whitespace title", "   ", "content", "title"},
		{"title too long", strings.Repeat("x", models.MaxTitleLen+1), "content", "title"},
		{"empty content", "a title", "", "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.posts.CreatePost(ctx, CreatePostInput{
				UserID: user.ID, Title: tt.title, Content: tt.content,
			})
			appErr := requireAppError(t, err, models.CodeValidation)
			assert.Contains(t, appErr.Fields, tt.wantField)
		})
	}
}

func TestPostService_CreatePost_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.posts.CreatePost(context.Background(), CreatePostInput{
		UserID: 0, Title: "anonymous post", Content: "should not happen",
	})
	requireAppError(t, err, models.CodeAuthRequired)
}

func TestPostService_CreatePost_StampsAuthor(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "writer")

	post := env.createPost(t, user.ID, "my first post")
	assert.Equal(t, user.ID, post.UserID)
	assert.Equal(t, "writer", post.User.Username)
}

func TestPostService_ListPosts_NewestFirstPageOfFive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "writer")

	for i := 1; i <= 7; i++ {
		post := env.createPost(t, user.ID, fmt.Sprintf("post %d", i))
		// Space the timestamps so ordering is deterministic.
		createdAt := time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("created_at", createdAt).Error)
	}

	posts, page, err := env.posts.ListPosts(ctx, ListPostsInput{Page: 1})
	require.NoError(t, err)

	require.Len(t, posts, DefaultPageSize)
	assert.Equal(t, "post 7", posts[0].Title)
	assert.Equal(t, "post 3", posts[4].Title)
	assert.EqualValues(t, 7, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	posts, _, err = env.posts.ListPosts(ctx, ListPostsInput{Page: 2})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post 2", posts[0].Title)
	assert.Equal(t, "post 1", posts[1].Title)
}

func TestPostService_ListPostsByAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jane := env.register(t, "jane")
	john := env.register(t, "john")
	env.createPost(t, jane.ID, "jane's post")
	env.createPost(t, john.ID, "john's post")

	posts, page, err := env.posts.ListPostsByAuthor(ctx, "jane", ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "jane's post", posts[0].Title)
	assert.EqualValues(t, 1, page.Total)
}

func TestPostService_ListPostsByAuthor_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.posts.ListPostsByAuthor(context.Background(), "ghost", ListPostsInput{})
	requireAppError(t, err, models.CodeNotFound)
}

func TestPostService_UpdatePost_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.register(t, "owner")
	intruder := env.register(t, "intruder")
	post := env.createPost(t, owner.ID, "original title")

	// Authenticated non-owner gets a hard refusal.
	_, err := env.posts.UpdatePost(ctx, UpdatePostInput{
		UserID: intruder.ID, PostID: post.ID, Title: "hijacked", Content: "hijacked",
	})
	requireAppError(t, err, models.CodeForbidden)

	// Anonymous gets sent to sign-in instead.
	_, err = env.posts.UpdatePost(ctx, UpdatePostInput{
		UserID: 0, PostID: post.ID, Title: "hijacked", Content: "hijacked",
	})
	requireAppError(t, err, models.CodeAuthRequired)

	// Unchanged in storage.
	stored, err := env.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original title", stored.Title)

	// The owner succeeds, and the author stamp survives the edit.
	updated, err := env.posts.UpdatePost(ctx, UpdatePostInput{
		UserID: owner.ID, PostID: post.ID, Title: "new title", Content: "new content",
	})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, owner.ID, updated.UserID)
}

func TestPostService_UpdatePost_ValidatesFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.register(t, "owner")
	post := env.createPost(t, owner.ID, "original title")

	_, err := env.posts.UpdatePost(ctx, UpdatePostInput{
		UserID: owner.ID, PostID: post.ID, Title: "", Content: "fine",
	})
	appErr := requireAppError(t, err, models.CodeValidation)
	assert.Contains(t, appErr.Fields, "title")
}

func TestPostService_DeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.register(t, "owner")
	intruder := env.register(t, "intruder")
	post := env.createPost(t, owner.ID, "doomed post")

	err := env.posts.DeletePost(ctx, DeletePostInput{UserID: intruder.ID, PostID: post.ID})
	requireAppError(t, err, models.CodeForbidden)

	err = env.posts.DeletePost(ctx, DeletePostInput{UserID: owner.ID, PostID: post.ID})
	require.NoError(t, err)

	_, err = env.posts.GetPost(ctx, post.ID)
	requireAppError(t, err, models.CodeNotFound)
}

func TestPostService_GetPost_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.posts.GetPost(context.Background(), 9999)
	requireAppError(t, err, models.CodeNotFound)
}
