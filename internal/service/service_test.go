package service

import (
	"context"
	"fmt"
	"testing"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Str0ng!Passw0rd"

type testEnv struct {
	db       *gorm.DB
	accounts *AccountService
	posts    *PostService
	comments *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := database.NewTestDB(t)

	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	return &testEnv{
		db:       db,
		accounts: NewAccountService(db, users, profiles),
		posts:    NewPostService(postRepo, users, nil),
		comments: NewCommentService(commentRepo, postRepo, nil),
	}
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           fmt.Sprintf("%s@example.com", username),
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createPost(t *testing.T, userID uint, title string) *models.Post {
	t.Helper()
	post, err := e.posts.CreatePost(context.Background(), CreatePostInput{
		UserID:  userID,
		Title:   title,
		Content: "some content",
	})
	require.NoError(t, err)
	return post
}

func requireAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
	return appErr
}
