package seed

import (
	"testing"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_CreatesConsistentData(t *testing.T) {
	db := database.NewTestDB(t)

	err := Seed(db, Options{
		NumUsers:    5,
		NumPosts:    12,
		NumComments: 20,
		SkipBcrypt:  true,
		RandSeed:    42,
	})
	require.NoError(t, err)

	var users, profiles, posts, comments int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)

	assert.EqualValues(t, 5, users)
	assert.EqualValues(t, 5, profiles, "every seeded user must have exactly one profile")
	assert.EqualValues(t, 12, posts)
	assert.EqualValues(t, 20, comments)
}

func TestSeed_CleanRemovesEverything(t *testing.T) {
	db := database.NewTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 2, NumPosts: 3, SkipBcrypt: true, RandSeed: 1}))
	require.NoError(t, Seed(db, Options{NumUsers: 1, ShouldClean: true, SkipBcrypt: true, RandSeed: 2}))

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 0, posts, "cascades must remove the old users' posts")
}

func TestFactory_PostTitleWithinLimit(t *testing.T) {
	db := database.NewTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true, RandSeed: 7})

	user, err := f.CreateUser()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		post := f.BuildPost(user)
		assert.LessOrEqual(t, len(post.Title), models.MaxTitleLen)
		assert.NotEmpty(t, post.Title)
		assert.NotEmpty(t, post.Content)
	}
}
