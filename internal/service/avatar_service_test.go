package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestAvatarService_SetAvatar_ScalesAndStoresWebP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane")

	mediaDir := t.TempDir()
	avatars := NewAvatarService(repository.NewProfileRepository(env.db), mediaDir, "/media")

	url, err := avatars.SetAvatar(ctx, user.ID, pngImage(t, 900, 600))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/avatars/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	f, err := os.Open(filepath.Join(mediaDir, "avatars", filepath.Base(url)))
	require.NoError(t, err)
	defer f.Close()

	stored, err := webp.Decode(f)
	require.NoError(t, err)
	bounds := stored.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), AvatarMaxDim)
	assert.LessOrEqual(t, bounds.Dy(), AvatarMaxDim)
	// Aspect ratio preserved: 900x600 scales to 300x200.
	assert.Equal(t, 300, bounds.Dx())
	assert.Equal(t, 200, bounds.Dy())

	var profile models.Profile
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, url, profile.AvatarURL)
}

func TestAvatarService_SetAvatar_SmallImagePassesThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane")

	mediaDir := t.TempDir()
	avatars := NewAvatarService(repository.NewProfileRepository(env.db), mediaDir, "/media")

	url, err := avatars.SetAvatar(ctx, user.ID, pngImage(t, 120, 80))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(mediaDir, "avatars", filepath.Base(url)))
	require.NoError(t, err)
	defer f.Close()

	stored, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, stored.Bounds().Dx())
	assert.Equal(t, 80, stored.Bounds().Dy())
}

func TestAvatarService_SetAvatar_RejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane")

	avatars := NewAvatarService(repository.NewProfileRepository(env.db), t.TempDir(), "/media")

	_, err := avatars.SetAvatar(ctx, user.ID, strings.NewReader("not an image at all"))
	appErr := requireAppError(t, err, models.CodeValidation)
	assert.Contains(t, appErr.Fields, "avatar")
}
