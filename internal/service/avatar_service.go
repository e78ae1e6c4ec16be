package service

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// AvatarMaxDim is the bounding box avatars are scaled down into.
const AvatarMaxDim = 300

// AvatarService stores uploaded avatars: images are scaled to fit 300x300 and
// re-encoded as WebP under the media directory.
type AvatarService struct {
	profiles repository.ProfileRepository
	mediaDir string
	baseURL  string
}

// NewAvatarService returns a new AvatarService writing into mediaDir and
// publishing URLs under baseURL.
func NewAvatarService(profiles repository.ProfileRepository, mediaDir, baseURL string) *AvatarService {
	return &AvatarService{
		profiles: profiles,
		mediaDir: mediaDir,
		baseURL:  baseURL,
	}
}

// SetAvatar processes the uploaded image and points the user's profile at the
// stored file. It returns the public avatar URL.
func (s *AvatarService) SetAvatar(ctx context.Context, userID uint, r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", models.NewFieldValidationError(map[string]string{
			"avatar": "Upload a valid image (JPEG, PNG, GIF or WebP)",
		})
	}

	resized := scaleDown(src)

	dir := filepath.Join(s.mediaDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	filename := fmt.Sprintf("user_%d.webp", userID)
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer f.Close()

	if err := webp.Encode(f, resized, &webp.Options{Lossless: false, Quality: 85}); err != nil {
		return "", models.NewInternalError(err)
	}

	url := s.baseURL + "/avatars/" + filename

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	profile.AvatarURL = url
	if err := s.profiles.Update(ctx, profile); err != nil {
		return "", err
	}

	return url, nil
}

// scaleDown shrinks the image to fit within AvatarMaxDim on both axes while
// keeping the aspect ratio. Smaller images pass through untouched.
func scaleDown(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= AvatarMaxDim && h <= AvatarMaxDim {
		return src
	}

	scale := float64(AvatarMaxDim) / float64(w)
	if h > w {
		scale = float64(AvatarMaxDim) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
