package models

import (
	"time"
)

// DefaultAvatarURL is the placeholder served for profiles without an upload.
const DefaultAvatarURL = "/media/avatars/default.jpg"

// MaxBioLen is the maximum biography length in characters.
const MaxBioLen = 500

// Profile carries the public-facing settings of a user. Every user has
// exactly one profile: it is created inside the registration transaction and
// ensured (never duplicated) on every later user write. The unique index on
// user_id makes the store reject a second profile for the same user.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AvatarURL string    `gorm:"not null;default:''" json:"avatar_url"`
	Bio       string    `gorm:"size:500;not null;default:''" json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Avatar returns the stored avatar URL or the default placeholder.
func (p *Profile) Avatar() string {
	if p.AvatarURL == "" {
		return DefaultAvatarURL
	}
	return p.AvatarURL
}
