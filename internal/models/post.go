package models

import (
	"time"
)

// MaxTitleLen is the maximum post title length in characters.
const MaxTitleLen = 200

// Post represents a blog post in the Inkwell application.
//
// The author reference is stamped from the authenticated actor at creation
// time and never changes afterwards. Comments cascade away with the post.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	// CommentsCount is not persisted; filled in by the detail handler.
	CommentsCount int64 `gorm:"-" json:"comments_count"`
}
