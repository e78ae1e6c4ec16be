package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
)

// ValidatePostTitle checks the title of a new or edited post. Titles are
// required and capped at models.MaxTitleLen characters.
func ValidatePostTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLen {
		return fmt.Errorf("title must be at most %d characters long", models.MaxTitleLen)
	}
	return nil
}

// ValidatePostContent checks the body of a new or edited post.
func ValidatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// ValidateCommentContent checks the body of a new comment.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment content is required")
	}
	return nil
}

// ValidateBio checks a profile bio against its length cap.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > models.MaxBioLen {
		return fmt.Errorf("bio must be at most %d characters long", models.MaxBioLen)
	}
	return nil
}
