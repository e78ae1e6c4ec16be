// Package validation holds the input validators shared by the account and
// content services. Each validator returns a user-facing message and keeps the
// rejected value out of the error text.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MinPasswordLength is the minimum password length for new accounts.
	MinPasswordLength = 12
	// MaxPasswordLength caps input to keep bcrypt within its 72-byte limit.
	MaxPasswordLength = 72

	MinUsernameLength = 3
	MaxUsernameLength = 30

	MaxEmailLength = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidatePassword checks that a password meets the strength policy:
// at least MinPasswordLength characters with an uppercase letter, a lowercase
// letter, a digit and a special character.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters long", MaxPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if !hasUpper {
		missing = append(missing, "an uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "a lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "a digit")
	}
	if !hasSpecial {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain %s", strings.Join(missing, ", "))
	}

	return nil
}

// ValidatePasswordConfirmation checks that the confirmation field matches the
// chosen password.
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	return nil
}

// ValidateUsername checks that a username is between MinUsernameLength and
// MaxUsernameLength characters of letters, digits, underscores or hyphens.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters long", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may only contain letters, digits, underscores and hyphens")
	}
	return nil
}

// ValidateEmail checks that an email address is plausibly deliverable.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must be at most %d characters long", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("email address is not valid")
	}
	return nil
}
