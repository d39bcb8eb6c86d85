// Package validation checks user input before it reaches the services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"verselearn/internal/models"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores anything longer
	MaxTitleLength    = 100
	MaxTeamNameLength = 50
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUsername checks length and allowed characters
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username must be 3-32 characters of letters, digits, '_' or '-'"}
	}
	return nil
}

// ValidatePassword checks the password and its confirmation
func ValidatePassword(password, confirm string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > MaxPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength)}
	}
	if password != confirm {
		return ValidationError{Field: "confirm", Message: "passwords do not match"}
	}
	return nil
}

// ValidateTitle checks a text title
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", MaxTitleLength)}
	}
	return nil
}

// ValidateLanguage checks that code is a supported language
func ValidateLanguage(code string) error {
	if !models.IsSupportedLanguage(code) {
		return ValidationError{Field: "language", Message: fmt.Sprintf("language must be one of %s", strings.Join(models.SupportedLanguages, ", "))}
	}
	return nil
}

// ValidateTeamName checks a team name
func ValidateTeamName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "team name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "team name must be at least 2 characters"}
	}
	if utf8.RuneCountInString(name) > MaxTeamNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("team name must be at most %d characters", MaxTeamNameLength)}
	}
	return nil
}
