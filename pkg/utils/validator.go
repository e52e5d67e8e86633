package utils

import (
	"fmt"
	"regexp"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{3,50}$`)

// ValidateUsername checks login-name shape: 3-50 chars, letters, digits,
// dot, underscore or dash.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("invalid username format: %s", username)
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString strips control characters from free-text input before it
// reaches the store or a spreadsheet cell.
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
