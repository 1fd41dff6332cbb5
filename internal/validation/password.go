package validation

import (
	"errors"
	"strings"
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "letmein", "welcome", "iloveyou",
}

// ValidatePassword enforces a minimum length, the bcrypt input limit and a small deny list.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	// bcrypt silently truncates input past 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}
	return nil
}
