package validation

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims, collapses inner whitespace and applies NFC so that
// visually identical names compare equal.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
