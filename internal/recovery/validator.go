package recovery

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims surrounding whitespace and lowercases the value.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Validate normalizes raw and checks it is a plausible email address.
// It returns the normalized address or a *ValidationError.
func Validate(raw string) (string, error) {
	email := Normalize(raw)
	if email == "" {
		return "", &ValidationError{Reason: ReasonEmpty}
	}
	// the pattern alone accepts a trailing dot ("a@b.c.") and non-ASCII spaces
	if !emailPattern.MatchString(email) || strings.HasSuffix(email, ".") || strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return "", &ValidationError{Reason: ReasonMalformedEmail}
	}
	return email, nil
}
