package credential

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxInputLen = 100

var (
	ErrInputEmpty      = errors.New("input is empty")
	ErrInputTooLong    = errors.New("input is too long")
	ErrInputSuspicious = errors.New("input contains disallowed content")
)

var suspiciousPatterns = []string{
	"<script", "javascript:", "onload=", "onerror=",
	"select ", "insert ", "update ", "delete ", "drop ", "union ",
	"or 1=1", "' or '", "-- ", "/*", "*/",
}

// ValidateInput rejects blank, oversized, or markup/SQL-looking free text.
func ValidateInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrInputEmpty
	}
	if utf8.RuneCountInString(s) > MaxInputLen {
		return ErrInputTooLong
	}
	lower := strings.ToLower(s)
	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			return ErrInputSuspicious
		}
	}
	return nil
}

// NewPersonID returns 12 upper-case hex characters taken from a random UUID.
func NewPersonID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:12])
}
