// Package phone normalizes and validates Korean mobile numbers.
package phone

import (
	"regexp"
	"strings"
)

var mobile = regexp.MustCompile(`^01[016789]\d{8}$`)

// Clean strips dashes and spaces.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.TrimSpace(s)
}

func Valid(s string) bool {
	return mobile.MatchString(Clean(s))
}

// Format renders an 11-digit number as xxx-xxxx-xxxx.  Anything else is
// returned unchanged.
func Format(s string) string {
	c := Clean(s)
	if len(c) != 11 {
		return s
	}
	return c[:3] + "-" + c[3:7] + "-" + c[7:]
}
