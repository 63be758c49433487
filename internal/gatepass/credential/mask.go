package credential

import "strings"

// MaskPhone hides the middle of a phone number for logs and listings.
func MaskPhone(p string) string {
	switch {
	case len(p) >= 11:
		return p[:3] + "****" + p[7:]
	case len(p) >= 8:
		return p[:2] + "****" + p[6:]
	default:
		return "****"
	}
}

// MaskName keeps the first and last rune.
func MaskName(n string) string {
	r := []rune(n)
	switch len(r) {
	case 0:
		return ""
	case 1:
		return "*"
	case 2:
		return string(r[0]) + "*"
	default:
		return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
	}
}
