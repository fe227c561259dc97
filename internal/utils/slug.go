package utils

import "strings"

// Slugify derives a URL-friendly provider ID from a display name.
// The result is lowercase, contains only [a-z0-9-], never has consecutive
// dashes, and never starts or ends with a dash. Applying Slugify to its own
// output returns the same string.
func Slugify(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	lastDash := false
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		// Collapse every run of disallowed characters into a single dash
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}
