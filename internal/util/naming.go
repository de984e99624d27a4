package util

import "strings"

// MaxNameLength caps custom output names, matching the backend's own limit.
const MaxNameLength = 120

// SanitizeName cleans a user-supplied output name: filesystem-unsafe
// characters and control characters are stripped, whitespace runs collapse to
// a single space, trailing dots and spaces are removed, and the result is
// truncated to MaxNameLength. Returns "" when nothing usable remains; callers
// treat that as "no custom name".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = strings.TrimRight(cleaned, ". ")
	if len(cleaned) > MaxNameLength {
		cleaned = strings.TrimRight(cleaned[:MaxNameLength], ". ")
	}
	return cleaned
}
