package logging

import (
	"net/url"
	"strings"
)

// SanitizeURL strips userinfo, query, and fragment from a link before it is
// logged, so clipboard-captured URLs never leak tokens into the log file.
func SanitizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
