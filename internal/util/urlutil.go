package util

import (
	"net/url"
	"strings"
)

// defaultAllowHosts are the hosts the clipboard watcher will surface links
// for: the classified providers plus common video hosts.
var defaultAllowHosts = []string{
	"instagram.com",
	"facebook.com",
	"fb.watch",
	"twitter.com",
	"x.com",
	"youtube.com",
	"youtu.be",
	"dailymotion.com",
	"dai.ly",
	"vimeo.com",
	"tiktok.com",
	"twitch.tv",
	"streamable.com",
	"reddit.com",
}

// AllowHosts returns the built-in allow-list plus any extras.
func AllowHosts(extra []string) []string {
	out := make([]string, 0, len(defaultAllowHosts)+len(extra))
	out = append(out, defaultAllowHosts...)
	for _, h := range extra {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// ExtractLinks scans free-form text for http(s):// literals. A token ends at
// whitespace or an angle/quote character, so links survive being pasted inside
// markup or chat messages.
func ExtractLinks(text string) []string {
	var out []string
	lower := strings.ToLower(text)
	for i := 0; i < len(lower); {
		j := strings.Index(lower[i:], "http")
		if j < 0 {
			break
		}
		start := i + j
		rest := lower[start:]
		if !strings.HasPrefix(rest, "http://") && !strings.HasPrefix(rest, "https://") {
			i = start + 4
			continue
		}
		end := start
		for end < len(text) && !isLinkTerminator(rune(text[end])) {
			end++
		}
		token := text[start:end]
		if u, err := url.Parse(token); err == nil && u.Host != "" {
			out = append(out, token)
		}
		i = end
	}
	return out
}

func isLinkTerminator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '<', '>', '"', '\'':
		return true
	}
	return false
}

// HostAllowed reports whether the link's host (ignoring www./m. prefixes)
// matches the allow-list, including subdomains.
func HostAllowed(link string, allow []string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	for _, a := range allow {
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// FirstAllowedLink extracts links from text and returns the first one whose
// host passes the allow-list, or "".
func FirstAllowedLink(text string, allow []string) string {
	for _, link := range ExtractLinks(text) {
		if HostAllowed(link, allow) {
			return link
		}
	}
	return ""
}
