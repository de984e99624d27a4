package provider

import "strings"

// Tag identifies the content source classified from a URL. The set is closed;
// anything unrecognized is None.
type Tag string

const (
	Instagram   Tag = "instagram"
	Facebook    Tag = "facebook"
	Twitter     Tag = "twitter"
	YouTube     Tag = "youtube"
	Dailymotion Tag = "dailymotion"
	None        Tag = "none"
)

// rules are checked in order; first match wins. Patterns are plain substrings
// matched against the trimmed lowercase URL.
var rules = []struct {
	tag      Tag
	patterns []string
}{
	{Instagram, []string{"instagram.com/"}},
	{Facebook, []string{"facebook.com/", "fb.watch/"}},
	{Twitter, []string{"twitter.com/", "x.com/"}},
	{YouTube, []string{"youtube.com/", "youtu.be/"}},
	{Dailymotion, []string{"dailymotion.com/", "dai.ly/"}},
}

// Classify maps a raw URL to its provider tag. Pure and total: operates on a
// trimmed lowercase copy and never fails.
func Classify(rawURL string) Tag {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return None
	}
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(s, p) {
				return r.tag
			}
		}
	}
	return None
}

// Profile describes how a provider constrains the download options. When
// Locked is true the controller substitutes the forced values for whatever the
// user selected.
type Profile struct {
	Tag              Tag
	Locked           bool
	ForcedFormat     string
	ForcedResolution string
	ForcedQuality    int
}

// ProfileFor derives the option profile for a tag. Instagram, Facebook and
// Twitter only support a single container at best resolution, so their options
// are locked.
func ProfileFor(tag Tag) Profile {
	switch tag {
	case Instagram, Facebook, Twitter:
		return Profile{
			Tag:              tag,
			Locked:           true,
			ForcedFormat:     "mp4",
			ForcedResolution: "best",
			ForcedQuality:    192,
		}
	default:
		return Profile{Tag: tag}
	}
}
