package tui

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"udctl/internal/prefs"
)

// filterHistory narrows entries to those fuzzy-matching the query against the
// filename or path. An empty query keeps everything.
func filterHistory(entries []prefs.HistoryEntry, query string) []prefs.HistoryEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	out := make([]prefs.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if fuzzy.MatchNormalizedFold(query, e.Filename) || fuzzy.MatchNormalizedFold(query, e.Path) {
			out = append(out, e)
		}
	}
	return out
}
