package clip

import (
	"strings"

	"udctl/internal/logging"
	"udctl/internal/metrics"
	"udctl/internal/util"
)

// Snapshot is the watcher's observed state. Owned exclusively by the watcher;
// the rest of the system only reads it.
type Snapshot struct {
	RawText           string
	LastExtractedLink string
}

// Watcher opportunistically lifts video links off the clipboard. It is a
// best-effort convenience: read failures never surface to the user, and a
// failure streak produces exactly one log line.
type Watcher struct {
	reader  Reader
	allow   []string
	log     *logging.Logger
	metrics *metrics.Manager

	snap       Snapshot
	failStreak int
}

func NewWatcher(reader Reader, extraHosts []string, log *logging.Logger, m *metrics.Manager) *Watcher {
	return &Watcher{
		reader:  reader,
		allow:   util.AllowHosts(extraHosts),
		log:     log,
		metrics: m,
	}
}

// Snapshot returns the current observed state.
func (w *Watcher) Snapshot() Snapshot { return w.snap }

// Tick performs one poll. currentField is the link currently occupying the
// input field; the watcher never overwrites a field already holding the link
// it would surface. Returns the new link and true only when a novel
// observation yields one. Callers gate Tick on view/focus conditions.
func (w *Watcher) Tick(currentField string) (string, bool) {
	raw, err := w.reader.Read()
	if err != nil {
		if w.failStreak == 0 && w.log != nil {
			w.log.Warnf("clipboard read failed: %v", err)
		}
		w.failStreak++
		return "", false
	}
	w.failStreak = 0
	return w.Observe(raw, currentField)
}

// ReadNow performs an immediate clipboard read for an explicit paste chord,
// bypassing the poll dedup entirely.
func (w *Watcher) ReadNow() (string, error) {
	return w.reader.Read()
}

// Observe folds one clipboard reading into the snapshot. Split from Tick so
// the dedup rules are testable without a Reader.
func (w *Watcher) Observe(raw, currentField string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == w.snap.RawText {
		return "", false
	}
	// Remember the text even when it carries no usable link, so the next
	// identical reading is skipped without a scan.
	w.snap.RawText = raw

	link := util.FirstAllowedLink(raw, w.allow)
	if link == "" {
		return "", false
	}
	if link == w.snap.LastExtractedLink || link == currentField {
		return "", false
	}
	w.snap.LastExtractedLink = link
	w.metrics.IncClipboardLinks()
	if w.log != nil {
		w.log.Debugf("clipboard link: %s", logging.SanitizeURL(link))
	}
	return link, true
}
