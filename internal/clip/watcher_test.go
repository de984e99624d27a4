package clip

import (
	"fmt"
	"testing"
)

type stubReader struct {
	text string
	err  error
	n    int
}

func (s *stubReader) Read() (string, error) {
	s.n++
	return s.text, s.err
}

func TestObserveSurfacesFirstAllowedLink(t *testing.T) {
	w := NewWatcher(nil, nil, nil, nil)
	link, ok := w.Observe("watch https://example.com/x and https://youtu.be/abc", "")
	if !ok || link != "https://youtu.be/abc" {
		t.Fatalf("got (%q,%v)", link, ok)
	}
	snap := w.Snapshot()
	if snap.LastExtractedLink != "https://youtu.be/abc" {
		t.Fatalf("snapshot=%+v", snap)
	}
}

func TestObserveNeverSurfacesSameLinkTwice(t *testing.T) {
	w := NewWatcher(nil, nil, nil, nil)
	if _, ok := w.Observe("https://youtu.be/abc", ""); !ok {
		t.Fatalf("first observation should surface")
	}
	// Unchanged raw text across many ticks: no re-scan, no re-surface.
	for i := 0; i < 5; i++ {
		if _, ok := w.Observe("https://youtu.be/abc", ""); ok {
			t.Fatalf("tick %d re-surfaced an unchanged link", i)
		}
	}
	// New text with the same link: still deduplicated.
	if _, ok := w.Observe("again https://youtu.be/abc", ""); ok {
		t.Fatalf("same link in new text must not re-surface")
	}
}

func TestObserveNeverClobbersField(t *testing.T) {
	w := NewWatcher(nil, nil, nil, nil)
	// The field already holds the link the watcher would surface.
	if _, ok := w.Observe("https://youtu.be/abc", "https://youtu.be/abc"); ok {
		t.Fatalf("must not overwrite a field already holding the link")
	}
	// A different link is fine.
	link, ok := w.Observe("https://youtu.be/def", "https://youtu.be/abc")
	if !ok || link != "https://youtu.be/def" {
		t.Fatalf("got (%q,%v)", link, ok)
	}
}

func TestObserveRemembersLinklessText(t *testing.T) {
	w := NewWatcher(nil, nil, nil, nil)
	if _, ok := w.Observe("just some prose", ""); ok {
		t.Fatalf("no link expected")
	}
	if w.Snapshot().RawText != "just some prose" {
		t.Fatalf("raw text not remembered")
	}
	if w.Snapshot().LastExtractedLink != "" {
		t.Fatalf("link field must stay untouched")
	}
}

func TestObserveIgnoresEmptyAndWhitespace(t *testing.T) {
	w := NewWatcher(nil, nil, nil, nil)
	if _, ok := w.Observe("   \n\t ", ""); ok {
		t.Fatalf("whitespace must be a no-op")
	}
	if w.Snapshot().RawText != "" {
		t.Fatalf("whitespace must not be remembered as an observation")
	}
}

func TestObserveDisallowedHost(t *testing.T) {
	w := NewWatcher(nil, nil, nil, nil)
	if _, ok := w.Observe("https://example.com/clip", ""); ok {
		t.Fatalf("disallowed host must not surface")
	}
}

func TestObserveExtraHosts(t *testing.T) {
	w := NewWatcher(nil, []string{"example.com"}, nil, nil)
	link, ok := w.Observe("https://example.com/clip", "")
	if !ok || link != "https://example.com/clip" {
		t.Fatalf("extra host not honored: (%q,%v)", link, ok)
	}
}

func TestTickFailureStreak(t *testing.T) {
	r := &stubReader{err: fmt.Errorf("denied")}
	w := NewWatcher(r, nil, nil, nil)
	for i := 0; i < 4; i++ {
		if _, ok := w.Tick(""); ok {
			t.Fatalf("failing reads must not surface links")
		}
	}
	if w.failStreak != 4 {
		t.Fatalf("failStreak=%d want 4", w.failStreak)
	}
	// Recovery resets the streak and surfaces the link.
	r.err = nil
	r.text = "https://youtu.be/abc"
	link, ok := w.Tick("")
	if !ok || link != "https://youtu.be/abc" {
		t.Fatalf("recovered tick got (%q,%v)", link, ok)
	}
	if w.failStreak != 0 {
		t.Fatalf("failStreak not reset: %d", w.failStreak)
	}
}

func TestChainFallsBack(t *testing.T) {
	broken := &stubReader{err: fmt.Errorf("nope")}
	working := &stubReader{text: "hello"}
	got, err := Chain{broken, working}.Read()
	if err != nil || got != "hello" {
		t.Fatalf("Chain.Read=(%q,%v)", got, err)
	}
	if broken.n != 1 || working.n != 1 {
		t.Fatalf("readers called %d/%d times", broken.n, working.n)
	}
}
