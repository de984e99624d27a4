package tui

import (
	"testing"

	"udctl/internal/prefs"
)

func TestFilterHistory(t *testing.T) {
	entries := []prefs.HistoryEntry{
		{Filename: "holiday-clip.mp4", Path: "/videos/holiday-clip.mp4"},
		{Filename: "meeting.mp4", Path: "/videos/work/meeting.mp4"},
		{Filename: "", Path: "/videos/queue"},
	}

	if got := filterHistory(entries, ""); len(got) != 3 {
		t.Fatalf("empty query kept %d entries", len(got))
	}
	if got := filterHistory(entries, "  "); len(got) != 3 {
		t.Fatalf("blank query kept %d entries", len(got))
	}

	got := filterHistory(entries, "holi")
	if len(got) != 1 || got[0].Filename != "holiday-clip.mp4" {
		t.Fatalf("holi -> %v", got)
	}

	// Fuzzy, not substring: scattered letters still match.
	got = filterHistory(entries, "mtg")
	if len(got) != 1 || got[0].Filename != "meeting.mp4" {
		t.Fatalf("mtg -> %v", got)
	}

	// Case-insensitive.
	got = filterHistory(entries, "HOLIDAY")
	if len(got) != 1 {
		t.Fatalf("HOLIDAY -> %v", got)
	}

	// Path matches count too.
	got = filterHistory(entries, "queue")
	if len(got) != 1 || got[0].Path != "/videos/queue" {
		t.Fatalf("queue -> %v", got)
	}

	if got := filterHistory(entries, "zzzz"); len(got) != 0 {
		t.Fatalf("zzzz -> %v", got)
	}
}
