package prefs

import (
	"testing"

	"udctl/internal/config"
)

func open(t *testing.T, root string) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.General.DataRoot = root
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestDefaultsOnFreshStore(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()

	if got := s.Get(KeyResolution); got != "best" {
		t.Fatalf("resolution default=%q want best", got)
	}
	if got := s.GetInt(KeyQualityKbps); got != 320 {
		t.Fatalf("quality default=%d want 320 (highest tier)", got)
	}
	if got := s.GetInt(KeyCompressionPercent); got != 40 {
		t.Fatalf("compression percent default=%d want 40", got)
	}
	if got := s.Get(KeyCompressionEngine); got != "cpu" {
		t.Fatalf("engine default=%q want cpu", got)
	}
}

func TestSetPersistsAcrossReopen(t *testing.T) {
	root := t.TempDir()
	s := open(t, root)
	if err := s.Set(KeyFormat, "mp3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.SetInt(KeyQualityKbps, 128); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	s.Close()

	s2 := open(t, root)
	defer s2.Close()
	if got := s2.Get(KeyFormat); got != "mp3" {
		t.Fatalf("format=%q want mp3", got)
	}
	if got := s2.GetInt(KeyQualityKbps); got != 128 {
		t.Fatalf("quality=%d want 128", got)
	}
	// Untouched keys keep their defaults.
	if got := s2.Get(KeyResolution); got != "best" {
		t.Fatalf("resolution=%q want best", got)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s := open(t, t.TempDir())
	defer s.Close()

	entries := []HistoryEntry{
		{Kind: "download", Path: "/d/one.mp4", Filename: "one.mp4", Size: 1000},
		{Kind: "compression", Path: "/d/two.mp4", Filename: "two.mp4", Size: 500, Encoder: "libx264"},
	}
	for _, e := range entries {
		if err := s.AddHistory(e); err != nil {
			t.Fatalf("AddHistory: %v", err)
		}
	}
	got, err := s.ListHistory(0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d want 2", len(got))
	}
	for _, e := range got {
		if e.ID == "" {
			t.Fatalf("missing generated id: %+v", e)
		}
	}
}
