package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"udctl/internal/config"
)

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	m.IncFrames()
	m.IncReconnects()
	if err := m.Write(); err != nil {
		t.Fatalf("nil manager Write: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Metrics.PrometheusTextfile.Enabled = true
	cfg.Metrics.PrometheusTextfile.Path = filepath.Join(dir, "udctl.prom")

	m := New(cfg)
	if m == nil {
		t.Fatalf("expected enabled manager")
	}
	m.IncFrames()
	m.IncFrames()
	m.IncMalformed()
	m.IncDownloadsDone()
	if err := m.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b, err := os.ReadFile(cfg.Metrics.PrometheusTextfile.Path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(b)
	for _, want := range []string{
		"udctl_frames_total 2",
		"udctl_malformed_frames_total 1",
		"udctl_downloads_done_total 1",
		"udctl_reconnects_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDisabledReturnsNil(t *testing.T) {
	if m := New(config.Default()); m != nil {
		t.Fatalf("metrics disabled by default; expected nil manager")
	}
}
