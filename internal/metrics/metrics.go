package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"udctl/internal/config"
)

// Manager collects channel and controller counters and writes them in
// Prometheus textfile format. A nil Manager is valid and does nothing, so
// call sites never guard on configuration.
type Manager struct {
	path string
	mu   sync.Mutex

	framesTotal       int64
	malformedFrames   int64
	reconnectsTotal   int64
	downloadsDone     int64
	compressionsDone  int64
	clipboardLinks    int64
	commandsIssued    int64
	commandsRejected  int64
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return &Manager{path: p}
}

func (m *Manager) IncFrames() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.framesTotal++
	m.mu.Unlock()
}

func (m *Manager) IncMalformed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.malformedFrames++
	m.mu.Unlock()
}

func (m *Manager) IncReconnects() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.reconnectsTotal++
	m.mu.Unlock()
}

func (m *Manager) IncDownloadsDone() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.downloadsDone++
	m.mu.Unlock()
}

func (m *Manager) IncCompressionsDone() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.compressionsDone++
	m.mu.Unlock()
}

func (m *Manager) IncClipboardLinks() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.clipboardLinks++
	m.mu.Unlock()
}

func (m *Manager) IncCommands(rejected bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if rejected {
		m.commandsRejected++
	} else {
		m.commandsIssued++
	}
	m.mu.Unlock()
}

// Write emits the textfile atomically (temp file + rename).
func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	counters := []struct {
		name, help string
		value      int64
	}{
		{"udctl_frames_total", "Total status frames received on the job channel.", m.framesTotal},
		{"udctl_malformed_frames_total", "Total frames dropped as malformed.", m.malformedFrames},
		{"udctl_reconnects_total", "Total job channel reconnect attempts.", m.reconnectsTotal},
		{"udctl_downloads_done_total", "Total downloads completed.", m.downloadsDone},
		{"udctl_compressions_done_total", "Total compressions completed.", m.compressionsDone},
		{"udctl_clipboard_links_total", "Total links surfaced by the clipboard watcher.", m.clipboardLinks},
		{"udctl_commands_issued_total", "Total backend commands issued.", m.commandsIssued},
		{"udctl_commands_rejected_total", "Total commands rejected before backend contact.", m.commandsRejected},
	}
	for _, c := range counters {
		fmt.Fprintf(f, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(f, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(f, "%s %d\n", c.name, c.value)
	}
	fmt.Fprintf(f, "# HELP udctl_metrics_timestamp_seconds UNIX timestamp when this file was written.\n")
	fmt.Fprintf(f, "# TYPE udctl_metrics_timestamp_seconds gauge\n")
	fmt.Fprintf(f, "udctl_metrics_timestamp_seconds %d\n", time.Now().Unix())

	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), m.path)
}
