package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"udctl/internal/clip"
	"udctl/internal/config"
	"udctl/internal/controller"
	"udctl/internal/jobs"
)

func newTestTUI(t *testing.T) (*TUIModel, *TUIController) {
	t.Helper()
	cfg := config.Default()
	store := jobs.NewStore()
	ctrl := controller.New(cfg, store, nil, nil, nil)
	m := NewTUIModel(cfg, store, ctrl, nil, nil, nil)
	c := NewTUIController(m, NewTUIView())
	return m, c
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestViewSwitching(t *testing.T) {
	_, c := newTestTUI(t)
	if c.activeView != viewDownloader {
		t.Fatalf("initial view %q", c.activeView)
	}
	// The URL input starts focused, so "2" is typing, not a view switch.
	c.Update(key("2"))
	if c.activeView != viewDownloader {
		t.Fatalf("focused '2' switched view")
	}
	c.urlInput.SetValue("")
	c.Update(key("esc"))
	if c.inputFocused() {
		t.Fatalf("esc did not blur the input")
	}
	c.Update(key("2"))
	if c.activeView != viewCompressor {
		t.Fatalf("view %q after '2'", c.activeView)
	}
	c.Update(key("tab"))
	if c.activeView != viewDownloader {
		t.Fatalf("view %q after tab", c.activeView)
	}
	c.Update(key("1"))
	if c.activeView != viewDownloader {
		t.Fatalf("view %q after '1'", c.activeView)
	}
}

func TestOptionCycling(t *testing.T) {
	m, c := newTestTUI(t)
	c.urlInput.Blur()

	if m.format != "mp4" || m.qualityKbps != 320 || m.resolution != "best" {
		t.Fatalf("defaults: %s/%s/%d", m.format, m.resolution, m.qualityKbps)
	}
	c.Update(key("f"))
	if m.format != "mp3" {
		t.Fatalf("format %q after cycle", m.format)
	}
	c.Update(key("b"))
	if m.qualityKbps != 128 {
		t.Fatalf("quality %d after cycle from 320", m.qualityKbps)
	}
	c.Update(key("v"))
	if m.resolution != "2160p" {
		t.Fatalf("resolution %q after cycle", m.resolution)
	}
}

func TestCompressorOptionKeys(t *testing.T) {
	m, c := newTestTUI(t)
	c.urlInput.Blur()
	c.Update(key("2"))

	c.Update(key("+"))
	if m.compressPercent != 45 {
		t.Fatalf("percent %d after +", m.compressPercent)
	}
	c.Update(key("-"))
	c.Update(key("-"))
	if m.compressPercent != 35 {
		t.Fatalf("percent %d after --", m.compressPercent)
	}
	for i := 0; i < 30; i++ {
		c.Update(key("+"))
	}
	if m.compressPercent != 99 {
		t.Fatalf("percent %d not clamped", m.compressPercent)
	}
	c.Update(key("e"))
	if m.engine != "gpu" {
		t.Fatalf("engine %q after cycle", m.engine)
	}
}

func TestDiscordModeFitsOptions(t *testing.T) {
	m, c := newTestTUI(t)
	c.urlInput.Blur()
	c.Update(key("2"))

	// 100 MB source against the 9 MiB budget.
	path := filepath.Join(t.TempDir(), "big.mp4")
	if err := os.WriteFile(path, make([]byte, 1024), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m.SetCompressFile(path)
	m.sourceSize = 100_000_000

	c.Update(key("d"))
	if !m.discordMode {
		t.Fatalf("discord mode not enabled")
	}
	if m.compressResolution != "auto" || m.compressPercent != 91 {
		t.Fatalf("fit picked %s at %d%%", m.compressResolution, m.compressPercent)
	}
	if !m.FitsDiscord() {
		t.Fatalf("fitted options do not fit the budget")
	}
}

func TestInstagramSummaryStaleDiscard(t *testing.T) {
	m, _ := newTestTUI(t)
	m.SetActiveLink("https://www.instagram.com/p/first/")
	m.SetActiveLink("https://www.instagram.com/p/second/")

	if m.ApplyInstagramSummary("https://www.instagram.com/p/first/", controller.InstagramSummary{}) {
		t.Fatalf("stale summary applied")
	}
	if !m.ApplyInstagramSummary("https://www.instagram.com/p/second/", controller.InstagramSummary{IsCarousel: true}) {
		t.Fatalf("current summary rejected")
	}
	if m.insta == nil || !m.insta.IsCarousel {
		t.Fatalf("summary not recorded")
	}
}

func TestActiveLinkResetsSummary(t *testing.T) {
	m, _ := newTestTUI(t)
	m.SetActiveLink("https://www.instagram.com/p/first/")
	m.ApplyInstagramSummary("https://www.instagram.com/p/first/", controller.InstagramSummary{})
	m.SetActiveLink("https://www.instagram.com/p/other/")
	if m.insta != nil {
		t.Fatalf("summary survived a link change")
	}
}

func TestCompletionNotice(t *testing.T) {
	m, _ := newTestTUI(t)
	store := m.store

	store.Begin(jobs.Download)
	store.MarkRunning(jobs.Download, "Downloading...")
	m.CheckCompletions()
	if m.Notice() != "" {
		t.Fatalf("notice before completion: %q", m.Notice())
	}

	store.ApplyDownloadFrame(mustFrame(t, `{"saved_path": "/dl/clip.mp4"}`))
	store.Complete(jobs.Download)
	m.CheckCompletions()
	if m.Notice() != "Finished: clip.mp4" {
		t.Fatalf("notice %q", m.Notice())
	}

	// A second scan in the same done phase is not a new completion.
	m.notice = ""
	m.CheckCompletions()
	if m.Notice() != "" {
		t.Fatalf("completion recorded twice")
	}
}

func TestClearJobOnlyWhenTerminal(t *testing.T) {
	m, c := newTestTUI(t)
	c.urlInput.Blur()

	m.store.Begin(jobs.Download)
	m.store.MarkRunning(jobs.Download, "Downloading...")
	c.Update(key("c"))
	if st := m.store.Snapshot(jobs.Download); st.Phase != jobs.Running {
		t.Fatalf("running job cleared")
	}

	m.store.Fail(jobs.Download, "boom")
	c.Update(key("c"))
	if st := m.store.Snapshot(jobs.Download); st.Phase != jobs.Idle {
		t.Fatalf("errored job not cleared: %v", st.Phase)
	}
}

func mustFrame(t *testing.T, raw string) jobs.Frame {
	t.Helper()
	f, err := jobs.ParseFrame([]byte(raw))
	if err != nil {
		t.Fatalf("parse frame: %v", err)
	}
	return f
}

type scriptedReader struct {
	text string
}

func (s *scriptedReader) Read() (string, error) { return s.text, nil }

func newClipTUI(t *testing.T, text string) (*TUIModel, *TUIController) {
	t.Helper()
	cfg := config.Default()
	store := jobs.NewStore()
	ctrl := controller.New(cfg, store, nil, nil, nil)
	w := clip.NewWatcher(&scriptedReader{text: text}, nil, nil, nil)
	m := NewTUIModel(cfg, store, ctrl, w, nil, nil)
	c := NewTUIController(m, NewTUIView())
	return m, c
}

func TestClipTickSurfacesLinkAtStartup(t *testing.T) {
	// The URL input is focused from construction; the watcher must still
	// surface a fresh clipboard link into the empty field.
	m, c := newClipTUI(t, "https://youtu.be/abc")
	if !c.inputFocused() {
		t.Fatalf("url input not focused at startup")
	}
	c.Update(clipTickMsg(time.Now()))
	if got := c.urlInput.Value(); got != "https://youtu.be/abc" {
		t.Fatalf("link not surfaced: field=%q", got)
	}
	if m.activeLink != "https://youtu.be/abc" {
		t.Fatalf("active link %q", m.activeLink)
	}
}

func TestClipTickPausesWhileTerminalBlurred(t *testing.T) {
	m, c := newClipTUI(t, "https://youtu.be/abc")

	c.Update(tea.BlurMsg{})
	c.Update(clipTickMsg(time.Now()))
	if got := c.urlInput.Value(); got != "" {
		t.Fatalf("blurred terminal still polled: field=%q", got)
	}

	c.Update(tea.FocusMsg{})
	c.Update(clipTickMsg(time.Now()))
	if got := c.urlInput.Value(); got != "https://youtu.be/abc" {
		t.Fatalf("refocused terminal did not poll: field=%q", got)
	}
	if m.activeLink != "https://youtu.be/abc" {
		t.Fatalf("active link %q", m.activeLink)
	}
}

func TestClipTickIgnoredOnCompressorView(t *testing.T) {
	_, c := newClipTUI(t, "https://youtu.be/abc")
	c.urlInput.Blur()
	c.Update(key("2"))
	if c.activeView != viewCompressor {
		t.Fatalf("view %q", c.activeView)
	}
	c.Update(clipTickMsg(time.Now()))
	if got := c.urlInput.Value(); got != "" {
		t.Fatalf("compressor view polled clipboard: field=%q", got)
	}
}
