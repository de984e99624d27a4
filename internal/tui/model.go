package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"udctl/internal/clip"
	"udctl/internal/config"
	"udctl/internal/controller"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/prefs"
)

type model struct {
	tuiModel      *TUIModel
	tuiView       *TUIView
	tuiController *TUIController
}

type tickMsg time.Time

type clipTickMsg time.Time

type errMsg struct{ err error }

type startedMsg struct{ kind jobs.Kind }

type instaMsg struct {
	link string
	sum  controller.InstagramSummary
	err  error
}

type historyMsg struct {
	entries []prefs.HistoryEntry
	err     error
}

// New assembles the interactive client: data layer, renderer, and key
// handling, wired over the shared job store and the backend controller.
func New(cfg *config.Config, store *jobs.Store, ctrl *controller.Controller, watcher *clip.Watcher, ps *prefs.Store, log *logging.Logger) tea.Model {
	tuiModel := NewTUIModel(cfg, store, ctrl, watcher, ps, log)
	tuiView := NewTUIView()
	tuiController := NewTUIController(tuiModel, tuiView)
	return &model{
		tuiModel:      tuiModel,
		tuiView:       tuiView,
		tuiController: tuiController,
	}
}

func (m *model) Init() tea.Cmd {
	return m.tuiController.Init()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.tuiController.Update(msg)
}

func (m *model) View() string {
	return m.tuiView.View(m.tuiModel, m.tuiController)
}

// tickCmd drives the render refresh; the store is polled on every tick.
func tickCmd(cfg *config.Config) tea.Cmd {
	hz := cfg.UI.RefreshHz
	if hz <= 0 {
		hz = 1
	}
	if hz > 10 {
		hz = 10
	}
	d := time.Second / time.Duration(hz)
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// clipTickCmd drives the clipboard poll at its own slower cadence.
func clipTickCmd(cfg *config.Config) tea.Cmd {
	return tea.Tick(cfg.PollInterval(), func(t time.Time) tea.Msg { return clipTickMsg(t) })
}
