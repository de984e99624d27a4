package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"udctl/internal/jobs"
	"udctl/internal/prefs"
	"udctl/internal/provider"
	"udctl/internal/util"
)

const (
	viewDownloader = "downloader"
	viewCompressor = "compressor"
)

type TUIController struct {
	model *TUIModel
	view  *TUIView

	activeView string
	urlInput   textinput.Model
	fileInput  textinput.Model

	showHelp bool

	historyOn    bool
	historyInput textinput.Model
	historyAll   []prefs.HistoryEntry

	instaPending string

	// termFocused tracks terminal focus via bubbletea's focus reporting;
	// the clipboard poll pauses while the window is in the background.
	termFocused bool
}

func NewTUIController(model *TUIModel, view *TUIView) *TUIController {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://..."
	urlInput.Focus()

	fileInput := textinput.New()
	fileInput.Placeholder = "/path/to/video.mp4"

	historyInput := textinput.New()
	historyInput.Placeholder = "Filter history..."

	activeView := model.prefGet(prefs.KeyActiveView)
	if activeView != viewCompressor {
		activeView = viewDownloader
	}

	return &TUIController{
		model:        model,
		view:         view,
		activeView:   activeView,
		urlInput:     urlInput,
		fileInput:    fileInput,
		historyInput: historyInput,
		termFocused:  true,
	}
}

func (c *TUIController) wrapModel() tea.Model {
	return &model{tuiModel: c.model, tuiView: c.view, tuiController: c}
}

func (c *TUIController) Init() tea.Cmd {
	return tea.Batch(tickCmd(c.model.cfg), clipTickCmd(c.model.cfg))
}

func (c *TUIController) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.view.SetSize(msg.Width, msg.Height)
		return c.wrapModel(), nil

	case tea.KeyMsg:
		return c.handleKeyMsg(msg)

	case tea.FocusMsg:
		c.termFocused = true
		return c.wrapModel(), nil

	case tea.BlurMsg:
		c.termFocused = false
		return c.wrapModel(), nil

	case tickMsg:
		return c.handleTick()

	case clipTickMsg:
		return c.handleClipTick()

	case errMsg:
		c.model.NotifyError(msg.err)
		return c.wrapModel(), nil

	case startedMsg:
		return c.wrapModel(), nil

	case instaMsg:
		c.instaPending = ""
		if msg.err == nil {
			c.model.ApplyInstagramSummary(msg.link, msg.sum)
		}
		return c.wrapModel(), nil

	case historyMsg:
		if msg.err != nil {
			c.model.NotifyError(msg.err)
			return c.wrapModel(), nil
		}
		c.historyAll = msg.entries
		c.historyOn = true
		c.historyInput.SetValue("")
		c.historyInput.Focus()
		return c.wrapModel(), nil
	}

	return c.wrapModel(), nil
}

func (c *TUIController) handleTick() (tea.Model, tea.Cmd) {
	c.model.CheckCompletions()
	c.model.SetActiveLink(strings.TrimSpace(c.urlInput.Value()))

	var cmds []tea.Cmd
	cmds = append(cmds, tickCmd(c.model.cfg))
	if cmd := c.maybeInspect(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return c.wrapModel(), tea.Batch(cmds...)
}

// maybeInspect fires one inspect request per Instagram link. The response is
// discarded on arrival if the active link changed meanwhile.
func (c *TUIController) maybeInspect() tea.Cmd {
	m := c.model
	link := m.activeLink
	if link == "" || m.profile.Tag != provider.Instagram {
		return nil
	}
	if m.insta != nil || c.instaPending == link {
		return nil
	}
	c.instaPending = link
	return func() tea.Msg {
		sum, err := m.ctrl.InspectInstagram(context.Background(), link)
		return instaMsg{link: link, sum: sum, err: err}
	}
}

func (c *TUIController) handleClipTick() (tea.Model, tea.Cmd) {
	// The watcher only feeds the downloader view, and only while the
	// terminal itself has focus. The watcher's own dedup (last surfaced
	// link plus the current field value) keeps it from clobbering input,
	// so the field being focused is no reason to skip the poll.
	if c.activeView == viewDownloader && c.termFocused && c.model.watcher != nil {
		if link, ok := c.model.watcher.Tick(strings.TrimSpace(c.urlInput.Value())); ok {
			c.urlInput.SetValue(link)
			c.model.SetActiveLink(link)
		}
	}
	return c.wrapModel(), clipTickCmd(c.model.cfg)
}

func (c *TUIController) activeInput() *textinput.Model {
	if c.activeView == viewCompressor {
		return &c.fileInput
	}
	return &c.urlInput
}

func (c *TUIController) inputFocused() bool {
	return c.activeInput().Focused()
}

func (c *TUIController) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if c.historyOn {
		return c.handleHistoryKeys(msg)
	}
	if c.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			c.showHelp = false
		}
		return c.wrapModel(), nil
	}

	switch resolveKey(msg.String(), c.inputFocused()) {
	case actionQuit:
		return c.wrapModel(), tea.Quit

	case actionStart:
		return c.startActive()

	case actionCancel:
		return c.wrapModel(), c.cancelCmd()

	case actionPasteFocus:
		c.pasteAndFocus()

	case actionFocusInput:
		c.activeInput().Focus()

	case actionClearInput:
		c.clearInput()

	case actionBlurInput:
		c.activeInput().Blur()

	case actionViewDownloader:
		c.switchView(viewDownloader)

	case actionViewCompressor:
		c.switchView(viewCompressor)

	case actionToggleView:
		if c.activeView == viewDownloader {
			c.switchView(viewCompressor)
		} else {
			c.switchView(viewDownloader)
		}

	case actionClearJob:
		c.clearJob()

	case actionHistory:
		return c.wrapModel(), c.loadHistoryCmd()

	case actionReveal:
		if path := c.model.RevealTarget(); path != "" {
			return c.wrapModel(), c.revealCmd(path)
		}
		c.model.Notify("Nothing to reveal yet")

	case actionHelp:
		c.showHelp = true

	case actionNone:
		return c.handleOptionOrTyping(msg)
	}

	return c.wrapModel(), nil
}

// handleOptionOrTyping routes unresolved keys: typed into the focused input,
// or treated as option cycling when nothing has focus.
func (c *TUIController) handleOptionOrTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if c.inputFocused() {
		var cmd tea.Cmd
		in := c.activeInput()
		*in, cmd = in.Update(msg)
		if c.activeView == viewDownloader {
			c.model.SetActiveLink(strings.TrimSpace(c.urlInput.Value()))
		} else {
			c.model.SetCompressFile(strings.TrimSpace(c.fileInput.Value()))
		}
		return c.wrapModel(), cmd
	}

	m := c.model
	if c.activeView == viewDownloader {
		switch msg.String() {
		case "f":
			m.CycleFormat()
		case "v":
			m.CycleResolution()
		case "b":
			m.CycleQuality()
		}
		return c.wrapModel(), nil
	}

	switch msg.String() {
	case "+", "=":
		m.AdjustPercent(5)
	case "-":
		m.AdjustPercent(-5)
	case "v":
		m.CycleCompressResolution()
	case "e":
		m.CycleEngine()
	case "d":
		m.ToggleDiscordMode()
	}
	return c.wrapModel(), nil
}

func (c *TUIController) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		c.historyOn = false
		c.historyInput.Blur()
		return c.wrapModel(), nil
	}
	var cmd tea.Cmd
	c.historyInput, cmd = c.historyInput.Update(msg)
	return c.wrapModel(), cmd
}

func (c *TUIController) switchView(view string) {
	if c.activeView == view {
		return
	}
	c.activeView = view
	c.model.prefSet(prefs.KeyActiveView, view)
}

func (c *TUIController) clearInput() {
	c.activeInput().SetValue("")
	if c.activeView == viewDownloader {
		c.model.SetActiveLink("")
	} else {
		c.model.SetCompressFile("")
	}
}

// pasteAndFocus reads the clipboard immediately and drops the result into the
// active field, then focuses it. Used when focus is elsewhere; native paste
// handles the focused case.
func (c *TUIController) pasteAndFocus() {
	if c.model.watcher == nil {
		return
	}
	raw, err := c.model.watcher.ReadNow()
	if err != nil {
		c.model.Notify("Clipboard unavailable")
		return
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	if c.activeView == viewDownloader {
		if link := util.FirstAllowedLink(raw, util.AllowHosts(c.model.cfg.Watcher.ExtraHosts)); link != "" {
			raw = link
		}
		c.urlInput.SetValue(raw)
		c.model.SetActiveLink(raw)
	} else {
		c.fileInput.SetValue(raw)
		c.model.SetCompressFile(raw)
	}
	c.activeInput().Focus()
}

func (c *TUIController) clearJob() {
	kind := jobs.Download
	if c.activeView == viewCompressor {
		kind = jobs.Compression
	}
	if st := c.model.store.Snapshot(kind); st.Phase.Terminal() && st.Phase != jobs.Idle {
		c.model.store.Clear(kind)
	}
}

func (c *TUIController) startActive() (tea.Model, tea.Cmd) {
	if c.activeView == viewCompressor {
		path := strings.TrimSpace(c.fileInput.Value())
		c.model.SetCompressFile(path)
		return c.wrapModel(), c.compressCmd(path)
	}

	links := strings.Fields(c.urlInput.Value())
	if len(links) > 1 {
		return c.wrapModel(), c.startBatchCmd(links)
	}
	link := ""
	if len(links) == 1 {
		link = links[0]
	}
	return c.wrapModel(), c.startDownloadCmd(link)
}

func (c *TUIController) startDownloadCmd(link string) tea.Cmd {
	m := c.model
	opts := m.DownloadOptions()
	return func() tea.Msg {
		if err := m.ctrl.StartDownload(context.Background(), link, opts); err != nil {
			return errMsg{err}
		}
		return startedMsg{jobs.Download}
	}
}

func (c *TUIController) startBatchCmd(links []string) tea.Cmd {
	m := c.model
	opts := m.DownloadOptions()
	return func() tea.Msg {
		if err := m.ctrl.StartBatch(context.Background(), links, opts); err != nil {
			return errMsg{err}
		}
		return startedMsg{jobs.Download}
	}
}

func (c *TUIController) compressCmd(path string) tea.Cmd {
	m := c.model
	opts := m.CompressOptions()
	return func() tea.Msg {
		if err := m.ctrl.Compress(context.Background(), path, opts); err != nil {
			return errMsg{err}
		}
		return startedMsg{jobs.Compression}
	}
}

func (c *TUIController) cancelCmd() tea.Cmd {
	m := c.model
	return func() tea.Msg {
		if err := m.ctrl.Cancel(context.Background()); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (c *TUIController) revealCmd(path string) tea.Cmd {
	m := c.model
	return func() tea.Msg {
		if err := m.ctrl.Reveal(context.Background(), path); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (c *TUIController) loadHistoryCmd() tea.Cmd {
	m := c.model
	if m.prefs == nil {
		m.Notify("History unavailable")
		return nil
	}
	return func() tea.Msg {
		entries, err := m.prefs.ListHistory(200)
		return historyMsg{entries: entries, err: err}
	}
}
