package tui

import (
	"os"
	"strconv"
	"time"

	"udctl/internal/clip"
	"udctl/internal/config"
	"udctl/internal/controller"
	"udctl/internal/errors"
	"udctl/internal/estimate"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/prefs"
	"udctl/internal/provider"
)

// downloadFormats and downloadResolutions are the cycling orders for the
// option rows in the downloader view.
var (
	downloadFormats     = []string{"mp4", "mp3"}
	downloadResolutions = []string{"best", "2160p", "1440p", "1080p", "720p", "480p"}
	qualitySteps        = []int{128, 192, 256, 320}
	engineModes         = []string{"cpu", "gpu", "auto"}
)

// TUIModel holds the client-side state behind the interactive views: resolved
// options, the active link and its provider profile, and the transient notice
// line. Job state itself lives in the shared store; this layer only snapshots
// it.
type TUIModel struct {
	cfg     *config.Config
	store   *jobs.Store
	ctrl    *controller.Controller
	watcher *clip.Watcher
	prefs   *prefs.Store
	log     *logging.Logger

	format             string
	resolution         string
	qualityKbps        int
	compressPercent    int
	compressResolution string
	engine             string
	discordMode        bool

	activeLink string
	profile    provider.Profile
	insta      *controller.InstagramSummary

	compressFile string
	sourceSize   int64

	prevPhase [2]jobs.Phase
	notice    string
	noticeAt  time.Time
}

func NewTUIModel(cfg *config.Config, store *jobs.Store, ctrl *controller.Controller, watcher *clip.Watcher, ps *prefs.Store, log *logging.Logger) *TUIModel {
	m := &TUIModel{
		cfg:     cfg,
		store:   store,
		ctrl:    ctrl,
		watcher: watcher,
		prefs:   ps,
		log:     log,
	}
	m.loadOptions()
	return m
}

func (m *TUIModel) loadOptions() {
	m.format = m.prefGet(prefs.KeyFormat)
	m.resolution = m.prefGet(prefs.KeyResolution)
	m.qualityKbps = m.prefGetInt(prefs.KeyQualityKbps)
	m.compressPercent = m.prefGetInt(prefs.KeyCompressionPercent)
	m.compressResolution = m.prefGet(prefs.KeyCompressionResolution)
	m.engine = m.prefGet(prefs.KeyCompressionEngine)
}

func (m *TUIModel) prefGet(key string) string {
	if m.prefs == nil {
		return prefs.Default(key)
	}
	return m.prefs.Get(key)
}

func (m *TUIModel) prefGetInt(key string) int {
	if m.prefs == nil {
		n, _ := strconv.Atoi(prefs.Default(key))
		return n
	}
	return m.prefs.GetInt(key)
}

func (m *TUIModel) prefSet(key, value string) {
	if m.prefs == nil {
		return
	}
	if err := m.prefs.Set(key, value); err != nil {
		m.log.Warnf("saving %s: %v", key, err)
	}
}

func (m *TUIModel) prefSetInt(key string, value int) {
	m.prefSet(key, strconv.Itoa(value))
}

// SetActiveLink records the link the downloader view is working with and
// recomputes the provider profile. Any Instagram summary belongs to the old
// link and is discarded.
func (m *TUIModel) SetActiveLink(link string) {
	if link == m.activeLink {
		return
	}
	m.activeLink = link
	m.profile = provider.ProfileFor(provider.Classify(link))
	m.insta = nil
}

// ApplyInstagramSummary attaches an inspect result, unless the active link
// moved on while the request was in flight.
func (m *TUIModel) ApplyInstagramSummary(link string, sum controller.InstagramSummary) bool {
	if link != m.activeLink {
		return false
	}
	m.insta = &sum
	return true
}

// SetCompressFile records the picked file and stats it for the estimator.
func (m *TUIModel) SetCompressFile(path string) {
	m.compressFile = path
	m.sourceSize = 0
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		m.sourceSize = info.Size()
	}
}

// EstimateBytes predicts the output size for the current compressor options.
func (m *TUIModel) EstimateBytes() int64 {
	if m.sourceSize <= 0 {
		return 0
	}
	return estimate.Estimate(m.sourceSize, m.compressResolution, m.compressPercent)
}

// FitsDiscord reports whether the current estimate fits the Discord budget.
func (m *TUIModel) FitsDiscord() bool {
	return estimate.WithinTarget(m.EstimateBytes(), estimate.DiscordTargetBytes)
}

// FitDiscord switches the compressor options to the best fit for the Discord
// budget and persists them.
func (m *TUIModel) FitDiscord() {
	if m.sourceSize <= 0 {
		return
	}
	res, pct := estimate.FitTarget(m.sourceSize, estimate.DiscordTargetBytes)
	m.compressResolution = res
	m.compressPercent = pct
	m.prefSet(prefs.KeyCompressionResolution, res)
	m.prefSetInt(prefs.KeyCompressionPercent, pct)
}

func (m *TUIModel) CycleFormat() {
	m.format = cycle(downloadFormats, m.format)
	m.prefSet(prefs.KeyFormat, m.format)
}

func (m *TUIModel) CycleResolution() {
	m.resolution = cycle(downloadResolutions, m.resolution)
	m.prefSet(prefs.KeyResolution, m.resolution)
}

func (m *TUIModel) CycleQuality() {
	m.qualityKbps = cycleInt(qualitySteps, m.qualityKbps)
	m.prefSetInt(prefs.KeyQualityKbps, m.qualityKbps)
}

func (m *TUIModel) CycleEngine() {
	m.engine = cycle(engineModes, m.engine)
	m.prefSet(prefs.KeyCompressionEngine, m.engine)
}

func (m *TUIModel) CycleCompressResolution() {
	m.compressResolution = cycle(estimate.Resolutions(), m.compressResolution)
	m.prefSet(prefs.KeyCompressionResolution, m.compressResolution)
}

// AdjustPercent nudges the reduction percent, clamped into the valid range.
func (m *TUIModel) AdjustPercent(delta int) {
	m.compressPercent = estimate.ClampPercent(m.compressPercent + delta)
	m.prefSetInt(prefs.KeyCompressionPercent, m.compressPercent)
}

func (m *TUIModel) ToggleDiscordMode() {
	m.discordMode = !m.discordMode
	if m.discordMode {
		m.FitDiscord()
	}
}

// DownloadOptions resolves the current option rows into a start request.
func (m *TUIModel) DownloadOptions() controller.DownloadOptions {
	return controller.DownloadOptions{
		Format:      m.format,
		Resolution:  m.resolution,
		QualityKbps: m.qualityKbps,
	}
}

func (m *TUIModel) CompressOptions() controller.CompressOptions {
	return controller.CompressOptions{
		Percent:      m.compressPercent,
		Resolution:   m.compressResolution,
		DiscordMode:  m.discordMode,
		HardwareMode: m.engine,
	}
}

// CheckCompletions scans both slices for a transition into done, records it,
// and raises a notice. Called from the refresh tick so detection does not
// depend on bubbletea seeing every store change.
func (m *TUIModel) CheckCompletions() {
	for _, kind := range []jobs.Kind{jobs.Download, jobs.Compression} {
		st := m.store.Snapshot(kind)
		if st.Phase == jobs.Done && m.prevPhase[kind] != jobs.Done {
			m.ctrl.RecordCompletion(kind, st)
			name := ""
			if st.Result != nil {
				name = st.Result.Filename
				if name == "" {
					name = st.Result.Path
				}
			}
			if name != "" {
				m.Notify("Finished: " + name)
			} else {
				m.Notify("Finished")
			}
		}
		m.prevPhase[kind] = st.Phase
	}
}

// Notify sets the transient notice line.
func (m *TUIModel) Notify(text string) {
	m.notice = text
	m.noticeAt = time.Now()
}

// NotifyError turns an error into a notice; silent errors (nil) are skipped.
func (m *TUIModel) NotifyError(err error) {
	if err == nil {
		return
	}
	if fe, ok := err.(*errors.UserFriendlyError); ok {
		m.Notify(fe.Message)
		return
	}
	m.Notify(err.Error())
}

// Notice returns the current notice, or "" once it has aged out.
func (m *TUIModel) Notice() string {
	if m.notice == "" || time.Since(m.noticeAt) > 6*time.Second {
		return ""
	}
	return m.notice
}

// RevealTarget picks the path to reveal for a finished job, newest kind first.
func (m *TUIModel) RevealTarget() string {
	for _, kind := range []jobs.Kind{jobs.Compression, jobs.Download} {
		st := m.store.Snapshot(kind)
		if st.Phase == jobs.Done && st.Result != nil && st.Result.Path != "" {
			return st.Result.Path
		}
	}
	return ""
}

func cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func cycleInt(values []int, current int) int {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}
