package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"udctl/internal/estimate"
	"udctl/internal/jobs"
	"udctl/internal/provider"
)

type TUIView struct {
	styles uiStyles
	prog   progress.Model
	width  int
	height int
}

type uiStyles struct {
	header lipgloss.Style
	tabOn  lipgloss.Style
	tabOff lipgloss.Style
	label  lipgloss.Style
	notice lipgloss.Style
	dim    lipgloss.Style
	bad    lipgloss.Style
	good   lipgloss.Style
}

func NewTUIView() *TUIView {
	return &TUIView{
		styles: uiStyles{
			header: lipgloss.NewStyle().Bold(true),
			tabOn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
			tabOff: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			label:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			notice: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			good:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		},
		prog: progress.New(progress.WithDefaultGradient()),
	}
}

func (v *TUIView) SetSize(width, height int) {
	v.width = width
	v.height = height
	if width > 20 {
		v.prog.Width = width - 10
	}
}

func (v *TUIView) View(model *TUIModel, controller *TUIController) string {
	if v.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(v.renderTabs(controller.activeView))
	b.WriteString("\n\n")

	if controller.showHelp {
		b.WriteString(v.helpView())
		return b.String()
	}
	if controller.historyOn {
		b.WriteString(v.renderHistory(controller))
		return b.String()
	}

	if controller.activeView == viewCompressor {
		b.WriteString(v.renderCompressor(model, controller))
	} else {
		b.WriteString(v.renderDownloader(model, controller))
	}

	if notice := model.Notice(); notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.notice.Render(notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.dim.Render("enter start • x cancel • c clear • h history • o reveal • tab switch • ? help • q quit"))
	return b.String()
}

func (v *TUIView) renderTabs(active string) string {
	down := v.styles.tabOff.Render("[1] Downloader")
	comp := v.styles.tabOff.Render("[2] Compressor")
	if active == viewCompressor {
		comp = v.styles.tabOn.Render("[2] Compressor")
	} else {
		down = v.styles.tabOn.Render("[1] Downloader")
	}
	return v.styles.header.Render("udctl") + "  " + down + "  " + comp
}

func (v *TUIView) renderDownloader(model *TUIModel, controller *TUIController) string {
	var b strings.Builder

	b.WriteString(v.styles.label.Render("Link"))
	b.WriteString("\n")
	b.WriteString(controller.urlInput.View())
	b.WriteString("\n")
	b.WriteString(v.renderProvider(model))
	b.WriteString("\n")

	opts := fmt.Sprintf("format %s (f)  resolution %s (v)  quality %d kbps (b)",
		model.format, model.resolution, model.qualityKbps)
	if model.profile.Locked {
		opts = fmt.Sprintf("format %s  resolution %s  quality %d kbps",
			model.profile.ForcedFormat, model.profile.ForcedResolution, model.profile.ForcedQuality)
		opts += v.styles.dim.Render("  (fixed by provider)")
	}
	b.WriteString(opts)
	b.WriteString("\n\n")

	b.WriteString(v.renderJob(model.store.Snapshot(jobs.Download)))
	return b.String()
}

func (v *TUIView) renderProvider(model *TUIModel) string {
	if model.activeLink == "" {
		return v.styles.dim.Render("paste or type a link")
	}
	line := "provider: " + string(model.profile.Tag)
	if model.profile.Tag == provider.Instagram && model.insta != nil {
		s := model.insta
		if s.IsCarousel {
			line += fmt.Sprintf("  carousel: %d items (%d video, %d image)",
				s.EntryCount, s.VideoCount, s.ImageCount)
		} else if s.VideoCount > 0 {
			line += "  single video"
		}
	}
	return v.styles.dim.Render(line)
}

func (v *TUIView) renderCompressor(model *TUIModel, controller *TUIController) string {
	var b strings.Builder

	b.WriteString(v.styles.label.Render("File"))
	b.WriteString("\n")
	b.WriteString(controller.fileInput.View())
	b.WriteString("\n")
	if model.sourceSize > 0 {
		b.WriteString(v.styles.dim.Render("source " + humanize.Bytes(uint64(model.sourceSize))))
	} else {
		b.WriteString(v.styles.dim.Render("pick an MP4 file"))
	}
	b.WriteString("\n")

	discord := "off"
	if model.discordMode {
		discord = "on"
	}
	b.WriteString(fmt.Sprintf("reduce %d%% (+/-)  resolution %s (v)  engine %s (e)  discord %s (d)",
		model.compressPercent, model.compressResolution, model.engine, discord))
	b.WriteString("\n")

	if model.sourceSize > 0 {
		predicted := model.EstimateBytes()
		line := fmt.Sprintf("estimated output %s (-%d%%)",
			humanize.Bytes(uint64(predicted)),
			estimate.ReductionDisplay(model.sourceSize, predicted))
		if model.discordMode {
			if model.FitsDiscord() {
				line += "  " + v.styles.good.Render("fits Discord")
			} else {
				line += "  " + v.styles.bad.Render("over Discord limit")
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(v.renderJob(model.store.Snapshot(jobs.Compression)))
	return b.String()
}

func (v *TUIView) renderJob(st jobs.JobState) string {
	var b strings.Builder

	switch st.Phase {
	case jobs.Idle:
		return v.styles.dim.Render("idle") + "\n"
	case jobs.Requesting:
		b.WriteString("requesting...\n")
	case jobs.Running, jobs.Finishing:
		b.WriteString(v.prog.ViewAs(st.Progress / 100))
		b.WriteString(fmt.Sprintf(" %3.0f%%\n", st.Progress))
	case jobs.Done:
		b.WriteString(v.styles.good.Render("done"))
		b.WriteString("\n")
	case jobs.Cancelled:
		b.WriteString(v.styles.dim.Render("cancelled"))
		b.WriteString("\n")
	case jobs.Errored:
		b.WriteString(v.styles.bad.Render("failed"))
		b.WriteString("\n")
	}

	if st.Status != "" {
		b.WriteString(st.Status)
		b.WriteString("\n")
	}
	if st.Phase == jobs.Done && st.Result != nil {
		b.WriteString(v.renderResult(st.Result))
	}
	return b.String()
}

func (v *TUIView) renderResult(r *jobs.Result) string {
	var b strings.Builder
	if r.Filename != "" {
		b.WriteString("file: " + r.Filename + "\n")
	}
	if r.Path != "" {
		b.WriteString("path: " + r.Path + "\n")
	}
	if r.FinalSize > 0 {
		size := humanize.Bytes(uint64(r.FinalSize))
		if r.TargetSizeBytes > 0 {
			size += " (target " + humanize.Bytes(uint64(r.TargetSizeBytes)) + ")"
		}
		b.WriteString("size: " + size + "\n")
	}
	if r.Encoder != "" {
		b.WriteString("encoder: " + r.Encoder + "\n")
	}
	return b.String()
}

func (v *TUIView) renderHistory(controller *TUIController) string {
	var b strings.Builder
	b.WriteString(v.styles.header.Render("History"))
	b.WriteString("\n")
	b.WriteString(controller.historyInput.View())
	b.WriteString("\n\n")

	entries := filterHistory(controller.historyAll, controller.historyInput.Value())
	if len(entries) == 0 {
		b.WriteString(v.styles.dim.Render("nothing here"))
		b.WriteString("\n")
	}
	max := len(entries)
	if v.height > 8 && max > v.height-8 {
		max = v.height - 8
	}
	for _, e := range entries[:max] {
		name := e.Filename
		if name == "" {
			name = e.Path
		}
		line := fmt.Sprintf("%-10s %-40s", e.Kind, truncate(name, 40))
		if e.Size > 0 {
			line += " " + humanize.Bytes(uint64(e.Size))
		}
		line += "  " + v.styles.dim.Render(e.CreatedAt.Format("2006-01-02 15:04"))
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.dim.Render("type to filter • esc close"))
	return b.String()
}

func (v *TUIView) helpView() string {
	return `Keys

  enter     start the active job
  x         cancel the active job
  c         clear a finished job
  ctrl+v    paste link and focus (outside the field)
  ctrl+l    focus the input
  ctrl+k    clear the input
  1 / 2     downloader / compressor view
  tab       toggle view
  h         history
  o         reveal the finished file
  q         quit

Downloader options: f format, v resolution, b quality.
Compressor options: +/- percent, v resolution, e engine, d discord mode.

Press esc to close.`
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
