package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"udctl/internal/channel"
	"udctl/internal/clip"
	"udctl/internal/config"
	"udctl/internal/controller"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/metrics"
	ui "udctl/internal/tui"
)

func handleTUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, *jsonOut)
	if err := routeTUILogs(cfg, log); err != nil {
		return err
	}
	m := metrics.New(cfg)
	defer func() { _ = m.Write() }()
	ps := openPrefs(cfg, log)
	if ps != nil {
		defer ps.Close()
	}

	store := jobs.NewStore()
	ctrl := controller.New(cfg, store, ps, log, m)
	watcher := clip.NewWatcher(clipboardReader(cfg), cfg.Watcher.ExtraHosts, log, m)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch := channel.New(cfg, store, log, m)
	defer ch.Close()
	go func() { _ = ch.Run(ctx) }()

	p := tea.NewProgram(ui.New(cfg, store, ctrl, watcher, ps, log), tea.WithAltScreen(), tea.WithReportFocus())
	_, err = p.Run()
	return err
}

// clipboardReader prefers the local system clipboard and falls back to the
// backend's /clipboard endpoint for remote or headless setups.
func clipboardReader(cfg *config.Config) clip.Reader {
	return clip.Chain{
		clip.SystemReader{},
		clip.BackendReader{Base: cfg.Backend.HTTPBase},
	}
}

// routeTUILogs moves log lines out of the terminal while bubbletea owns it.
func routeTUILogs(cfg *config.Config, log *logging.Logger) error {
	path := cfg.Logging.File
	if path == "" {
		if cfg.General.DataRoot == "" {
			log.SetOutput(io.Discard)
			return nil
		}
		path = filepath.Join(cfg.General.DataRoot, "udctl.log")
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	log.SetOutput(f)
	return nil
}
