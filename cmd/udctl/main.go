package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"udctl/internal/channel"
	"udctl/internal/config"
	"udctl/internal/controller"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/metrics"
	"udctl/internal/prefs"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command provided")
	}

	switch cmd := args[0]; cmd {
	case "tui":
		return handleTUI(ctx, args[1:])
	case "download":
		return handleDownload(ctx, args[1:])
	case "queue":
		return handleQueue(ctx, args[1:])
	case "compress":
		return handleCompress(ctx, args[1:])
	case "cancel":
		return handleCancel(ctx, args[1:])
	case "watch":
		return handleWatch(ctx, args[1:])
	case "history":
		return handleHistory(ctx, args[1:])
	case "config":
		return handleConfig(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(strings.TrimSpace(`udctl - terminal client for the media downloader/compressor backend

Usage:
  udctl <command> [flags]

Commands:
  tui               Open the interactive client
  download URL      Download a single link and follow it to completion
  queue URL...      Queue several links as one job (--file reads one URL per line)
  compress FILE     Upload an MP4 for re-encoding and follow it
  cancel            Ask the backend to stop the active job
  watch             Stream status frames as log lines (headless)
  history           List finished jobs
  config            init | validate | show
  version           Print version
  help              Show this help

Flags (per command):
  --config PATH     Path to YAML config file (or UDCTL_CONFIG; default: ~/.config/udctl/config.yml)
  --log-level L     Log level: debug|info|warn|error
  --json            JSON log output
`))
}

// commonFlags registers the flags every subcommand shares.
func commonFlags(fs *flag.FlagSet) (cfgPath, logLevel *string, jsonOut *bool) {
	cfgPath = fs.String("config", "", "Path to YAML config file")
	logLevel = fs.String("log-level", "info", "log level")
	jsonOut = fs.Bool("json", false, "json logs")
	return
}

// resolveConfigPath fills in the env/home default. A missing file is fine:
// config.Load falls back to defaults for it.
func resolveConfigPath(cfgPath string) string {
	if cfgPath != "" {
		return cfgPath
	}
	if env := os.Getenv("UDCTL_CONFIG"); env != "" {
		return env
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".config", "udctl", "config.yml")
	}
	return ""
}

func loadConfig(cfgPath, logLevel string) (*config.Config, error) {
	c, err := config.Load(resolveConfigPath(cfgPath))
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	return c, nil
}

// openPrefs is best effort for one-shot commands: a broken prefs database
// costs history, not the command.
func openPrefs(cfg *config.Config, log *logging.Logger) *prefs.Store {
	ps, err := prefs.Open(cfg)
	if err != nil {
		log.Warnf("preferences unavailable: %v", err)
		return nil
	}
	return ps
}

func downloadOptions(ps *prefs.Store, format, resolution string, quality int) controller.DownloadOptions {
	opts := controller.DownloadOptions{
		Format:      prefs.Default(prefs.KeyFormat),
		Resolution:  prefs.Default(prefs.KeyResolution),
		QualityKbps: 320,
	}
	if ps != nil {
		opts.Format = ps.Get(prefs.KeyFormat)
		opts.Resolution = ps.Get(prefs.KeyResolution)
		opts.QualityKbps = ps.GetInt(prefs.KeyQualityKbps)
	}
	if format != "" {
		opts.Format = format
	}
	if resolution != "" {
		opts.Resolution = resolution
	}
	if quality > 0 {
		opts.QualityKbps = quality
	}
	return opts
}

func handleDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	format := fs.String("format", "", "container (mp4|mp3); default from prefs")
	resolution := fs.String("resolution", "", "video resolution; default from prefs")
	quality := fs.Int("quality", 0, "audio quality in kbps; default from prefs")
	name := fs.String("name", "", "custom file name (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	link := strings.TrimSpace(fs.Arg(0))
	if link == "" {
		return errors.New("usage: udctl download [flags] URL")
	}

	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, *jsonOut)
	m := metrics.New(cfg)
	defer func() { _ = m.Write() }()
	ps := openPrefs(cfg, log)
	if ps != nil {
		defer ps.Close()
	}

	store := jobs.NewStore()
	ctrl := controller.New(cfg, store, ps, log, m)
	opts := downloadOptions(ps, *format, *resolution, *quality)
	opts.CustomName = *name

	return runJob(ctx, cfg, store, ctrl, log, m, jobs.Download, func(ctx context.Context) error {
		return ctrl.StartDownload(ctx, link, opts)
	})
}

func handleQueue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("queue", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	file := fs.String("file", "", "read URLs from a file, one per line")
	format := fs.String("format", "", "container (mp4|mp3); default from prefs")
	resolution := fs.String("resolution", "", "video resolution; default from prefs")
	quality := fs.Int("quality", 0, "audio quality in kbps; default from prefs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	urls := fs.Args()
	if *file != "" {
		fromFile, err := readURLFile(*file)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return errors.New("usage: udctl queue [flags] URL... (or --file list.txt)")
	}

	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, *jsonOut)
	m := metrics.New(cfg)
	defer func() { _ = m.Write() }()
	ps := openPrefs(cfg, log)
	if ps != nil {
		defer ps.Close()
	}

	store := jobs.NewStore()
	ctrl := controller.New(cfg, store, ps, log, m)
	opts := downloadOptions(ps, *format, *resolution, *quality)

	return runJob(ctx, cfg, store, ctrl, log, m, jobs.Download, func(ctx context.Context) error {
		return ctrl.StartBatch(ctx, urls, opts)
	})
}

func handleCompress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compress", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	percent := fs.Int("percent", -1, "reduction percent (0-99); default from prefs")
	resolution := fs.String("resolution", "", "output resolution cap; default from prefs")
	engine := fs.String("engine", "", "encoder engine (cpu|gpu|auto); default from prefs")
	discord := fs.Bool("discord", false, "fit the output under the Discord upload limit")
	name := fs.String("name", "", "custom file name (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := strings.TrimSpace(fs.Arg(0))
	if path == "" {
		return errors.New("usage: udctl compress [flags] FILE")
	}

	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, *jsonOut)
	m := metrics.New(cfg)
	defer func() { _ = m.Write() }()
	ps := openPrefs(cfg, log)
	if ps != nil {
		defer ps.Close()
	}

	opts := controller.CompressOptions{
		Percent:      40,
		Resolution:   prefs.Default(prefs.KeyCompressionResolution),
		HardwareMode: prefs.Default(prefs.KeyCompressionEngine),
		DiscordMode:  *discord,
		CustomName:   *name,
	}
	if ps != nil {
		opts.Percent = ps.GetInt(prefs.KeyCompressionPercent)
		opts.Resolution = ps.Get(prefs.KeyCompressionResolution)
		opts.HardwareMode = ps.Get(prefs.KeyCompressionEngine)
	}
	if *percent >= 0 {
		opts.Percent = *percent
	}
	if *resolution != "" {
		opts.Resolution = *resolution
	}
	if *engine != "" {
		opts.HardwareMode = *engine
	}

	store := jobs.NewStore()
	ctrl := controller.New(cfg, store, ps, log, m)
	return runJob(ctx, cfg, store, ctrl, log, m, jobs.Compression, func(ctx context.Context) error {
		return ctrl.Compress(ctx, path, opts)
	})
}

func handleCancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, *jsonOut)
	ctrl := controller.New(cfg, jobs.NewStore(), nil, log, nil)
	if err := ctrl.Cancel(ctx); err != nil {
		return err
	}
	log.Infof("cancel requested")
	return nil
}

func handleHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	limit := fs.Int("limit", 50, "max entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	ps, err := prefs.Open(cfg)
	if err != nil {
		return err
	}
	defer ps.Close()

	entries, err := ps.ListHistory(*limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		name := e.Filename
		if name == "" {
			name = e.Path
		}
		size := ""
		if e.Size > 0 {
			size = " " + humanize.Bytes(uint64(e.Size))
		}
		fmt.Printf("%s  %-11s %s%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Kind, name, size)
	}
	return nil
}

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config subcommand required: init | validate | show")
	}
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch sub := args[0]; sub {
	case "init":
		path := resolveConfigPath(*cfgPath)
		if path == "" {
			return errors.New("--config is required when no home directory is available")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		data, err := yaml.Marshal(config.Default())
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	case "validate":
		cfg, err := loadConfig(*cfgPath, *logLevel)
		if err != nil {
			return err
		}
		logging.New(cfg.Logging.Level, *jsonOut).Infof("config: valid")
		return nil
	case "show":
		cfg, err := loadConfig(*cfgPath, *logLevel)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

// runJob starts the status channel, issues the start command, and follows the
// job until it reaches a terminal phase or ctx is cancelled.
func runJob(ctx context.Context, cfg *config.Config, store *jobs.Store, ctrl *controller.Controller, log *logging.Logger, m *metrics.Manager, kind jobs.Kind, start func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := channel.New(cfg, store, log, m)
	defer ch.Close()
	go func() { _ = ch.Run(ctx) }()

	if err := start(ctx); err != nil {
		return err
	}
	if st := store.Snapshot(kind); st.Phase == jobs.Idle {
		// Dismissed directory prompt: nothing was started.
		log.Infof("no directory selected, nothing to do")
		return nil
	}

	lastStatus := ""
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		st := store.Snapshot(kind)
		if st.Status != "" && st.Status != lastStatus {
			log.Infof("%s [%3.0f%%]", st.Status, st.Progress)
			lastStatus = st.Status
		}
		switch st.Phase {
		case jobs.Done:
			ctrl.RecordCompletion(kind, st)
			if st.Result != nil && st.Result.Path != "" {
				log.Infof("finished: %s", st.Result.Path)
			} else {
				log.Infof("finished")
			}
			return nil
		case jobs.Cancelled:
			log.Infof("cancelled")
			return nil
		case jobs.Errored:
			return fmt.Errorf("job failed: %s", st.Status)
		}
	}
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
