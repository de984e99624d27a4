package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML schema. Every field has a working default so the
// client runs against a local backend with no config file at all.
type Config struct {
	Version int        `yaml:"version"`
	Backend Backend    `yaml:"backend"`
	General General    `yaml:"general"`
	Watcher Watcher    `yaml:"watcher"`
	Channel ChannelCfg `yaml:"channel"`
	Logging Logging    `yaml:"logging"`
	Metrics Metrics    `yaml:"metrics"`
	UI      UIOptions  `yaml:"ui"`
}

type Backend struct {
	// HTTPBase is the command surface; trailing slashes are trimmed.
	HTTPBase string `yaml:"http_base"`
	// WSBase is the base for the push channel (the /ws endpoint).
	WSBase         string `yaml:"ws_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type General struct {
	// DataRoot holds prefs.db and the log file.
	DataRoot string `yaml:"data_root"`
}

type Watcher struct {
	PollSeconds int `yaml:"poll_seconds"`
	// ExtraHosts are appended to the built-in link allow-list.
	ExtraHosts []string `yaml:"extra_hosts"`
}

type ChannelCfg struct {
	ReconnectMS int `yaml:"reconnect_ms"`
	SettleMS    int `yaml:"settle_ms"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // human|json
	File   string `yaml:"file"`
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type UIOptions struct {
	// RefreshHz controls the TUI refresh frequency (ticks per second).
	// Zero means 1; values above 10 are clamped.
	RefreshHz int `yaml:"refresh_hz"`
}

// Reference timings from the original client. Kept as defaults, not constants
// baked into call sites, so a deployment over a real network can raise them.
const (
	defaultReconnectMS = 1200
	defaultSettleMS    = 3000
	defaultPollSeconds = 3
)

func Default() *Config {
	return &Config{
		Version: 1,
		Backend: Backend{
			HTTPBase:       "http://127.0.0.1:8000",
			WSBase:         "ws://127.0.0.1:8000",
			TimeoutSeconds: 30,
		},
		General: General{DataRoot: "~/.config/udctl"},
		Watcher: Watcher{PollSeconds: defaultPollSeconds},
		Channel: ChannelCfg{ReconnectMS: defaultReconnectMS, SettleMS: defaultSettleMS},
		Logging: Logging{Level: "info", Format: "human"},
	}
}

// Load reads, parses, expands, and validates a YAML config file. An empty path
// or a missing file yields the defaults. UDCTL_HTTP_BASE / UDCTL_WS_BASE
// override the backend addresses in every case.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		expanded, err := expandTilde(path)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(expanded)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			// Expand ${ENV} placeholders before unmarshalling
			b = []byte(os.ExpandEnv(string(b)))
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, err
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("UDCTL_HTTP_BASE")); v != "" {
		c.Backend.HTTPBase = v
	}
	if v := strings.TrimSpace(os.Getenv("UDCTL_WS_BASE")); v != "" {
		c.Backend.WSBase = v
	}
	c.Backend.HTTPBase = strings.TrimRight(c.Backend.HTTPBase, "/")
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.Logging.File, err = expandTilde(c.Logging.File); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.Backend.HTTPBase == "" {
		return errors.New("backend.http_base is required")
	}
	if c.Backend.WSBase == "" {
		return errors.New("backend.ws_base is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	if c.Watcher.PollSeconds < 0 {
		return errors.New("watcher.poll_seconds must be >= 0")
	}
	if c.Channel.ReconnectMS < 0 || c.Channel.SettleMS < 0 {
		return errors.New("channel timings must be >= 0")
	}
	if c.UI.RefreshHz < 0 {
		return errors.New("ui.refresh_hz must be >= 0")
	}
	return nil
}

// ChannelURL returns the websocket endpoint for the push channel.
func (c *Config) ChannelURL() string {
	return strings.TrimRight(c.Backend.WSBase, "/") + "/ws"
}

func (c *Config) ReconnectDelay() time.Duration {
	return orDefault(c.Channel.ReconnectMS, defaultReconnectMS)
}

func (c *Config) SettleDelay() time.Duration {
	return orDefault(c.Channel.SettleMS, defaultSettleMS)
}

func (c *Config) PollInterval() time.Duration {
	if c.Watcher.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(c.Watcher.PollSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func orDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates a directory if missing.
func EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}
