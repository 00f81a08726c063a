package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/multilink-dev/multilink/internal/errors"
	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/netsync"
)

const (
	// ConfigFileName is the name of the configuration file in the home
	// directory.
	ConfigFileName = ".multilink.yaml"

	// DefaultListen is the host's default listen address.
	DefaultListen = ":7420"

	// DefaultLinkPath is the HTTP path of the link endpoint.
	DefaultLinkPath = "/link"

	// DefaultMetricsPath is the HTTP path of the metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultSlotPeriod is the time between word transfers on a network
	// port.
	DefaultSlotPeriod = 2 * time.Millisecond

	// DefaultFrameTime is the period of the application update loop.
	DefaultFrameTime = 16 * time.Millisecond

	// DefaultWatchdogTimeout is how long the update loop may stall.
	DefaultWatchdogTimeout = 5 * time.Second
)

// Config represents the complete ~/.multilink.yaml configuration.
type Config struct {
	Link     LinkConfig     `yaml:"link"`
	Net      NetConfig      `yaml:"net"`
	Sync     SyncConfig     `yaml:"sync"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Log      LogConfig      `yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LinkConfig configures negotiation.
type LinkConfig struct {
	// Handshake is the frame both ends exchange. It must be exactly one
	// frame long.
	Handshake string `yaml:"handshake"`

	NegotiateTimeout Duration `yaml:"negotiate_timeout"`
	RetryDelay       Duration `yaml:"retry_delay"`

	// SlotPeriod is the word transfer period of network ports.
	SlotPeriod Duration `yaml:"slot_period"`
}

// NetConfig configures the WebSocket port.
type NetConfig struct {
	// Listen is the host's listen address.
	Listen string `yaml:"listen"`

	// Path is the HTTP path of the link endpoint.
	Path string `yaml:"path"`

	// Peer is the default host URL for join, e.g. ws://10.0.0.2:7420/link.
	Peer string `yaml:"peer,omitempty"`
}

// SyncConfig configures the session layer.
type SyncConfig struct {
	BroadcastInterval Duration `yaml:"broadcast_interval"`
	IdleInterval      Duration `yaml:"idle_interval"`

	// FrameTime is the period of the update loop.
	FrameTime Duration `yaml:"frame_time"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchdogConfig configures the stall detector. A zero timeout disables it.
type WatchdogConfig struct {
	Timeout Duration `yaml:"timeout"`

	// Restart re-executes the process when the watchdog fires.
	Restart bool `yaml:"restart"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Link: LinkConfig{
			Handshake:        link.DefaultHandshake,
			NegotiateTimeout: Duration(link.DefaultNegotiateTimeout),
			RetryDelay:       Duration(link.DefaultRetryDelay),
			SlotPeriod:       Duration(DefaultSlotPeriod),
		},
		Net: NetConfig{
			Listen: DefaultListen,
			Path:   DefaultLinkPath,
		},
		Sync: SyncConfig{
			BroadcastInterval: Duration(netsync.DefaultBroadcastInterval),
			IdleInterval:      Duration(netsync.DefaultIdleInterval),
			FrameTime:         Duration(DefaultFrameTime),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Watchdog: WatchdogConfig{
			Timeout: Duration(DefaultWatchdogTimeout),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns ~/.multilink.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// Load reads the configuration at path, or at DefaultPath when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return New(), nil
		}
		path = p
	}

	if expanded, err := homedir.Expand(path); err == nil {
		if _, err := os.Stat(expanded); os.IsNotExist(err) {
			cfg := New()
			cfg.configPath = expanded
			return cfg, nil
		}
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path. Unlike Load
// it fails when the file does not exist.
func LoadFile(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.New("L201").Wrap(err).WithField("path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("L201").WithField("path", path)
		}
		return nil, errors.New("L202").Wrap(err).WithField("path", path)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("L202").
			Wrap(err).
			WithField("path", path).
			WithSuggestion("Check the indentation and that durations are quoted strings such as \"250ms\"")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("L204").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("L204").Wrap(err).WithField("path", path)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Link.Handshake == "" {
		c.Link.Handshake = d.Link.Handshake
	}
	if c.Link.NegotiateTimeout == 0 {
		c.Link.NegotiateTimeout = d.Link.NegotiateTimeout
	}
	if c.Link.RetryDelay == 0 {
		c.Link.RetryDelay = d.Link.RetryDelay
	}
	if c.Link.SlotPeriod == 0 {
		c.Link.SlotPeriod = d.Link.SlotPeriod
	}

	if c.Net.Listen == "" {
		c.Net.Listen = d.Net.Listen
	}
	if c.Net.Path == "" {
		c.Net.Path = d.Net.Path
	}

	if c.Sync.BroadcastInterval == 0 {
		c.Sync.BroadcastInterval = d.Sync.BroadcastInterval
	}
	if c.Sync.IdleInterval == 0 {
		c.Sync.IdleInterval = d.Sync.IdleInterval
	}
	if c.Sync.FrameTime == 0 {
		c.Sync.FrameTime = d.Sync.FrameTime
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if n := len(c.Link.Handshake); n != link.MaxMessageSize {
		return invalid("link.handshake",
			fmt.Sprintf("The handshake must be exactly %d bytes, got %d.", link.MaxMessageSize, n))
	}

	positive := []struct {
		key string
		d   Duration
	}{
		{"link.negotiate_timeout", c.Link.NegotiateTimeout},
		{"link.retry_delay", c.Link.RetryDelay},
		{"link.slot_period", c.Link.SlotPeriod},
		{"sync.broadcast_interval", c.Sync.BroadcastInterval},
		{"sync.idle_interval", c.Sync.IdleInterval},
		{"sync.frame_time", c.Sync.FrameTime},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return invalid(p.key, "Durations must be positive.")
		}
	}
	if c.Link.RetryDelay >= c.Link.NegotiateTimeout {
		return invalid("link.retry_delay", "The retry delay must be shorter than the negotiation timeout.")
	}
	if c.Watchdog.Timeout < 0 {
		return invalid("watchdog.timeout", "Use 0 to disable the watchdog.")
	}

	if !strings.HasPrefix(c.Net.Path, "/") {
		return invalid("net.path", "Paths must start with '/'.")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "Paths must start with '/'.")
	}
	if c.Metrics.Enabled && c.Metrics.Path == c.Net.Path {
		return invalid("metrics.path", "The metrics and link endpoints must differ.")
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", "The format must be text or json.")
	}
	return nil
}

func invalid(key, detail string) error {
	return errors.New("L203").WithField("key", key).WithDetail(detail)
}

// LinkOptions returns the transport options the configuration selects.
func (c *Config) LinkOptions() []link.Option {
	return []link.Option{
		link.WithHandshake(c.Link.Handshake),
		link.WithNegotiateTimeout(c.Link.NegotiateTimeout.Std()),
		link.WithRetryDelay(c.Link.RetryDelay.Std()),
	}
}

// NewLogger builds the slog logger the configuration selects.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, invalid("log.level", err.Error())
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch c.Log.Format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
