// Package config handles YAML configuration loading, environment variable
// expansion, defaults, and structural validation for pokeme.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Database DatabaseConfig `yaml:"database"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Notifier NotifierConfig `yaml:"notifier"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// DatabaseConfig locates and tunes the SQLite job store.
type DatabaseConfig struct {
	// Path of the database file. Defaults to $XDG_DATA_HOME/pokeme/poke.db.
	Path string `yaml:"path"`
	// BusyTimeout in milliseconds.
	BusyTimeout int `yaml:"busy_timeout"`
	// WAL enables write-ahead logging. Nil means true.
	WAL *bool `yaml:"wal"`
}

// WALEnabled reports the effective WAL setting.
func (c DatabaseConfig) WALEnabled() bool {
	return c.WAL == nil || *c.WAL
}

// DaemonConfig controls the daemon loop and the controller's stop wait.
type DaemonConfig struct {
	// RunDir holds the signal files. Defaults to $XDG_RUNTIME_DIR/pokeme.
	RunDir       string        `yaml:"run_dir"`
	PollInterval time.Duration `yaml:"poll_interval"`
	StopGrace    time.Duration `yaml:"stop_grace"`
	// Watch enables fsnotify wake-ups on the run directory.
	Watch bool `yaml:"watch"`
	// Timezone is an IANA zone name for schedule evaluation. Empty means local.
	Timezone string `yaml:"timezone"`
}

// NotifierConfig selects and tunes the notification backend.
type NotifierConfig struct {
	Backend   string  `yaml:"backend"`
	AppName   string  `yaml:"app_name"`
	Icon      string  `yaml:"icon"`
	SoundName string  `yaml:"sound_name"`
	Rate      float64 `yaml:"rate"`
	Burst     int     `yaml:"burst"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, receives daemon logs instead of stderr.
	File string `yaml:"file"`
}

// MetricsConfig enables the HTTP metrics endpoint.
type MetricsConfig struct {
	// Listen is a host:port address. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// TracingConfig enables OTLP/HTTP trace export.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure *bool  `yaml:"insecure"`
}

// InsecureEnabled reports the effective insecure setting.
func (c TracingConfig) InsecureEnabled() bool {
	return c.Insecure == nil || *c.Insecure
}

// Default values applied by ApplyDefaults.
const (
	DefaultBusyTimeout  = 5000
	DefaultPollInterval = time.Second
	DefaultStopGrace    = 2 * time.Second
	DefaultBackend      = "auto"
	DefaultAppName      = "Poke Me"
	DefaultIcon         = "clock"
	DefaultSoundName    = "message-new-instant"
	DefaultRate         = 5
	DefaultBurst        = 10
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields. Paths are resolved separately by
// ResolvePaths because they depend on the environment.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = DefaultBusyTimeout
	}
	if c.Daemon.PollInterval == 0 {
		c.Daemon.PollInterval = DefaultPollInterval
	}
	if c.Daemon.StopGrace == 0 {
		c.Daemon.StopGrace = DefaultStopGrace
	}
	if c.Notifier.Backend == "" {
		c.Notifier.Backend = DefaultBackend
	}
	if c.Notifier.AppName == "" {
		c.Notifier.AppName = DefaultAppName
	}
	if c.Notifier.Icon == "" {
		c.Notifier.Icon = DefaultIcon
	}
	if c.Notifier.SoundName == "" {
		c.Notifier.SoundName = DefaultSoundName
	}
	if c.Notifier.Rate == 0 {
		c.Notifier.Rate = DefaultRate
	}
	if c.Notifier.Burst == 0 {
		c.Notifier.Burst = DefaultBurst
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
