package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

var (
	validBackends = []string{"auto", "dbus", "notify-send", "log"}
	validFormats  = []string{"text", "json", "console"}
)

// Validate checks the structural validity of a Config after defaults have
// been applied. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Database.BusyTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: database.busy_timeout must be >= 0, got %d", cfg.Database.BusyTimeout))
	}

	errs = append(errs, validateDaemon(cfg.Daemon)...)
	errs = append(errs, validateNotifier(cfg.Notifier)...)
	errs = append(errs, validateLog(cfg.Log)...)

	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			errs = append(errs, fmt.Errorf("config: metrics.listen %q: %w", cfg.Metrics.Listen, err))
		}
	}
	if cfg.Tracing.Endpoint != "" && strings.Contains(cfg.Tracing.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("config: tracing.endpoint %q must be host:port without a scheme", cfg.Tracing.Endpoint))
	}

	return errors.Join(errs...)
}

func validateDaemon(d DaemonConfig) []error {
	var errs []error
	if d.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("config: daemon.poll_interval must be positive, got %s", d.PollInterval))
	}
	if d.StopGrace <= 0 {
		errs = append(errs, fmt.Errorf("config: daemon.stop_grace must be positive, got %s", d.StopGrace))
	}
	if d.Timezone != "" {
		if _, err := time.LoadLocation(d.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("config: daemon.timezone %q: %w", d.Timezone, err))
		}
	}
	return errs
}

func validateNotifier(n NotifierConfig) []error {
	var errs []error
	if !oneOf(n.Backend, validBackends) {
		errs = append(errs, fmt.Errorf("config: notifier.backend %q (supported: %s)", n.Backend, strings.Join(validBackends, ", ")))
	}
	if n.Rate < 0 {
		errs = append(errs, fmt.Errorf("config: notifier.rate must be >= 0, got %v", n.Rate))
	}
	if n.Burst < 0 {
		errs = append(errs, fmt.Errorf("config: notifier.burst must be >= 0, got %d", n.Burst))
	}
	return errs
}

func validateLog(l LogConfig) []error {
	var errs []error
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		errs = append(errs, fmt.Errorf("config: log.level %q: %w", l.Level, err))
	}
	if !oneOf(l.Format, validFormats) {
		errs = append(errs, fmt.Errorf("config: log.format %q (supported: %s)", l.Format, strings.Join(validFormats, ", ")))
	}
	return errs
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
