// Package app provides the shared entry points used by the pokeme CLI:
// building the runtime environment from configuration, running the daemon
// and constructing controllers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flemzord/pokeme/internal/config"
	"github.com/flemzord/pokeme/internal/control"
	"github.com/flemzord/pokeme/internal/logging"
	"github.com/flemzord/pokeme/internal/session"
	"github.com/flemzord/pokeme/internal/store"
)

// Params are the process-level inputs shared by every command.
type Params struct {
	// ConfigPath is an explicit configuration file. Empty triggers the
	// standard search and falls back to defaults.
	ConfigPath string
	// LogLevel overrides log.level when set.
	LogLevel string
	// LogToFile sends logs to log.file when one is configured.
	LogToFile bool

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Env is the opened runtime environment.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Store      *store.Store
	Session    *session.Session

	closeLog func() error
}

// Open loads configuration, builds the logger, and opens the job store and
// session directory.
func Open(ctx context.Context, p Params) (*Env, error) {
	cfg, path, err := config.LoadOrDefault(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if p.LogLevel != "" {
		cfg.Log.Level = p.LogLevel
	}
	if err := cfg.ResolvePaths(); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logOpts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if p.LogToFile {
		logOpts.File = cfg.Log.File
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, store.Options{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
		DisableWAL:  !cfg.Database.WALEnabled(),
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	sess, err := session.New(cfg.Daemon.RunDir)
	if err != nil {
		_ = db.Close()
		_ = closeLog()
		return nil, err
	}

	logger.Debug("app: environment ready",
		"config", path,
		"database", cfg.Database.Path,
		"run_dir", sess.Dir(),
	)
	return &Env{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Store:      db,
		Session:    sess,
		closeLog:   closeLog,
	}, nil
}

// Close releases the store and log file.
func (e *Env) Close() error {
	var errs []error
	if err := e.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("app: close store: %w", err))
	}
	if e.closeLog != nil {
		if err := e.closeLog(); err != nil {
			errs = append(errs, fmt.Errorf("app: close log: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Controller returns a controller bound to the environment.
func (e *Env) Controller() *control.Controller {
	return control.New(control.Config{
		Store:   e.Store,
		Signals: e.Session,
		Logger:  e.Logger,
		Grace:   e.Config.Daemon.StopGrace,
	})
}
