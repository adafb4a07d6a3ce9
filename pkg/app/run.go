package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flemzord/pokeme/internal/cron"
	"github.com/flemzord/pokeme/internal/daemon"
	"github.com/flemzord/pokeme/internal/metrics"
	"github.com/flemzord/pokeme/internal/notify"
	"github.com/flemzord/pokeme/internal/proc"
	"github.com/flemzord/pokeme/internal/session"
	"github.com/flemzord/pokeme/internal/telemetry"
)

// ErrAlreadyRunning is returned by RunDaemon when a live daemon owns the
// session directory.
var ErrAlreadyRunning = errors.New("app: service is already running")

// RunDaemon runs the daemon in the foreground until it is stopped through
// the control file or SIGINT/SIGTERM.
func RunDaemon(ctx context.Context, p Params) error {
	p.LogToFile = true
	env, err := Open(ctx, p)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	return runDaemon(ctx, env, p, proc.System{})
}

func runDaemon(ctx context.Context, env *Env, p Params, process proc.Process) error {
	cfg, logger := env.Config, env.Logger

	if pid, err := env.Session.ReadPID(); err == nil && pid != os.Getpid() && process.Alive(pid) {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: cfg.Tracing.InsecureEnabled(),
		Version:  p.Version,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.WithoutCancel(ctx)) }()

	backend, err := notify.New(notify.Options{
		Backend:   cfg.Notifier.Backend,
		AppName:   cfg.Notifier.AppName,
		Icon:      cfg.Notifier.Icon,
		SoundName: cfg.Notifier.SoundName,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(backend, logger, notify.WithRate(cfg.Notifier.Rate, cfg.Notifier.Burst))
	defer func() { _ = dispatcher.Close() }()

	var engineOpts []cron.EngineOption
	if cfg.Daemon.Timezone != "" {
		engineOpts = append(engineOpts, cron.WithLocation(cfg.Daemon.Timezone))
	}

	m := metrics.New()
	dcfg := daemon.Config{
		Store:        env.Store,
		Signals:      env.Session,
		Engines:      cron.NewFactory(logger, engineOpts...),
		Notifier:     dispatcher,
		Metrics:      m,
		Logger:       logger,
		Readiness:    daemon.Systemd{Logger: logger},
		Tracer:       telemetry.Tracer("github.com/flemzord/pokeme/internal/daemon"),
		PollInterval: cfg.Daemon.PollInterval,
	}

	if cfg.Daemon.Watch {
		w, err := daemon.NewWatcher(env.Session.Dir(),
			[]string{session.ControlFile, session.RefreshFile}, logger)
		if err != nil {
			logger.Warn("app: signal file watcher unavailable, polling only", "error", err)
		} else {
			w.Start(ctx)
			defer w.Stop()
			dcfg.Wake = w.Wake()
		}
	}

	d, err := daemon.New(dcfg)
	if err != nil {
		return err
	}

	if cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(cfg.Metrics.Listen, m, d.Health, logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = srv.Stop(context.WithoutCancel(ctx)) }()
	}

	return d.Run(ctx)
}
