// Package daemon implements the long-running scheduler loop. The loop owns
// one scheduler engine at a time and keeps it in sync with the job store by
// discarding and rebuilding it whenever a controller leaves a refresh
// signal. Shutdown is requested by deleting the control signal.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/pokeme/internal/cron"
	"github.com/flemzord/pokeme/internal/metrics"
	"github.com/flemzord/pokeme/internal/notify"
	"github.com/flemzord/pokeme/internal/store"
)

const (
	defaultPollInterval = time.Second
	defaultDrainTimeout = 5 * time.Second
)

// JobSource is the part of the job store the daemon consumes.
type JobSource interface {
	ListAll(ctx context.Context) ([]store.Job, error)
	Ping(ctx context.Context) error
}

// Signals is the daemon side of the liveness signal files.
type Signals interface {
	WritePID(pid int) error
	WriteControl() error
	ControlPresent() bool
	RefreshPending() bool
	ConsumeRefresh() error
	Cleanup() error
}

// Sender dispatches notifications without returning delivery errors.
type Sender interface {
	Send(ctx context.Context, n notify.Notification) bool
}

// Config wires a Daemon. Store, Signals, Engines and Notifier are required.
type Config struct {
	Store    JobSource
	Signals  Signals
	Engines  cron.Factory
	Notifier Sender

	// Metrics may be nil.
	Metrics *metrics.Daemon
	Logger  *slog.Logger
	// Readiness defaults to a no-op.
	Readiness Readiness
	Tracer    trace.Tracer

	// PID defaults to os.Getpid().
	PID          int
	PollInterval time.Duration
	// DrainTimeout bounds how long an engine shutdown waits for callbacks.
	DrainTimeout time.Duration
	// Wake, when set, triggers an early tick on receive.
	Wake <-chan struct{}
}

func (c *Config) validate() error {
	var errs []error
	if c.Store == nil {
		errs = append(errs, errors.New("daemon: store is required"))
	}
	if c.Signals == nil {
		errs = append(errs, errors.New("daemon: signals are required"))
	}
	if c.Engines == nil {
		errs = append(errs, errors.New("daemon: engine factory is required"))
	}
	if c.Notifier == nil {
		errs = append(errs, errors.New("daemon: notifier is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Readiness == nil {
		c.Readiness = noReadiness{}
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer("github.com/flemzord/pokeme/internal/daemon")
	}
	if c.PID <= 0 {
		c.PID = os.Getpid()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
}

// Daemon is the Daemon Loop. Tick and Run must be called from a single
// goroutine; State and Health are safe to call concurrently.
type Daemon struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer

	mu     sync.RWMutex
	state  State
	engine cron.Scheduler
	last   LoadReport
}

// New validates cfg and returns a daemon in the Starting state.
func New(cfg Config) (*Daemon, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &Daemon{
		cfg:    cfg,
		logger: cfg.Logger,
		tracer: cfg.Tracer,
		state:  Starting,
	}, nil
}

// State returns the current state.
func (d *Daemon) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Armed returns the number of timers held by the live engine.
func (d *Daemon) Armed() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.engine == nil {
		return 0
	}
	return d.engine.Len()
}

// LastLoad returns the report of the most recent successful load.
func (d *Daemon) LastLoad() LoadReport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// Health reports the loop state for the HTTP probe.
func (d *Daemon) Health() metrics.Health {
	st := d.State()
	h := metrics.Health{Status: "ok", State: st.String(), Jobs: d.Armed()}
	if st != Running && st != Reloading {
		h.Status = "degraded"
	}
	return h
}

func (d *Daemon) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run drives Tick until the loop terminates. Cancelling ctx requests a
// shutdown, which is carried out on the next tick.
func (d *Daemon) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	done := ctx.Done()
	for {
		st, err := d.Tick(ctx)
		if st == Terminated {
			return err
		}

		select {
		case <-done:
			// Stop selecting on a closed channel; the next tick shuts down.
			done = nil
		case <-ticker.C:
		case <-d.cfg.Wake:
		}
	}
}

// Tick performs one transition of the loop and returns the resulting state.
//
//	Starting  -> Running      (or Terminated if the first load fails)
//	Running   -> Running      (no signal, or after a reload)
//	Running   -> Terminated   (CONTROL absent or ctx cancelled)
//
// Reloading and Stopping are held only while their work runs inside Tick.
func (d *Daemon) Tick(ctx context.Context) (State, error) {
	switch d.State() {
	case Starting:
		if err := d.start(ctx); err != nil {
			d.logger.Error("daemon: startup failed", "error", err)
			d.terminate()
			return Terminated, err
		}
		d.setState(Running)
		d.cfg.Readiness.Notify(readyState)
		return Running, nil

	case Running:
		d.probe(ctx)
		// Shutdown wins over a pending refresh.
		if ctx.Err() != nil || !d.cfg.Signals.ControlPresent() {
			d.stop()
			return Terminated, nil
		}
		if d.cfg.Signals.RefreshPending() {
			d.reload(ctx)
		}
		return d.State(), nil

	default:
		return d.State(), nil
	}
}

func (d *Daemon) start(ctx context.Context) error {
	// A refresh left over from a previous run is meaningless: the initial
	// load already reads the current store.
	if err := d.cfg.Signals.ConsumeRefresh(); err != nil {
		d.logger.Warn("daemon: clearing stale refresh signal", "error", err)
	}
	if err := d.cfg.Signals.WritePID(d.cfg.PID); err != nil {
		return err
	}
	if err := d.cfg.Signals.WriteControl(); err != nil {
		return err
	}

	engine, report, err := d.load(ctx)
	d.cfg.Metrics.ObserveLoad(err == nil, len(report.Failures))
	if err != nil {
		return err
	}
	d.install(engine, report)

	d.logger.Info("daemon: service started",
		"pid", d.cfg.PID,
		"jobs", report.Total,
		"armed", report.Armed,
		"failed", len(report.Failures),
	)
	d.cfg.Notifier.Send(ctx, notify.Notification{
		Title:   "Service Started",
		Body:    fmt.Sprintf("Notification service running with %d jobs", report.Total),
		Urgency: notify.UrgencyNormal,
	})
	return nil
}

// reload replaces the live engine with one built from the current store.
// On failure the daemon keeps running with no armed timers until the next
// refresh.
func (d *Daemon) reload(ctx context.Context) {
	d.setState(Reloading)
	d.cfg.Readiness.Notify(reloadingState)
	defer func() {
		d.setState(Running)
		d.cfg.Readiness.Notify(readyState)
	}()

	if err := d.cfg.Signals.ConsumeRefresh(); err != nil {
		d.logger.Warn("daemon: consuming refresh signal", "error", err)
	}

	d.shutdownEngine(ctx)

	engine, report, err := d.load(ctx)
	d.cfg.Metrics.ObserveLoad(err == nil, len(report.Failures))
	if err != nil {
		d.logger.Error("daemon: reload failed, no jobs armed until next refresh", "error", err)
		return
	}
	d.install(engine, report)
	d.logger.Info("daemon: jobs reloaded",
		"jobs", report.Total,
		"armed", report.Armed,
		"failed", len(report.Failures),
	)
}

func (d *Daemon) stop() {
	d.setState(Stopping)
	d.cfg.Readiness.Notify(stoppingState)
	d.logger.Info("daemon: shutdown requested")

	d.shutdownEngine(context.Background())
	d.terminate()
}

func (d *Daemon) terminate() {
	if err := d.cfg.Signals.Cleanup(); err != nil {
		d.logger.Warn("daemon: removing signal files", "error", err)
	}
	d.setState(Terminated)
	d.logger.Info("daemon: terminated")
}

func (d *Daemon) install(engine cron.Scheduler, report LoadReport) {
	d.mu.Lock()
	d.engine = engine
	d.last = report
	d.mu.Unlock()
	d.cfg.Metrics.SetArmed(report.Armed)
}

// shutdownEngine stops the live engine, if any. The drain is not tied to
// ctx so a cancelled loop still waits for in-flight callbacks.
func (d *Daemon) shutdownEngine(ctx context.Context) {
	d.mu.Lock()
	engine := d.engine
	d.engine = nil
	d.mu.Unlock()
	d.cfg.Metrics.SetArmed(0)

	if engine == nil {
		return
	}
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.DrainTimeout)
	defer cancel()
	if err := engine.Shutdown(drainCtx); err != nil {
		d.logger.Warn("daemon: engine shutdown", "error", err)
	}
}

// probe checks the store connection. Failures never change state.
func (d *Daemon) probe(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := d.cfg.Store.Ping(ctx); err != nil {
		d.cfg.Metrics.ObservePingFailure()
		d.logger.Warn("daemon: job store probe failed", "error", err)
	}
}
