// Package control implements the short-lived controller commands. Each
// mutation is committed to the job store first, then the running daemon is
// asked to reload through the refresh signal. Signalling is best-effort: a
// failure becomes an advisory note on the result, never an error.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/pokeme/internal/cron"
	"github.com/flemzord/pokeme/internal/proc"
	"github.com/flemzord/pokeme/internal/store"
)

// Sentinel errors.
var (
	ErrNotRunning = errors.New("control: service is not running")
	ErrStaleState = errors.New("control: service is not running (PID file was stale)")
)

const (
	defaultGrace     = 2 * time.Second
	defaultPollEvery = 100 * time.Millisecond
)

// Store is the job store surface used by controller commands.
type Store interface {
	Add(ctx context.Context, job store.Job) error
	Get(ctx context.Context, name string) (store.Job, error)
	List(ctx context.Context, head int) ([]store.Job, error)
	Search(ctx context.Context, term string) ([]store.Job, error)
	Remove(ctx context.Context, name string) error
	ToggleSound(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Signals is the controller side of the liveness signal files.
type Signals interface {
	HasPID() bool
	ReadPID() (int, error)
	RequestStop() error
	RequestRefresh() error
	Cleanup() error
}

// Config wires a Controller.
type Config struct {
	Store   Store
	Signals Signals
	Process proc.Process
	Logger  *slog.Logger
	// Grace is how long Stop waits for a graceful exit before SIGTERM.
	Grace time.Duration
	// PollEvery is the liveness polling interval during the grace wait.
	PollEvery time.Duration
}

// Controller runs controller commands.
type Controller struct {
	store     Store
	signals   Signals
	proc      proc.Process
	logger    *slog.Logger
	grace     time.Duration
	pollEvery time.Duration
}

// New returns a Controller. Process defaults to the host process table.
func New(cfg Config) *Controller {
	c := &Controller{
		store:     cfg.Store,
		signals:   cfg.Signals,
		proc:      cfg.Process,
		logger:    cfg.Logger,
		grace:     cfg.Grace,
		pollEvery: cfg.PollEvery,
	}
	if c.proc == nil {
		c.proc = proc.System{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.grace <= 0 {
		c.grace = defaultGrace
	}
	if c.pollEvery <= 0 {
		c.pollEvery = defaultPollEvery
	}
	return c
}

// AddRequest describes a new job.
type AddRequest struct {
	Name         string
	Schedule     string
	Message      string
	SoundEnabled bool
}

// Result is the outcome of a successful mutation.
type Result struct {
	Job   store.Job
	Sound bool
	// Note is an advisory message about the daemon signal, empty when the
	// refresh was delivered.
	Note string
}

// Add validates and persists a job, then signals the daemon.
func (c *Controller) Add(ctx context.Context, req AddRequest) (Result, error) {
	if err := cron.ValidateSchedule(req.Schedule); err != nil {
		return Result{}, err
	}
	job, err := store.NewJob(req.Name, req.Schedule, req.Message, req.SoundEnabled)
	if err != nil {
		return Result{}, err
	}
	if err := c.store.Add(ctx, job); err != nil {
		return Result{}, err
	}
	c.logger.Info("control: job added", "job", job.Name, "schedule", job.Schedule)
	return Result{Job: job, Sound: job.SoundEnabled, Note: c.notifyDaemon()}, nil
}

// Remove deletes the named job, then signals the daemon.
func (c *Controller) Remove(ctx context.Context, name string) (Result, error) {
	if err := c.store.Remove(ctx, name); err != nil {
		return Result{}, err
	}
	c.logger.Info("control: job removed", "job", name)
	return Result{Job: store.Job{Name: name}, Note: c.notifyDaemon()}, nil
}

// ToggleSound flips the sound flag of the named job and reports the new
// value, then signals the daemon.
func (c *Controller) ToggleSound(ctx context.Context, name string) (Result, error) {
	sound, err := c.store.ToggleSound(ctx, name)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("control: sound toggled", "job", name, "sound", sound)
	return Result{Job: store.Job{Name: name, SoundEnabled: sound}, Sound: sound, Note: c.notifyDaemon()}, nil
}

// Refresh asks the daemon to reload. Requests before the daemon consumes
// the signal collapse into one reload.
func (c *Controller) Refresh(_ context.Context) error {
	if !c.signals.HasPID() {
		return ErrNotRunning
	}
	if err := c.signals.RequestRefresh(); err != nil {
		return fmt.Errorf("control: signal refresh: %w", err)
	}
	return nil
}

// notifyDaemon leaves a refresh signal when a daemon is running and returns
// the advisory note for the caller.
func (c *Controller) notifyDaemon() string {
	if !c.signals.HasPID() {
		return "Service is not running. Changes take effect when it starts."
	}
	if err := c.signals.RequestRefresh(); err != nil {
		c.logger.Warn("control: refresh signal failed", "error", err)
		return fmt.Sprintf("Service refresh failed: %v. You may need to restart the service.", err)
	}
	return ""
}

// List returns jobs newest first, limited to head when head > 0.
func (c *Controller) List(ctx context.Context, head int) ([]store.Job, error) {
	return c.store.List(ctx, head)
}

// Detail returns the job with the exact name.
func (c *Controller) Detail(ctx context.Context, name string) (store.Job, error) {
	return c.store.Get(ctx, name)
}

// Search returns jobs whose name contains term.
func (c *Controller) Search(ctx context.Context, term string) ([]store.Job, error) {
	return c.store.Search(ctx, term)
}
