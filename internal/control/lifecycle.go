package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/pokeme/internal/session"
)

// StopResult describes how the daemon went down.
type StopResult struct {
	PID int
	// Forced is true when the daemon outlived the grace interval and was
	// sent SIGTERM.
	Forced bool
}

// Stop requests a graceful shutdown by deleting CONTROL, waits up to the
// grace interval for the process to exit, and terminates it otherwise.
// Signal files are cleaned up in every outcome except ErrNotRunning.
func (c *Controller) Stop(ctx context.Context) (StopResult, error) {
	pid, err := c.signals.ReadPID()
	switch {
	case errors.Is(err, session.ErrNoPID):
		return StopResult{}, ErrNotRunning
	case errors.Is(err, session.ErrBadPID):
		c.cleanup()
		return StopResult{}, fmt.Errorf("%w: %w", ErrStaleState, err)
	case err != nil:
		return StopResult{}, err
	}

	res := StopResult{PID: pid}
	if !c.proc.Alive(pid) {
		c.cleanup()
		return res, ErrStaleState
	}

	if err := c.signals.RequestStop(); err != nil {
		c.logger.Warn("control: removing control file", "pid", pid, "error", err)
	}
	c.logger.Info("control: stopping service", "pid", pid)

	exited, err := c.waitExit(ctx, pid)
	if err != nil {
		return res, err
	}
	if !exited {
		c.logger.Warn("control: grace period elapsed, terminating", "pid", pid, "grace", c.grace)
		if err := c.proc.Terminate(pid); err != nil && c.proc.Alive(pid) {
			c.cleanup()
			return res, fmt.Errorf("control: terminate %d: %w", pid, err)
		}
		res.Forced = true
	}

	c.cleanup()
	return res, nil
}

// waitExit polls liveness until the process exits or the grace interval
// elapses.
func (c *Controller) waitExit(ctx context.Context, pid int) (bool, error) {
	deadline := time.NewTimer(c.grace)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		if !c.proc.Alive(pid) {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return !c.proc.Alive(pid), nil
		case <-ticker.C:
		}
	}
}

func (c *Controller) cleanup() {
	if err := c.signals.Cleanup(); err != nil {
		c.logger.Warn("control: removing signal files", "error", err)
	}
}

// Service states reported by Status.
const (
	StateRunning = "running"
	StateStopped = "stopped"
	StateStale   = "stale"
)

// Status is a point-in-time view of the service.
type Status struct {
	State string `json:"state"`
	PID   int    `json:"pid,omitempty"`
	Jobs  int    `json:"jobs"`
}

// Status reports whether the daemon is running and how many jobs are stored.
// It never modifies the signal files.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	jobs, err := c.store.Count(ctx)
	if err != nil {
		return Status{}, err
	}

	st := Status{State: StateStopped, Jobs: jobs}
	pid, err := c.signals.ReadPID()
	switch {
	case errors.Is(err, session.ErrNoPID):
	case err != nil:
		st.State = StateStale
	case c.proc.Alive(pid):
		st.State, st.PID = StateRunning, pid
	default:
		st.State, st.PID = StateStale, pid
	}
	return st, nil
}
