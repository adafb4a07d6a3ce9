// Package proc inspects and signals the daemon process by PID.
package proc

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrNoProcess is returned by Terminate when the PID does not exist.
var ErrNoProcess = errors.New("proc: no such process")

// Process is the capability the controller needs over the daemon process.
type Process interface {
	// Alive reports whether a process with pid exists.
	Alive(pid int) bool
	// Terminate sends SIGTERM (or the platform equivalent) to pid.
	Terminate(pid int) error
}

// System implements Process against the host's process table.
type System struct{}

// Compile-time interface check.
var _ Process = System{}

// Alive reports whether pid exists. Errors from the process table count as
// not alive.
func (System) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// Terminate asks pid to exit. PID reuse between Alive and Terminate is an
// accepted limitation.
func (System) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrNoProcess, pid)
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("%w: %d: %w", ErrNoProcess, pid, err)
	}
	if err := p.Terminate(); err != nil {
		return fmt.Errorf("proc: terminate %d: %w", pid, err)
	}
	return nil
}
