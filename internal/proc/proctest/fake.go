// Package proctest provides an in-memory process table for controller tests.
package proctest

import (
	"fmt"
	"sync"

	"github.com/flemzord/pokeme/internal/proc"
)

// Fake is a scriptable proc.Process.
type Fake struct {
	mu         sync.Mutex
	alive      map[int]bool
	terminated []int

	// TerminateErr, when set, is returned by Terminate.
	TerminateErr error
	// OnTerminate runs after a successful Terminate, e.g. to mimic the
	// daemon cleaning up.
	OnTerminate func(pid int)
}

// Compile-time interface check.
var _ proc.Process = (*Fake)(nil)

// New returns a Fake where the given PIDs are alive.
func New(alive ...int) *Fake {
	f := &Fake{alive: make(map[int]bool)}
	for _, pid := range alive {
		f.alive[pid] = true
	}
	return f
}

// SetAlive marks pid alive or dead.
func (f *Fake) SetAlive(pid int, alive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = alive
}

// Alive implements proc.Process.
func (f *Fake) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

// Terminate implements proc.Process. A successful call marks pid dead.
func (f *Fake) Terminate(pid int) error {
	f.mu.Lock()
	if f.TerminateErr != nil {
		f.mu.Unlock()
		return f.TerminateErr
	}
	if !f.alive[pid] {
		f.mu.Unlock()
		return fmt.Errorf("%w: %d", proc.ErrNoProcess, pid)
	}
	f.alive[pid] = false
	f.terminated = append(f.terminated, pid)
	hook := f.OnTerminate
	f.mu.Unlock()

	if hook != nil {
		hook(pid)
	}
	return nil
}

// Terminated returns the PIDs passed to successful Terminate calls.
func (f *Fake) Terminated() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.terminated...)
}
