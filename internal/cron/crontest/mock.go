// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"

	"github.com/flemzord/pokeme/internal/cron"
)

// Timer is one timer armed on a FakeEngine.
type Timer struct {
	Name     string
	Schedule string
	Fn       cron.Callback
}

// FakeEngine is an in-memory cron.Scheduler that never fires on its own.
// Tests trigger timers explicitly with Fire.
type FakeEngine struct {
	// ArmErr, when set, is returned by Arm for the named jobs.
	ArmErr map[string]error
	// StartErr is returned by Start.
	StartErr error

	mu       sync.Mutex
	timers   []Timer
	started  bool
	shutdown bool
}

// Compile-time interface check.
var _ cron.Scheduler = (*FakeEngine)(nil)

// Arm implements cron.Scheduler. Schedules are validated with the real parser.
func (e *FakeEngine) Arm(name, schedule string, fn cron.Callback) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return cron.ErrAlreadyStarted
	}
	if e.shutdown {
		return cron.ErrEngineStopped
	}
	if err, ok := e.ArmErr[name]; ok {
		return err
	}
	if err := cron.ValidateSchedule(schedule); err != nil {
		return err
	}
	e.timers = append(e.timers, Timer{Name: name, Schedule: schedule, Fn: fn})
	return nil
}

// Start implements cron.Scheduler.
func (e *FakeEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.StartErr != nil {
		return e.StartErr
	}
	if e.started {
		return cron.ErrAlreadyStarted
	}
	if e.shutdown {
		return cron.ErrEngineStopped
	}
	e.started = true
	return nil
}

// Shutdown implements cron.Scheduler.
func (e *FakeEngine) Shutdown(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown = true
	return nil
}

// Len implements cron.Scheduler.
func (e *FakeEngine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Names returns the armed timer names in arm order.
func (e *FakeEngine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.timers))
	for i, t := range e.timers {
		names[i] = t.Name
	}
	return names
}

// Timers returns a copy of the armed timers.
func (e *FakeEngine) Timers() []Timer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Timer(nil), e.timers...)
}

// Started reports whether Start succeeded.
func (e *FakeEngine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// IsShutdown reports whether Shutdown was called.
func (e *FakeEngine) IsShutdown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}

// Fire runs the callbacks of every timer with the given name, as long as the
// engine is started and not shut down. It returns the number of callbacks run.
func (e *FakeEngine) Fire(ctx context.Context, name string) int {
	e.mu.Lock()
	if !e.started || e.shutdown {
		e.mu.Unlock()
		return 0
	}
	var fns []cron.Callback
	for _, t := range e.timers {
		if t.Name == name {
			fns = append(fns, t.Fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
	return len(fns)
}

// Factory records every engine it creates.
type Factory struct {
	// InitErr, when non-nil, makes New fail with this error.
	InitErr error
	// Configure, when set, is applied to each new engine before it is returned.
	Configure func(*FakeEngine)

	mu      sync.Mutex
	engines []*FakeEngine
}

// New implements cron.Factory.
func (f *Factory) New() (cron.Scheduler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.InitErr != nil {
		return nil, f.InitErr
	}
	e := &FakeEngine{}
	if f.Configure != nil {
		f.Configure(e)
	}
	f.engines = append(f.engines, e)
	return e, nil
}

// Engines returns every engine created so far.
func (f *Factory) Engines() []*FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeEngine(nil), f.engines...)
}

// Current returns the most recently created engine, or nil.
func (f *Factory) Current() *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}
