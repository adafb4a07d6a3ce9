package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type engineState int

const (
	stateIdle engineState = iota
	stateStarted
	stateStopped
)

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	location string
}

// WithLocation evaluates schedules in the named IANA time zone instead of
// the local zone.
func WithLocation(name string) EngineOption {
	return func(o *engineOptions) { o.location = name }
}

// Engine owns one generation of armed timers backed by robfig/cron.
// Each timer is protected by its own mutex so a slow callback never runs
// concurrently with itself (uses TryLock, the tick is skipped).
type Engine struct {
	mu     sync.Mutex
	cron   *cron.Cron
	state  engineState
	armed  int
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// Compile-time interface check.
var _ Scheduler = (*Engine)(nil)

// NewEngine creates an empty engine. It fails with ErrSchedulerInit when the
// configured time zone cannot be loaded.
func NewEngine(logger *slog.Logger, opts ...EngineOption) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	loc := time.Local
	if o.location != "" {
		l, err := time.LoadLocation(o.location)
		if err != nil {
			return nil, fmt.Errorf("%w: load location %q: %w", ErrSchedulerInit, o.location, err)
		}
		loc = l
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	e.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{logger: logger})),
	)
	return e, nil
}

// NewFactory returns a Factory producing Engines with the given options.
func NewFactory(logger *slog.Logger, opts ...EngineOption) Factory {
	return func() (Scheduler, error) {
		return NewEngine(logger, opts...)
	}
}

// Arm registers a timer. Must be called before Start. The name is only used
// for logging.
func (e *Engine) Arm(name, schedule string, fn Callback) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateStarted:
		return fmt.Errorf("cron: arm %q: %w", name, ErrAlreadyStarted)
	case stateStopped:
		return fmt.Errorf("cron: arm %q: %w", name, ErrEngineStopped)
	}

	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	lock := &sync.Mutex{}
	e.cron.Schedule(sched, cron.FuncJob(func() {
		// If the previous firing is still running, skip this one.
		if !lock.TryLock() {
			e.logger.Warn("cron: timer still running, skipping tick", "job", name)
			return
		}
		defer lock.Unlock()

		e.logger.Debug("cron: timer fired", "job", name)
		fn(e.ctx)
	}))
	e.armed++
	return nil
}

// Start begins firing armed timers.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateStarted:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrEngineStopped
	}

	e.cron.Start()
	e.state = stateStarted
	e.logger.Debug("cron: engine started", "timers", e.armed)
	return nil
}

// Shutdown stops all firing and waits for in-flight callbacks until ctx is
// done. The engine cannot be reused afterwards. Safe to call more than once.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.state == stateStopped {
		e.mu.Unlock()
		return nil
	}
	e.state = stateStopped
	e.cancel()
	done := e.cron.Stop().Done()
	e.mu.Unlock()

	select {
	case <-done:
		e.logger.Debug("cron: engine stopped", "timers", e.armed)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: waiting for running timers: %w", ctx.Err())
	}
}

// Len returns the number of armed timers.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armed
}

// cronLogger adapts slog to the cron.Logger interface used by the Recover
// job wrapper.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
