// Package cron evaluates 6-field cron expressions and provides the scheduler
// engine that fires armed notification timers.
package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Sentinel errors for schedule parsing and engine lifecycle.
var (
	ErrInvalidSchedule = errors.New("cron: invalid schedule")
	ErrSchedulerInit   = errors.New("cron: scheduler init failed")
	ErrAlreadyStarted  = errors.New("cron: engine already started")
	ErrEngineStopped   = errors.New("cron: engine stopped")
)

// Format describes the accepted expression layout, used in error hints.
const Format = "second minute hour day month weekday"

// parser accepts second, minute, hour, day-of-month, month and day-of-week,
// plus descriptors such as @hourly.
var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Callback is invoked each time an armed timer fires. The context is
// cancelled when the owning engine shuts down.
type Callback func(ctx context.Context)

// Scheduler is the engine contract consumed by the daemon. Timers are armed
// before Start and can never be removed individually: the whole instance is
// replaced instead.
type Scheduler interface {
	Arm(name, schedule string, fn Callback) error
	Start() error
	Shutdown(ctx context.Context) error
	Len() int
}

// Factory constructs a fresh, empty Scheduler.
type Factory func() (Scheduler, error)

// ParseSchedule parses a 6-field expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression (expected %q)", ErrInvalidSchedule, Format)
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w (expected %q)", ErrInvalidSchedule, expr, err, Format)
	}
	return sched, nil
}

// ValidateSchedule reports whether expr parses under the 6-field grammar.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr)
	return err
}

// Next returns the first fire instant strictly after ref.
func Next(expr string, ref time.Time) (time.Time, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(ref), nil
}
