package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRate limits deliveries to r per second with the given burst. A
// non-positive rate disables limiting.
func WithRate(r float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		if r <= 0 {
			d.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// Dispatcher wraps a Notifier with rate limiting, a per-call timeout and
// error swallowing. Safe for concurrent use by engine callbacks.
type Dispatcher struct {
	notifier Notifier
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher returns a dispatcher over n.
func NewDispatcher(n Notifier, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		notifier: n,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send delivers n and reports whether it succeeded. Errors are logged, never
// returned.
func (d *Dispatcher) Send(ctx context.Context, n Notification) bool {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.logger.Warn("notify: dropped by rate limiter", "title", n.Title, "error", err)
			return false
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Warn("notify: delivery failed", "title", n.Title, "error", err)
		return false
	}
	return true
}

// Close releases the underlying notifier.
func (d *Dispatcher) Close() error {
	return Close(d.notifier)
}
