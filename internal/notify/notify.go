// Package notify delivers one-shot messages to the desktop notification
// surface. Delivery is best-effort: the Dispatcher logs failures and never
// propagates them to the caller.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Urgency levels of the freedesktop notification protocol.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Notification is a single message.
type Notification struct {
	Title   string
	Body    string
	Sound   bool
	Urgency Urgency
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Backend names accepted by New.
const (
	BackendAuto       = "auto"
	BackendDBus       = "dbus"
	BackendNotifySend = "notify-send"
	BackendLog        = "log"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("notify: unknown backend")

// Options configures backend construction.
type Options struct {
	Backend   string
	AppName   string
	Icon      string
	SoundName string
	Logger    *slog.Logger
}

func (o *Options) defaults() {
	if o.Backend == "" {
		o.Backend = BackendAuto
	}
	if o.AppName == "" {
		o.AppName = "Poke Me"
	}
	if o.Icon == "" {
		o.Icon = "clock"
	}
	if o.SoundName == "" {
		o.SoundName = "message-new-instant"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// New builds the configured backend. With BackendAuto it tries the session
// D-Bus first, then notify-send when a display is available, and finally
// falls back to logging.
func New(opts Options) (Notifier, error) {
	opts.defaults()

	switch strings.ToLower(opts.Backend) {
	case BackendDBus:
		return NewDBus(opts)
	case BackendNotifySend:
		return NewNotifySend(opts)
	case BackendLog:
		return NewLog(opts.Logger), nil
	case BackendAuto:
		n, err := NewDBus(opts)
		if err == nil {
			return n, nil
		}
		opts.Logger.Debug("notify: dbus unavailable", "error", err)
		if hasDisplay() {
			if n, err := NewNotifySend(opts); err == nil {
				return n, nil
			}
		}
		opts.Logger.Warn("notify: no desktop backend available, logging notifications")
		return NewLog(opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Close releases backend resources when the notifier holds any.
func Close(n Notifier) error {
	if c, ok := n.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
