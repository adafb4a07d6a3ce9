package notify

import (
	"context"
	"log/slog"
)

// Log writes notifications to a logger. Used when no desktop session is
// reachable (headless hosts, CI).
type Log struct {
	logger *slog.Logger
}

// NewLog returns a logging notifier.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify logs n at info level.
func (l *Log) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notify: notification",
		"title", n.Title,
		"body", n.Body,
		"sound", n.Sound,
		"urgency", n.Urgency.String(),
	)
	return nil
}
