package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runFunc executes a command. Swapped in tests.
type runFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// NotifySend shells out to libnotify's notify-send.
type NotifySend struct {
	path      string
	appName   string
	icon      string
	soundName string
	run       runFunc
}

// NewNotifySend locates notify-send on PATH.
func NewNotifySend(opts Options) (*NotifySend, error) {
	opts.defaults()

	path, err := exec.LookPath("notify-send")
	if err != nil {
		return nil, fmt.Errorf("notify: notify-send not found: %w", err)
	}
	return &NotifySend{
		path:      path,
		appName:   opts.AppName,
		icon:      opts.Icon,
		soundName: opts.SoundName,
		run:       runCommand,
	}, nil
}

// Notify runs notify-send once.
func (s *NotifySend) Notify(ctx context.Context, n Notification) error {
	if err := s.run(ctx, s.path, s.args(n)...); err != nil {
		return fmt.Errorf("notify: notify-send: %w", err)
	}
	return nil
}

func (s *NotifySend) args(n Notification) []string {
	args := []string{
		"-a", s.appName,
		"-i", s.icon,
		"-u", n.Urgency.String(),
	}
	if n.Sound && s.soundName != "" {
		args = append(args, "-h", "string:sound-name:"+s.soundName)
	}
	args = append(args, "--", n.Title)
	if n.Body != "" {
		args = append(args, n.Body)
	}
	return args
}
