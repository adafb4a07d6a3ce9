package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/flemzord/pokeme/internal/session"
)

// detachTimeout bounds how long Detach waits for the child's PID file.
const detachTimeout = 5 * time.Second

// Detach re-executes the binary as `service` in a new session with stdio
// redirected to logPath, and returns once the child has written its PID
// file. args are appended after the subcommand.
func Detach(ctx context.Context, sess *session.Session, logPath string, args ...string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("app: locate executable: %w", err)
	}

	out := os.DevNull
	if logPath != "" {
		out = logPath
	}
	logFile, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return 0, fmt.Errorf("app: open daemon log: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	cmd := exec.Command(exe, append([]string{"service"}, args...)...)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("app: start daemon: %w", err)
	}
	pid := cmd.Process.Pid

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	if err := waitForPID(ctx, sess, pid, exited); err != nil {
		return pid, err
	}
	return pid, nil
}

func waitForPID(ctx context.Context, sess *session.Session, pid int, exited <-chan error) error {
	ctx, cancel := context.WithTimeout(ctx, detachTimeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if got, err := sess.ReadPID(); err == nil && got == pid {
			return nil
		}
		select {
		case err := <-exited:
			if err == nil {
				err = errors.New("exited before writing its PID file")
			}
			return fmt.Errorf("app: daemon failed to start: %w", err)
		case <-ctx.Done():
			return fmt.Errorf("app: waiting for daemon PID file: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
