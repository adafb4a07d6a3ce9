// Package session owns the liveness signal files shared by the daemon and
// controller processes: PID (daemon claims to be running), CONTROL (its
// absence requests shutdown) and REFRESH (its presence requests a reload).
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sentinel errors for PID file inspection.
var (
	ErrNoPID  = errors.New("session: no PID file")
	ErrBadPID = errors.New("session: malformed PID file")
)

// File names inside the session directory.
const (
	PIDFile     = "pokeme.pid"
	ControlFile = "pokeme.control"
	RefreshFile = "pokeme.refresh"
)

const (
	controlMarker = "running\n"
	refreshMarker = "refresh\n"
)

// Session holds the validated paths of the three signal files.
type Session struct {
	dir     string
	pid     string
	control string
	refresh string
}

// New validates dir, creates it with 0700 permissions if needed, and returns
// a Session rooted there.
func New(dir string) (*Session, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session: directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("session: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("session: create directory %s: %w", abs, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("session: stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("session: %s is not a directory", abs)
	}

	return &Session{
		dir:     abs,
		pid:     filepath.Join(abs, PIDFile),
		control: filepath.Join(abs, ControlFile),
		refresh: filepath.Join(abs, RefreshFile),
	}, nil
}

// Dir returns the session directory.
func (s *Session) Dir() string { return s.dir }

// PIDPath returns the PID file path.
func (s *Session) PIDPath() string { return s.pid }

// ControlPath returns the CONTROL file path.
func (s *Session) ControlPath() string { return s.control }

// RefreshPath returns the REFRESH file path.
func (s *Session) RefreshPath() string { return s.refresh }

// WritePID records the daemon process id.
func (s *Session) WritePID(pid int) error {
	if err := writeAtomic(s.pid, strconv.Itoa(pid)+"\n"); err != nil {
		return fmt.Errorf("session: write PID file: %w", err)
	}
	return nil
}

// ReadPID returns the recorded process id. It returns ErrNoPID when the file
// is absent and ErrBadPID when its content is not a positive integer.
func (s *Session) ReadPID() (int, error) {
	raw, err := os.ReadFile(s.pid)
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNoPID
	}
	if err != nil {
		return 0, fmt.Errorf("session: read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadPID, strings.TrimSpace(string(raw)))
	}
	return pid, nil
}

// HasPID reports whether a PID file exists.
func (s *Session) HasPID() bool {
	_, err := os.Stat(s.pid)
	return err == nil
}

// WriteControl creates the CONTROL marker.
func (s *Session) WriteControl() error {
	if err := writeAtomic(s.control, controlMarker); err != nil {
		return fmt.Errorf("session: write control file: %w", err)
	}
	return nil
}

// ControlPresent reports whether the CONTROL marker exists. Only a definite
// "does not exist" counts as absent, so a transient stat error never reads as
// a shutdown request.
func (s *Session) ControlPresent() bool {
	_, err := os.Stat(s.control)
	return !errors.Is(err, os.ErrNotExist)
}

// RequestStop deletes the CONTROL marker. Absence is not an error.
func (s *Session) RequestStop() error {
	return removeIfExists(s.control)
}

// RequestRefresh creates the REFRESH marker. Writing it again before the
// daemon consumes it is harmless.
func (s *Session) RequestRefresh() error {
	if err := writeAtomic(s.refresh, refreshMarker); err != nil {
		return fmt.Errorf("session: write refresh file: %w", err)
	}
	return nil
}

// RefreshPending reports whether the REFRESH marker exists.
func (s *Session) RefreshPending() bool {
	_, err := os.Stat(s.refresh)
	return err == nil
}

// ConsumeRefresh deletes the REFRESH marker. Absence is not an error.
func (s *Session) ConsumeRefresh() error {
	return removeIfExists(s.refresh)
}

// Cleanup deletes all three files. Each removal is attempted independently.
func (s *Session) Cleanup() error {
	return errors.Join(
		removeIfExists(s.pid),
		removeIfExists(s.control),
		removeIfExists(s.refresh),
	)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeAtomic writes content to a temp file in the same directory and
// renames it over path, so readers never observe a partial file.
func writeAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
