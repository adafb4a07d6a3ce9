package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_WakesOnSignalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWatcher(dir, []string{"pokeme.refresh"}, testLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	select {
	case <-w.Wake():
		t.Fatal("woken by unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	if err := os.WriteFile(filepath.Join(dir, "pokeme.refresh"), []byte("refresh\n"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	select {
	case <-w.Wake():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wake-up")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	w, err := NewWatcher(t.TempDir(), nil, testLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_MissingDir(t *testing.T) {
	t.Parallel()

	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil, testLogger()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
