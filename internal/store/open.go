package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000

// Options configures Open.
type Options struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int

	// DisableWAL keeps the default rollback journal instead of WAL.
	DisableWAL bool
}

// Open opens (creating if needed) the job database and migrates its schema.
//
// Transactions are opened with BEGIN IMMEDIATE so that the duplicate-name
// check and the insert in Add run under the write lock, even across
// processes. A single connection is used because SQLite serialises writes.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store: database path is required")
	}
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", opts.Path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", opts.Path, err)
	}

	db.SetMaxOpenConns(1)

	if !opts.DisableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return New(db), nil
}
