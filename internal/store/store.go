package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store is the SQLite-backed job table.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle. The schema must already exist;
// use Open to create it.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Add inserts a job. The name existence check and the insert share one
// transaction; a UNIQUE violation from a concurrent writer is also reported
// as ErrDuplicateName.
func (s *Store) Add(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE name = ?", job.Name).Scan(&count); err != nil {
		return fmt.Errorf("store: check name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: a job named %q already exists", ErrDuplicateName, job.Name)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, name, schedule, message, sound_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.Schedule, job.Message, job.SoundEnabled,
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: a job named %q already exists", ErrDuplicateName, job.Name)
		}
		return fmt.Errorf("store: insert job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: a job named %q already exists", ErrDuplicateName, job.Name)
		}
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// ListAll returns every job, oldest first.
func (s *Store) ListAll(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, schedule, message, sound_enabled, created_at
		FROM jobs
		ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

// List returns jobs newest first. A positive head limits the result size.
func (s *Store) List(ctx context.Context, head int) ([]Job, error) {
	query := `
		SELECT id, name, schedule, message, sound_enabled, created_at
		FROM jobs
		ORDER BY created_at DESC, name`
	args := []any{}
	if head > 0 {
		query += " LIMIT ?"
		args = append(args, head)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

// Get returns the job with the exact name.
func (s *Store) Get(ctx context.Context, name string) (Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, schedule, message, sound_enabled, created_at
		FROM jobs
		WHERE name = ?`, name)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Job{}, fmt.Errorf("store: get job: %w", err)
	}
	return job, nil
}

// Search returns jobs whose name contains term, newest first.
func (s *Store) Search(ctx context.Context, term string) ([]Job, error) {
	pattern := "%" + escapeLike(term) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, schedule, message, sound_enabled, created_at
		FROM jobs
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, name`, pattern)
	if err != nil {
		return nil, fmt.Errorf("store: search jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

// Remove deletes a job by name. Returns ErrNotFound if it does not exist.
func (s *Store) Remove(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("store: delete job: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// ToggleSound flips sound_enabled for the named job and returns the new value.
func (s *Store) ToggleSound(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current bool
	err = tx.QueryRowContext(ctx, "SELECT sound_enabled FROM jobs WHERE name = ?", name).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return false, fmt.Errorf("store: read sound setting: %w", err)
	}

	next := !current
	if _, err := tx.ExecContext(ctx, "UPDATE jobs SET sound_enabled = ? WHERE name = ?", next, name); err != nil {
		return false, fmt.Errorf("store: update sound setting: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: commit: %w", err)
	}
	return next, nil
}

// Count returns the number of stored jobs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count jobs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job       Job
		createdAt string
	)
	if err := row.Scan(&job.ID, &job.Name, &job.Schedule, &job.Message, &job.SoundEnabled, &createdAt); err != nil {
		return Job{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Job{}, fmt.Errorf("store: parse created_at %q: %w", createdAt, err)
	}
	job.CreatedAt = t
	return job, nil
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate jobs: %w", err)
	}
	return jobs, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
