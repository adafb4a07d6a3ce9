package daemon

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/pokeme/internal/cron/crontest"
	"github.com/flemzord/pokeme/internal/notify"
	"github.com/flemzord/pokeme/internal/session"
	"github.com/flemzord/pokeme/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory JobSource.
type fakeStore struct {
	mu      sync.Mutex
	jobs    []store.Job
	listErr error
	pingErr error
	pings   int
}

func (s *fakeStore) ListAll(context.Context) ([]store.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]store.Job(nil), s.jobs...), nil
}

func (s *fakeStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
	return s.pingErr
}

func (s *fakeStore) set(jobs ...store.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = jobs
}

func (s *fakeStore) failList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// job builds a Job without validation so tests can store bad schedules.
func job(name, schedule, message string, sound bool) store.Job {
	return store.Job{
		ID:           name + "-id",
		Name:         name,
		Schedule:     schedule,
		Message:      message,
		SoundEnabled: sound,
		CreatedAt:    time.Now().UTC(),
	}
}

// recordingSender captures dispatched notifications.
type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingSender) Send(_ context.Context, n notify.Notification) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return true
}

func (r *recordingSender) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

// recordingReadiness captures sd_notify states.
type recordingReadiness struct {
	mu     sync.Mutex
	states []string
}

func (r *recordingReadiness) Notify(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingReadiness) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

type harness struct {
	daemon    *Daemon
	store     *fakeStore
	session   *session.Session
	engines   *crontest.Factory
	sender    *recordingSender
	readiness *recordingReadiness
}

func newHarness(t *testing.T, jobs ...store.Job) *harness {
	t.Helper()

	sess, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	h := &harness{
		store:     &fakeStore{jobs: jobs},
		session:   sess,
		engines:   &crontest.Factory{},
		sender:    &recordingSender{},
		readiness: &recordingReadiness{},
	}
	d, err := New(Config{
		Store:        h.store,
		Signals:      sess,
		Engines:      h.engines.New,
		Notifier:     h.sender,
		Logger:       testLogger(),
		Readiness:    h.readiness,
		PID:          4242,
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	h.daemon = d
	return h
}

// tick runs one Tick and fails the test on an unexpected state.
func (h *harness) tick(t *testing.T, want State) {
	t.Helper()
	got, err := h.daemon.Tick(t.Context())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got != want {
		t.Fatalf("Tick state = %v, want %v", got, want)
	}
}
