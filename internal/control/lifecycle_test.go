package control

import (
	"errors"
	"os"
	"testing"
	"time"
)

func assertCleaned(t *testing.T, f *fixture) {
	t.Helper()
	for _, p := range []string{f.session.PIDPath(), f.session.ControlPath(), f.session.RefreshPath()} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still present", p)
		}
	}
}

func TestStop_NotRunning(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.ctl.Stop(t.Context()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
}

func TestStop_StalePID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.runDaemon(t)
	_ = f.session.RequestRefresh()
	f.proc.SetAlive(daemonPID, false)

	if _, err := f.ctl.Stop(t.Context()); !errors.Is(err, ErrStaleState) {
		t.Fatalf("err = %v, want ErrStaleState", err)
	}
	assertCleaned(t, f)
	if len(f.proc.Terminated()) != 0 {
		t.Error("Terminate called for a dead process")
	}
}

func TestStop_GarbledPIDIsStale(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := os.WriteFile(f.session.PIDPath(), []byte("not-a-pid"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := f.ctl.Stop(t.Context()); !errors.Is(err, ErrStaleState) {
		t.Fatalf("err = %v, want ErrStaleState", err)
	}
	assertCleaned(t, f)
}

func TestStop_GracefulExit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.runDaemon(t)

	// The "daemon" exits shortly after CONTROL disappears.
	go func() {
		for f.session.ControlPresent() {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		f.proc.SetAlive(daemonPID, false)
	}()

	start := time.Now()
	res, err := f.ctl.Stop(t.Context())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.Forced {
		t.Error("Forced = true for graceful exit")
	}
	if res.PID != daemonPID {
		t.Errorf("PID = %d", res.PID)
	}
	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Errorf("Stop took %v, should return before the grace interval", elapsed)
	}
	if len(f.proc.Terminated()) != 0 {
		t.Error("Terminate called after graceful exit")
	}
	assertCleaned(t, f)
}

func TestStop_ForcedAfterGrace(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.runDaemon(t)

	res, err := f.ctl.Stop(t.Context())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !res.Forced {
		t.Error("Forced = false for hung daemon")
	}
	if got := f.proc.Terminated(); len(got) != 1 || got[0] != daemonPID {
		t.Errorf("Terminated = %v", got)
	}
	assertCleaned(t, f)
}

func TestStop_TerminateFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.runDaemon(t)
	f.proc.TerminateErr = errors.New("operation not permitted")

	if _, err := f.ctl.Stop(t.Context()); err == nil {
		t.Fatal("expected error when terminate fails")
	}
	assertCleaned(t, f)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.ctl.Add(t.Context(), AddRequest{Name: "a", Schedule: "* * * * * *"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	st, err := f.ctl.Status(t.Context())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateStopped || st.Jobs != 1 {
		t.Errorf("status = %+v", st)
	}

	f.runDaemon(t)
	st, _ = f.ctl.Status(t.Context())
	if st.State != StateRunning || st.PID != daemonPID {
		t.Errorf("status = %+v", st)
	}

	f.proc.SetAlive(daemonPID, false)
	st, _ = f.ctl.Status(t.Context())
	if st.State != StateStale {
		t.Errorf("status = %+v", st)
	}
	if !f.session.HasPID() {
		t.Error("Status must not clean up signal files")
	}
}
