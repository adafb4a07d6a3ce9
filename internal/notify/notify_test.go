package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_LogBackend(t *testing.T) {
	t.Parallel()

	n, err := New(Options{Backend: BackendLog, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := n.(*Log); !ok {
		t.Fatalf("backend = %T, want *Log", n)
	}
	if err := n.Notify(context.Background(), Notification{Title: "t"}); err != nil {
		t.Errorf("Notify: %v", err)
	}
	if err := Close(n); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Backend: "carrier-pigeon"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestUrgencyString(t *testing.T) {
	t.Parallel()

	tests := map[Urgency]string{
		UrgencyLow:      "low",
		UrgencyNormal:   "normal",
		UrgencyCritical: "critical",
	}
	for u, want := range tests {
		if got := u.String(); got != want {
			t.Errorf("Urgency(%d).String() = %q, want %q", u, got, want)
		}
	}
}

func TestBuildHints(t *testing.T) {
	t.Parallel()

	hints := buildHints(Notification{Urgency: UrgencyNormal}, "bell")
	if _, ok := hints["sound-name"]; ok {
		t.Error("sound-name hint set for silent notification")
	}
	if got := hints["urgency"].Value(); got != byte(1) {
		t.Errorf("urgency hint = %v, want 1", got)
	}

	hints = buildHints(Notification{Sound: true}, "bell")
	if got := hints["sound-name"].Value(); got != "bell" {
		t.Errorf("sound-name hint = %v, want bell", got)
	}
}

func TestNotifySend_Args(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string
	s := &NotifySend{
		path:      "/usr/bin/notify-send",
		appName:   "Poke Me",
		icon:      "clock",
		soundName: "message-new-instant",
		run: func(_ context.Context, name string, args ...string) error {
			gotName, gotArgs = name, args
			return nil
		},
	}

	err := s.Notify(context.Background(), Notification{
		Title: "standup",
		Body:  "join the call",
		Sound: true,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	want := []string{
		"-a", "Poke Me", "-i", "clock", "-u", "low",
		"-h", "string:sound-name:message-new-instant",
		"--", "standup", "join the call",
	}
	if gotName != "/usr/bin/notify-send" {
		t.Errorf("command = %q", gotName)
	}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Errorf("args = %q\nwant %q", gotArgs, want)
	}
}

func TestNotifySend_RunError(t *testing.T) {
	t.Parallel()

	s := &NotifySend{run: func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	}}
	if err := s.Notify(context.Background(), Notification{Title: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDispatcher_SwallowsErrors(t *testing.T) {
	t.Parallel()

	failing := NotifierFunc(func(context.Context, Notification) error {
		return errors.New("bus gone")
	})
	d := NewDispatcher(failing, discardLogger())
	if d.Send(context.Background(), Notification{Title: "x"}) {
		t.Error("Send reported success for failing notifier")
	}
}

func TestDispatcher_AppliesTimeout(t *testing.T) {
	t.Parallel()

	slow := NotifierFunc(func(ctx context.Context, _ Notification) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d := NewDispatcher(slow, discardLogger(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	if d.Send(context.Background(), Notification{Title: "x"}) {
		t.Error("Send reported success after timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Send took %v, timeout not applied", elapsed)
	}
}

func TestDispatcher_RateLimit(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int32
	ok := NotifierFunc(func(context.Context, Notification) error {
		delivered.Add(1)
		return nil
	})
	d := NewDispatcher(ok, discardLogger(), WithRate(0.001, 1))

	if !d.Send(context.Background(), Notification{Title: "first"}) {
		t.Fatal("first Send failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if d.Send(ctx, Notification{Title: "second"}) {
		t.Error("second Send should wait on the limiter and be dropped")
	}
	if got := delivered.Load(); got != 1 {
		t.Errorf("delivered = %d, want 1", got)
	}
}

func TestDispatcher_NoLimiter(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int32
	ok := NotifierFunc(func(context.Context, Notification) error {
		delivered.Add(1)
		return nil
	})
	d := NewDispatcher(ok, discardLogger(), WithRate(0, 0))
	for range 20 {
		d.Send(context.Background(), Notification{Title: "x"})
	}
	if got := delivered.Load(); got != 20 {
		t.Errorf("delivered = %d, want 20", got)
	}
}
