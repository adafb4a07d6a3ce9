package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flemzord/pokeme/internal/control"
	"github.com/flemzord/pokeme/internal/store"
)

type fakeCommands struct {
	added      []control.AddRequest
	addErr     error
	removeErr  error
	refreshErr error
	note       string
	jobs       []store.Job
	lastHead   int
}

func (f *fakeCommands) Add(_ context.Context, req control.AddRequest) (control.Result, error) {
	if f.addErr != nil {
		return control.Result{}, f.addErr
	}
	f.added = append(f.added, req)
	return control.Result{Job: store.Job{Name: req.Name}, Note: f.note}, nil
}

func (f *fakeCommands) Remove(context.Context, string) (control.Result, error) {
	return control.Result{Note: f.note}, f.removeErr
}

func (f *fakeCommands) ToggleSound(_ context.Context, name string) (control.Result, error) {
	return control.Result{Job: store.Job{Name: name}, Sound: true}, nil
}

func (f *fakeCommands) Refresh(context.Context) error { return f.refreshErr }

func (f *fakeCommands) Status(context.Context) (control.Status, error) {
	return control.Status{State: control.StateRunning, PID: 7, Jobs: len(f.jobs)}, nil
}

func (f *fakeCommands) List(_ context.Context, head int) ([]store.Job, error) {
	f.lastHead = head
	return f.jobs, nil
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return tc.Text
}

func TestAddJob(t *testing.T) {
	t.Parallel()

	cmds := &fakeCommands{note: "Service is not running. Changes take effect when it starts."}
	s := New(cmds, "test")

	res, err := s.handleAdd(t.Context(), call(map[string]any{
		"name":    "standup",
		"cron":    "0 30 9 * * MON-FRI",
		"message": "join",
		"sound":   true,
	}))
	if err != nil {
		t.Fatalf("handleAdd: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}
	if len(cmds.added) != 1 || !cmds.added[0].SoundEnabled || cmds.added[0].Message != "join" {
		t.Errorf("added = %+v", cmds.added)
	}
	if !strings.Contains(text(t, res), "Note:") {
		t.Errorf("advisory note missing: %q", text(t, res))
	}
}

func TestAddJob_MissingArgs(t *testing.T) {
	t.Parallel()

	s := New(&fakeCommands{}, "test")
	res, err := s.handleAdd(t.Context(), call(map[string]any{"name": "x"}))
	if err != nil {
		t.Fatalf("handleAdd: %v", err)
	}
	if !res.IsError {
		t.Error("expected tool error for missing cron")
	}
}

func TestAddJob_Duplicate(t *testing.T) {
	t.Parallel()

	s := New(&fakeCommands{addErr: store.ErrDuplicateName}, "test")
	res, _ := s.handleAdd(t.Context(), call(map[string]any{"name": "x", "cron": "* * * * * *"}))
	if !res.IsError || !strings.Contains(text(t, res), "already exists") {
		t.Errorf("result = %+v", res)
	}
}

func TestRemoveJob_NotFound(t *testing.T) {
	t.Parallel()

	s := New(&fakeCommands{removeErr: store.ErrNotFound}, "test")
	res, _ := s.handleRemove(t.Context(), call(map[string]any{"name": "ghost"}))
	if !res.IsError || !strings.Contains(text(t, res), "No job") {
		t.Errorf("result = %+v", res)
	}
}

func TestToggleSound(t *testing.T) {
	t.Parallel()

	s := New(&fakeCommands{}, "test")
	res, _ := s.handleToggleSound(t.Context(), call(map[string]any{"name": "a"}))
	if got := text(t, res); !strings.Contains(got, "ON") {
		t.Errorf("text = %q", got)
	}
}

func TestRefresh_NotRunning(t *testing.T) {
	t.Parallel()

	s := New(&fakeCommands{refreshErr: control.ErrNotRunning}, "test")
	res, _ := s.handleRefresh(t.Context(), call(nil))
	if !res.IsError || !strings.Contains(text(t, res), "not running") {
		t.Errorf("result = %+v", res)
	}
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	cmds := &fakeCommands{}
	s := New(cmds, "test")

	res, _ := s.handleList(t.Context(), call(nil))
	if got := text(t, res); got != "No jobs scheduled yet" {
		t.Errorf("empty list text = %q", got)
	}

	cmds.jobs = []store.Job{{Name: "water-plants", Schedule: "0 0 9 * * *", CreatedAt: time.Now()}}
	res, _ = s.handleList(t.Context(), call(map[string]any{"head": 3}))
	if got := text(t, res); !strings.Contains(got, `"name": "water-plants"`) {
		t.Errorf("list text = %q", got)
	}
	if cmds.lastHead != 3 {
		t.Errorf("head = %d, want 3", cmds.lastHead)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	s := New(&fakeCommands{}, "test")
	res, _ := s.handleStatus(t.Context(), call(nil))
	if got := text(t, res); !strings.Contains(got, `"state": "running"`) {
		t.Errorf("status text = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	if got := describe(errors.New("boom")); got != "boom" {
		t.Errorf("describe = %q", got)
	}
}
