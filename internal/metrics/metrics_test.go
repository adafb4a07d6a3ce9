package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDaemon_NilSafe(t *testing.T) {
	t.Parallel()

	var d *Daemon
	d.SetArmed(3)
	d.ObserveLoad(true, 1)
	d.ObserveNotification(false)
	d.ObservePingFailure()
	if d.Registry() != nil {
		t.Error("nil Daemon returned a registry")
	}
}

func TestDaemon_Counters(t *testing.T) {
	t.Parallel()

	d := New()
	d.SetArmed(2)
	d.ObserveLoad(true, 0)
	d.ObserveLoad(false, 0)
	d.ObserveLoad(true, 3)
	d.ObserveNotification(true)
	d.ObserveNotification(true)
	d.ObserveNotification(false)
	d.ObservePingFailure()

	if got := testutil.ToFloat64(d.armed); got != 2 {
		t.Errorf("jobs_armed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(d.reloads.WithLabelValues(ResultOK)); got != 2 {
		t.Errorf("reloads ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(d.reloads.WithLabelValues(ResultError)); got != 1 {
		t.Errorf("reloads error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(d.loadFailures); got != 3 {
		t.Errorf("load_failures = %v, want 3", got)
	}
	if got := testutil.ToFloat64(d.notifications.WithLabelValues(ResultOK)); got != 2 {
		t.Errorf("notifications ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(d.pingFailures); got != 1 {
		t.Errorf("ping failures = %v, want 1", got)
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0", New(), func() Health {
		return Health{State: "running", Jobs: 4}
	}, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp Health
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.State != "running" || resp.Jobs != 4 {
		t.Errorf("health = %+v", resp)
	}
}

func TestServer_HealthDegraded(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0", nil, func() Health {
		return Health{Status: "degraded", State: "stopping"}
	}, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetArmed(7)
	s := NewServer("127.0.0.1:0", m, nil, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pokeme_jobs_armed 7") {
		t.Errorf("metrics output missing pokeme_jobs_armed:\n%s", rr.Body.String())
	}
}

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0", New(), nil, nil)
	if err := s.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(t.Context()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
