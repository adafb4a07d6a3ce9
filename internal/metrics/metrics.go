// Package metrics exposes daemon counters as Prometheus collectors and serves
// them, with a health probe, over an optional local HTTP endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "pokeme"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Daemon holds the collectors updated by the daemon loop and its timer
// callbacks. All methods are safe on a nil receiver so callers never need to
// guard optional metrics.
type Daemon struct {
	registry *prometheus.Registry

	armed         prometheus.Gauge
	reloads       *prometheus.CounterVec
	loadFailures  prometheus.Counter
	notifications *prometheus.CounterVec
	pingFailures  prometheus.Counter
}

// New creates a Daemon with its own registry, including the Go runtime and
// process collectors.
func New() *Daemon {
	d := &Daemon{
		registry: prometheus.NewRegistry(),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_armed",
			Help:      "Number of timers armed in the current engine generation.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Engine loads performed, by result.",
		}, []string{"result"}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Jobs skipped during a load because they could not be armed.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications dispatched, by result.",
		}, []string{"result"}),
		pingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_ping_failures_total",
			Help:      "Failed job store liveness probes.",
		}),
	}

	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		d.armed,
		d.reloads,
		d.loadFailures,
		d.notifications,
		d.pingFailures,
	)
	return d
}

// Registry returns the registry backing the collectors.
func (d *Daemon) Registry() *prometheus.Registry {
	if d == nil {
		return nil
	}
	return d.registry
}

// SetArmed records the timer count of the live engine.
func (d *Daemon) SetArmed(n int) {
	if d == nil {
		return
	}
	d.armed.Set(float64(n))
}

// ObserveLoad records one engine load and the jobs it skipped.
func (d *Daemon) ObserveLoad(ok bool, failures int) {
	if d == nil {
		return
	}
	d.reloads.WithLabelValues(result(ok)).Inc()
	if failures > 0 {
		d.loadFailures.Add(float64(failures))
	}
}

// ObserveNotification records one dispatch outcome.
func (d *Daemon) ObserveNotification(ok bool) {
	if d == nil {
		return
	}
	d.notifications.WithLabelValues(result(ok)).Inc()
}

// ObservePingFailure records a failed store probe.
func (d *Daemon) ObservePingFailure() {
	if d == nil {
		return
	}
	d.pingFailures.Inc()
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}
