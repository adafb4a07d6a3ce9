package daemon

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/flemzord/pokeme/internal/cron"
	"github.com/flemzord/pokeme/internal/notify"
)

// LoadFailure records one job that could not be armed. The load continues
// past it.
type LoadFailure struct {
	Job string
	Err error
}

func (f *LoadFailure) Error() string {
	return fmt.Sprintf("daemon: load job %q: %v", f.Job, f.Err)
}

func (f *LoadFailure) Unwrap() error { return f.Err }

// LoadReport summarises one engine generation.
type LoadReport struct {
	Total    int
	Armed    int
	Failures []*LoadFailure
}

// snapshot is the immutable copy captured by a timer callback. Later edits
// to the stored job only take effect through a reload.
type snapshot struct {
	name    string
	message string
	sound   bool
}

// load builds a fresh engine from the current store contents and starts it.
// A factory or list error aborts the load and no engine is returned.
func (d *Daemon) load(ctx context.Context) (cron.Scheduler, LoadReport, error) {
	ctx, span := d.tracer.Start(ctx, "daemon.load")
	defer span.End()

	var report LoadReport

	engine, err := d.cfg.Engines()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine init")
		return nil, report, fmt.Errorf("daemon: create engine: %w", err)
	}

	jobs, err := d.cfg.Store.ListAll(ctx)
	if err != nil {
		_ = engine.Shutdown(context.WithoutCancel(ctx))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list jobs")
		return nil, report, fmt.Errorf("daemon: list jobs: %w", err)
	}

	report.Total = len(jobs)
	for _, job := range jobs {
		snap := snapshot{name: job.Name, message: job.Message, sound: job.SoundEnabled}
		if err := engine.Arm(job.Name, job.Schedule, d.fire(snap)); err != nil {
			failure := &LoadFailure{Job: job.Name, Err: err}
			report.Failures = append(report.Failures, failure)
			d.logger.Warn("daemon: skipping job", "job", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		report.Armed++
		d.logger.Debug("daemon: job armed", "job", job.Name, "schedule", job.Schedule)
	}

	if err := engine.Start(); err != nil {
		_ = engine.Shutdown(context.WithoutCancel(ctx))
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine start")
		return nil, report, fmt.Errorf("daemon: start engine: %w", err)
	}

	span.SetAttributes(
		attribute.Int("jobs.total", report.Total),
		attribute.Int("jobs.armed", report.Armed),
		attribute.Int("jobs.failed", len(report.Failures)),
	)
	return engine, report, nil
}

// fire returns the timer callback for one job.
func (d *Daemon) fire(snap snapshot) cron.Callback {
	return func(ctx context.Context) {
		d.logger.Info("daemon: job fired", "job", snap.name)
		ok := d.cfg.Notifier.Send(ctx, notify.Notification{
			Title:   snap.name,
			Body:    snap.message,
			Sound:   snap.sound,
			Urgency: notify.UrgencyNormal,
		})
		d.cfg.Metrics.ObserveNotification(ok)
	}
}
