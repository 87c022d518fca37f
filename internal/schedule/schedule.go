// Package schedule runs a job repeatedly on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/amonks/prereq/internal/logging"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Parse parses a five-field cron expression or a descriptor such as
// "@hourly" or "@every 15m".
func Parse(expr string) (cron.Schedule, error) {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Runner calls a job each time its schedule fires.
type Runner struct {
	name       string
	schedule   cron.Schedule
	job        Job
	logger     *zap.Logger
	runAtStart bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// RunAtStart runs the job once before waiting for the first tick.
func RunAtStart() Option {
	return func(r *Runner) {
		r.runAtStart = true
	}
}

// NewRunner returns a runner for job.
func NewRunner(name string, schedule cron.Schedule, job Job, opts ...Option) *Runner {
	r := &Runner{
		name:     name,
		schedule: schedule,
		job:      job,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks, running the job on schedule until ctx is cancelled. Job
// errors and panics are logged and do not stop the runner.
func (r *Runner) Run(ctx context.Context) error {
	if r.runAtStart {
		r.runOnce(ctx)
	}

	for {
		now := time.Now()
		next := r.schedule.Next(now)
		if next.IsZero() {
			r.logger.Info("schedule exhausted", zap.String("name", r.name))
			return nil
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("task stopped", zap.String("name", r.name))
			return ctx.Err()
		case <-timer.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("task panic",
				zap.String("name", r.name),
				zap.Any("panic", p),
				zap.Stack("stack"))
		}
	}()

	r.logger.Debug("task running", zap.String("name", r.name))
	start := time.Now()
	if err := r.job(ctx); err != nil {
		r.logger.Error("task failed", zap.String("name", r.name), zap.Error(err))
		return
	}
	r.logger.Debug("task finished",
		zap.String("name", r.name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Time(logging.FieldSchedule, r.schedule.Next(time.Now())),
	)
}
