package suspension

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is the part of Service the scheduler calls.
type Runner interface {
	ApplySuspensions(ctx context.Context, now time.Time) (*RunResult, error)
}

// Job runs the suspension pass on a cron schedule.
type Job struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger
}

func NewJob(runner Runner, schedule string, loc *time.Location, timeout time.Duration, logger *slog.Logger) (*Job, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	j := &Job{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Job) Start() {
	j.logger.Info("suspension scheduler started", "entries", len(j.cron.Entries()))
	j.cron.Start()
}

// Stop waits for a running pass to finish or ctx to end.
func (j *Job) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("suspension scheduler stop timed out")
	}
}

func (j *Job) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	res, err := j.runner.ApplySuspensions(ctx, time.Now())
	if err != nil {
		j.logger.Error("scheduled suspension run failed", "error", err)
		return
	}
	j.logger.Info("scheduled suspension run finished",
		"applied", res.Applied,
		"cleared", res.Cleared,
		"period_year", res.PeriodYear,
		"period_month", res.PeriodMonth)
}
