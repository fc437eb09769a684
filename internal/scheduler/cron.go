package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fortuna/accolade/internal/logger"
)

// Runner is the job the cron fires.
type Runner interface {
	RunDaily(ctx context.Context) (Report, error)
}

// Cron fires the daily run on a cron schedule.
type Cron struct {
	cron    *cron.Cron
	runner  Runner
	timeout time.Duration
	log     *logger.Logger
}

// NewCron registers runner on schedule, evaluated in loc. A run that is
// still going when the next tick fires is skipped.
func NewCron(schedule string, loc *time.Location, runner Runner, timeout time.Duration, log *logger.Logger) (*Cron, error) {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	log = log.WithField("component", "cron")

	c := &Cron{runner: runner, timeout: timeout, log: log}
	c.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)

	if _, err := c.cron.AddFunc(schedule, c.fire); err != nil {
		return nil, fmt.Errorf("scheduling daily ingestion %q: %w", schedule, err)
	}
	return c, nil
}

// Start begins firing in the background.
func (c *Cron) Start() {
	c.log.Info("starting ingestion schedule")
	c.cron.Start()
}

// Next reports when the job fires next.
func (c *Cron) Next() time.Time {
	entries := c.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops firing and waits for a running job to finish.
func (c *Cron) Stop() {
	c.log.Info("stopping ingestion schedule")
	<-c.cron.Stop().Done()
}

func (c *Cron) fire() {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rep, err := c.runner.RunDaily(ctx)
	switch {
	case IsRunInProgress(err):
		c.log.Warn("scheduled ingestion skipped: another run holds the lock")
	case err != nil:
		c.log.WithError(err).Error("scheduled ingestion failed")
	default:
		c.log.WithFields(map[string]interface{}{
			"run_id": rep.RunID,
			"date":   rep.Date.Format("2006-01-02"),
		}).Info("scheduled ingestion finished")
	}
}

// cronLogger routes robfig/cron's internal logging through zerolog.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
