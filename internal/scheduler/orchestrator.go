// Package scheduler runs the daily ingestion: fetch yesterday's box scores,
// store them in one transaction, then derive awards for any period that
// closed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/accolade/internal/awards"
	"github.com/fortuna/accolade/internal/ingest"
	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
	"github.com/fortuna/accolade/internal/store"
)

// Invalidator drops cached reads after new data lands.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Report describes one run.
type Report struct {
	RunID      string         `json:"run_id"`
	Date       time.Time      `json:"date"`
	Source     string         `json:"source"`
	Fetched    int            `json:"fetched"`
	Inserted   int            `json:"inserted"`
	Duplicates int            `json:"duplicates"`
	Weekly     *awards.Result `json:"weekly,omitempty"`
	Monthly    *awards.Result `json:"monthly,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// AwardsCreated totals new awards across both kinds.
func (r Report) AwardsCreated() int {
	n := 0
	if r.Weekly != nil {
		n += r.Weekly.Created
	}
	if r.Monthly != nil {
		n += r.Monthly.Created
	}
	return n
}

// Config holds orchestrator settings
type Config struct {
	// Location decides which calendar day "yesterday" is.
	Location *time.Location
	Locker   Locker
	// Invalidator is optional.
	Invalidator Invalidator
	Now         func() time.Time
}

// Orchestrator wires source, gateway and deriver into a single run.
type Orchestrator struct {
	source  ingest.StatSource
	store   Store
	runs    RunTracker
	deriver *awards.Deriver
	locker  Locker
	cache   Invalidator
	loc     *time.Location
	now     func() time.Time
	log     *logger.Logger
	metrics *metrics.Recorder
}

// NewOrchestrator creates a new orchestrator. log and rec may be nil.
func NewOrchestrator(source ingest.StatSource, st Store, runs RunTracker, cfg Config, log *logger.Logger, rec *metrics.Recorder) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Locker == nil {
		cfg.Locker = &MutexLocker{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Orchestrator{
		source:  source,
		store:   st,
		runs:    runs,
		deriver: awards.NewDeriver(st, log, rec),
		locker:  cfg.Locker,
		cache:   cfg.Invalidator,
		loc:     cfg.Location,
		now:     cfg.Now,
		log:     log.WithField("component", "orchestrator"),
		metrics: rec,
	}
}

// Yesterday is the previous calendar day in the configured location, as
// midnight UTC.
func (o *Orchestrator) Yesterday() time.Time {
	y := o.now().In(o.loc).AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
}

// RunDaily ingests yesterday.
func (o *Orchestrator) RunDaily(ctx context.Context) (Report, error) {
	return o.RunFor(ctx, o.Yesterday())
}

// RunFor ingests one calendar day and derives any award period it closes.
func (o *Orchestrator) RunFor(ctx context.Context, date time.Time) (Report, error) {
	release, err := o.locker.Acquire(ctx)
	if err != nil {
		return Report{}, err
	}
	defer release()

	started := time.Now()
	rep := Report{
		RunID:  uuid.NewString(),
		Date:   ingest.DateOf(date),
		Source: o.source.Name(),
	}
	log := o.log.WithFields(map[string]interface{}{
		"run_id": rep.RunID,
		"date":   rep.Date.Format("2006-01-02"),
		"source": rep.Source,
	})
	log.Info("ingestion run started")

	if err := o.runs.Start(ctx, rep.RunID, rep.Date, rep.Source); err != nil {
		return rep, fmt.Errorf("recording run start: %w", err)
	}

	runErr := o.run(ctx, &rep, log)
	rep.Duration = time.Since(started)

	status := store.RunCompleted
	if runErr != nil {
		status = store.RunFailed
	}
	record := store.IngestionRun{
		ID:             rep.RunID,
		Status:         status,
		RecordsFetched: rep.Fetched,
		StatsInserted:  rep.Inserted,
		AwardsCreated:  rep.AwardsCreated(),
	}
	if err := o.runs.Finish(context.WithoutCancel(ctx), record, runErr); err != nil {
		log.WithError(err).Warn("failed to record run result")
	}
	o.metrics.RecordRun(string(status), rep.Duration)

	if runErr != nil {
		log.WithError(runErr).Error("ingestion run failed")
		return rep, runErr
	}

	if o.cache != nil {
		if err := o.cache.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("failed to invalidate read cache")
		}
	}

	log.WithFields(map[string]interface{}{
		"fetched":        rep.Fetched,
		"inserted":       rep.Inserted,
		"duplicates":     rep.Duplicates,
		"awards_created": rep.AwardsCreated(),
		"duration":       rep.Duration.String(),
	}).Info("ingestion run completed")
	return rep, nil
}

func (o *Orchestrator) run(ctx context.Context, rep *Report, log *logger.Logger) error {
	start, end := awards.DayWindow(rep.Date)
	boxes, err := o.source.Fetch(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetching stats for %s: %w", rep.Date.Format("2006-01-02"), err)
	}
	rep.Fetched = len(boxes)

	inserted, duplicates := 0, 0
	err = o.store.WithinTx(ctx, func(w StatWriter) error {
		inserted, duplicates = 0, 0
		for _, box := range boxes {
			playerID, err := w.UpsertPlayer(ctx, box.Player)
			if err != nil {
				return fmt.Errorf("upserting player %s: %w", box.Player.ExternalID, err)
			}
			ok, err := w.RecordDailyStat(ctx, playerID, rep.Date, box.Stats)
			if err != nil {
				return fmt.Errorf("recording stats for player %s: %w", box.Player.ExternalID, err)
			}
			if ok {
				inserted++
			} else {
				duplicates++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing stats: %w", err)
	}
	rep.Inserted, rep.Duplicates = inserted, duplicates
	o.metrics.AddStatsInserted(inserted)

	if duplicates > 0 {
		log.WithField("duplicates", duplicates).Info("skipped stat rows already stored for this day")
	}

	if awards.IsEndOfWeek(rep.Date) {
		res, err := o.deriver.Derive(ctx, store.AwardWeekly, awards.WeekEnding(rep.Date))
		if err != nil {
			return err
		}
		rep.Weekly = &res
	}

	if awards.IsEndOfMonth(rep.Date) {
		res, err := o.deriver.Derive(ctx, store.AwardMonthly, awards.MonthThrough(rep.Date))
		if err != nil {
			return err
		}
		rep.Monthly = &res
	}

	return nil
}

// IsRunInProgress reports whether err means another run holds the lock.
func IsRunInProgress(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
