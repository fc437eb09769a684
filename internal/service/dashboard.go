// Package service assembles the read-only dashboard views over stored stats
// and awards.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/store"
	"github.com/fortuna/accolade/internal/store/repository"
)

const (
	cachePrefix      = "dashboard:"
	awardsLimit      = 50
	officialLimit    = 100
	statLeadersLimit = 10
	runsLimit        = 20
)

// Reader is the query side of persistence.
type Reader interface {
	ListWeekly(ctx context.Context, limit int) ([]store.Award, error)
	ListMonthly(ctx context.Context, limit int) ([]store.Award, error)
	ListOfficial(ctx context.Context, kind store.OfficialKind, limit int) ([]store.OfficialAward, error)
	StatLeaders(ctx context.Context, limit int) ([]store.StatRow, error)
	RecentRuns(ctx context.Context, limit int) ([]store.IngestionRun, error)
}

// Cache stores JSON values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type gatewayReader struct {
	g *repository.Gateway
}

// NewGatewayReader adapts the repository gateway to Reader.
func NewGatewayReader(g *repository.Gateway) Reader {
	return gatewayReader{g: g}
}

func (r gatewayReader) ListWeekly(ctx context.Context, limit int) ([]store.Award, error) {
	return r.g.Awards.ListWeekly(ctx, limit)
}

func (r gatewayReader) ListMonthly(ctx context.Context, limit int) ([]store.Award, error) {
	return r.g.Awards.ListMonthly(ctx, limit)
}

func (r gatewayReader) ListOfficial(ctx context.Context, kind store.OfficialKind, limit int) ([]store.OfficialAward, error) {
	return r.g.Official.List(ctx, kind, limit)
}

func (r gatewayReader) StatLeaders(ctx context.Context, limit int) ([]store.StatRow, error) {
	return r.g.Stats.TopOnLatestDate(ctx, limit)
}

func (r gatewayReader) RecentRuns(ctx context.Context, limit int) ([]store.IngestionRun, error) {
	return r.g.Runs.Recent(ctx, limit)
}

// Dashboard serves award and stat views, cached when a Cache is set.
type Dashboard struct {
	reader Reader
	cache  Cache
	ttl    time.Duration
	log    *logger.Logger
}

// NewDashboard creates the read service. cache may be nil.
func NewDashboard(reader Reader, cache Cache, ttl time.Duration, log *logger.Logger) *Dashboard {
	if log == nil {
		log = logger.Nop()
	}
	return &Dashboard{reader: reader, cache: cache, ttl: ttl, log: log.WithField("component", "dashboard")}
}

// cached serves key from the cache, loading and storing it on a miss. Cache
// failures degrade to a direct load.
func cached[T any](ctx context.Context, d *Dashboard, key string, load func(context.Context) (T, error)) (T, error) {
	if d.cache == nil || d.ttl <= 0 {
		return load(ctx)
	}

	var v T
	found, err := d.cache.GetJSON(ctx, cachePrefix+key, &v)
	if err != nil {
		d.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if found {
		return v, nil
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := d.cache.SetJSON(ctx, cachePrefix+key, v, d.ttl); err != nil {
		d.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return v, nil
}

// Invalidate drops every cached view.
func (d *Dashboard) Invalidate(ctx context.Context) error {
	if d.cache == nil {
		return nil
	}
	n, err := d.cache.DeletePrefix(ctx, cachePrefix)
	if err != nil {
		return fmt.Errorf("invalidating dashboard cache: %w", err)
	}
	d.log.WithField("keys", n).Debug("dashboard cache invalidated")
	return nil
}

// Leaders returns the most recent weekly and monthly award of each conference.
func (d *Dashboard) Leaders(ctx context.Context) (Leaders, error) {
	return cached(ctx, d, "leaders", func(ctx context.Context) (Leaders, error) {
		weekly, err := d.reader.ListWeekly(ctx, awardsLimit)
		if err != nil {
			return Leaders{}, fmt.Errorf("fetching weekly leaders: %w", err)
		}
		monthly, err := d.reader.ListMonthly(ctx, awardsLimit)
		if err != nil {
			return Leaders{}, fmt.Errorf("fetching monthly leaders: %w", err)
		}
		return Leaders{Weekly: latestPerConference(weekly), Monthly: latestPerConference(monthly)}, nil
	})
}

// latestPerConference keeps the first award seen for each conference from a
// newest-first list.
func latestPerConference(list []store.Award) []AwardView {
	out := []AwardView{}
	seen := make(map[store.Conference]bool)
	for _, a := range list {
		if seen[a.Conference] {
			continue
		}
		seen[a.Conference] = true
		out = append(out, newAwardView(a))
	}
	return out
}

// WeeklyAwards returns recent weekly awards, newest first.
func (d *Dashboard) WeeklyAwards(ctx context.Context) ([]AwardView, error) {
	return cached(ctx, d, "awards:weekly", func(ctx context.Context) ([]AwardView, error) {
		list, err := d.reader.ListWeekly(ctx, awardsLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching weekly awards: %w", err)
		}
		return awardViews(list), nil
	})
}

// MonthlyAwards returns recent monthly awards, newest first.
func (d *Dashboard) MonthlyAwards(ctx context.Context) ([]AwardView, error) {
	return cached(ctx, d, "awards:monthly", func(ctx context.Context) ([]AwardView, error) {
		list, err := d.reader.ListMonthly(ctx, awardsLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching monthly awards: %w", err)
		}
		return awardViews(list), nil
	})
}

func awardViews(list []store.Award) []AwardView {
	out := make([]AwardView, 0, len(list))
	for _, a := range list {
		out = append(out, newAwardView(a))
	}
	return out
}

// OfficialAwards returns imported league awards of one kind.
func (d *Dashboard) OfficialAwards(ctx context.Context, kind store.OfficialKind) ([]OfficialAwardView, error) {
	return cached(ctx, d, "official:"+string(kind), func(ctx context.Context) ([]OfficialAwardView, error) {
		list, err := d.reader.ListOfficial(ctx, kind, officialLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching official awards: %w", err)
		}
		out := make([]OfficialAwardView, 0, len(list))
		for _, a := range list {
			out = append(out, newOfficialAwardView(a))
		}
		return out, nil
	})
}

// StatLeaders returns the best efficiency lines of the latest ingested day.
func (d *Dashboard) StatLeaders(ctx context.Context) ([]StatLineView, error) {
	return cached(ctx, d, "stats:leaders", func(ctx context.Context) ([]StatLineView, error) {
		rows, err := d.reader.StatLeaders(ctx, statLeadersLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching stat leaders: %w", err)
		}
		out := make([]StatLineView, 0, len(rows))
		for _, r := range rows {
			out = append(out, newStatLineView(r))
		}
		return out, nil
	})
}

// RecentRuns lists the latest ingestion runs. Never cached.
func (d *Dashboard) RecentRuns(ctx context.Context) ([]RunView, error) {
	runs, err := d.reader.RecentRuns(ctx, runsLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching ingestion runs: %w", err)
	}
	out := make([]RunView, 0, len(runs))
	for _, r := range runs {
		out = append(out, newRunView(r))
	}
	return out, nil
}
