// Package awards picks the weekly and monthly top performer of each
// conference from stored daily stats.
package awards

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
	"github.com/fortuna/accolade/internal/store"
)

// Unclassified marks a team name carrying both conference markers or neither.
const Unclassified store.Conference = ""

// Conferences lists the award groups in the order awards are written.
var Conferences = []store.Conference{store.ConferenceEastern, store.ConferenceWestern}

// Store is the slice of the persistence gateway the deriver needs.
type Store interface {
	FindStatsInRange(ctx context.Context, start, end time.Time) ([]store.StatRow, error)
	CreateAward(ctx context.Context, award store.Award) error
}

// Result summarises one derivation.
type Result struct {
	Kind         store.AwardKind `json:"kind"`
	Period       store.Period    `json:"period"`
	Rows         int             `json:"rows"`
	Created      int             `json:"created"`
	Skipped      int             `json:"skipped"`
	Unclassified int             `json:"unclassified"`
	Awards       []store.Award   `json:"awards,omitempty"`
}

// Deriver selects and persists awards for a closing period.
type Deriver struct {
	store   Store
	log     *logger.Logger
	metrics *metrics.Recorder
}

// NewDeriver creates a deriver. log and rec may be nil.
func NewDeriver(st Store, log *logger.Logger, rec *metrics.Recorder) *Deriver {
	if log == nil {
		log = logger.Nop()
	}
	return &Deriver{store: st, log: log.WithField("component", "award_deriver"), metrics: rec}
}

// Classify maps a team name to its conference by substring.
func Classify(team string) store.Conference {
	east := strings.Contains(team, "East")
	west := strings.Contains(team, "West")
	switch {
	case east && !west:
		return store.ConferenceEastern
	case west && !east:
		return store.ConferenceWestern
	default:
		return Unclassified
	}
}

// Partition groups rows by conference, keeping their order. Rows that do
// not classify land under Unclassified.
func Partition(rows []store.StatRow) map[store.Conference][]store.StatRow {
	groups := make(map[store.Conference][]store.StatRow)
	for _, row := range rows {
		c := Classify(row.Team)
		groups[c] = append(groups[c], row)
	}
	return groups
}

// TopPerformer returns the row with the highest efficiency. On a tie the
// earlier row wins. ok is false for an empty slice.
func TopPerformer(rows []store.StatRow) (best store.StatRow, ok bool) {
	for i, row := range rows {
		if i == 0 || row.Efficiency > best.Efficiency {
			best = row
		}
	}
	return best, len(rows) > 0
}

// Derive writes one award per non-empty conference for period. Awards that
// already exist are counted as skipped.
func (d *Deriver) Derive(ctx context.Context, kind store.AwardKind, period store.Period) (Result, error) {
	res := Result{Kind: kind, Period: period}
	log := d.log.WithFields(map[string]interface{}{
		"kind":  string(kind),
		"start": period.Start.Format("2006-01-02"),
		"end":   period.End.Format("2006-01-02"),
	})

	rows, err := d.store.FindStatsInRange(ctx, period.Start, period.End)
	if err != nil {
		return res, fmt.Errorf("deriving %s awards: %w", kind, err)
	}
	res.Rows = len(rows)

	groups := Partition(rows)
	if unclassified := groups[Unclassified]; len(unclassified) > 0 {
		res.Unclassified = len(unclassified)
		teams := make(map[string]bool)
		for _, row := range unclassified {
			teams[row.Team] = true
		}
		names := make([]string, 0, len(teams))
		for t := range teams {
			names = append(names, t)
		}
		sort.Strings(names)
		log.WithFields(map[string]interface{}{
			"rows":  len(unclassified),
			"teams": names,
		}).Warn("excluding stat rows with unclassified team")
	}

	for _, conf := range Conferences {
		best, ok := TopPerformer(groups[conf])
		if !ok {
			log.WithField("conference", string(conf)).Debug("no stat rows for conference")
			continue
		}

		award := store.Award{
			Kind:       kind,
			Period:     period,
			Conference: conf,
			PlayerID:   best.PlayerID,
			Efficiency: best.Efficiency,
			PlayerName: best.PlayerName,
			Team:       best.Team,
		}
		clog := log.WithFields(map[string]interface{}{
			"conference": string(conf),
			"player_id":  best.PlayerID,
			"player":     best.PlayerName,
			"efficiency": best.Efficiency,
		})

		if err := d.store.CreateAward(ctx, award); err != nil {
			if errors.Is(err, store.ErrAlreadyAwarded) {
				res.Skipped++
				clog.Info("award already exists")
				continue
			}
			return res, fmt.Errorf("deriving %s awards: %w", kind, err)
		}

		res.Created++
		res.Awards = append(res.Awards, award)
		clog.Info("award created")
	}

	d.metrics.AddAwardsCreated(string(kind), res.Created)
	return res, nil
}
