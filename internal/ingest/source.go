// Package ingest defines the stat source contract shared by every provider
// and the derived efficiency score used to rank performances.
package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fortuna/accolade/internal/store"
)

// ErrSourceUnavailable wraps every provider or network failure so callers can
// tell an upstream outage apart from a persistence error.
var ErrSourceUnavailable = errors.New("stat source unavailable")

// BoxScore is one player's line for one game.
type BoxScore struct {
	Player   store.PlayerIdentity
	GameDate time.Time
	Stats    store.StatFields
}

// StatSource fetches box scores whose game date lies in [start, end].
// Implementations do not retry.
type StatSource interface {
	Name() string
	Fetch(ctx context.Context, start, end time.Time) ([]BoxScore, error)
}

// Efficiency is PTS + REB + AST + STL + BLK minus missed field goals, missed
// free throws and turnovers.
func Efficiency(f store.StatFields) float64 {
	missedFG := f.FGA - f.FGM
	missedFT := f.FTA - f.FTM
	return float64(f.Points + f.Rebounds + f.Assists + f.Steals + f.Blocks - missedFG - missedFT - f.Turnovers)
}

// Pct returns made/attempted, or 0 when nothing was attempted.
func Pct(made, attempted int) float64 {
	if attempted <= 0 {
		return 0
	}
	return float64(made) / float64(attempted)
}

// ExternalID scopes a provider's player id by source name, e.g.
// "bbref:jamesle01". Providers number players differently, so the same
// person ingested from two sources is two players. An empty id stays empty.
func ExternalID(source, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return source + ":" + id
}

// Finalize fills the derived fields of a box score.
func Finalize(b *BoxScore) {
	b.Stats.Efficiency = Efficiency(b.Stats)
}

// InWindow reports whether the calendar day of t lies in [start, end].
func InWindow(t, start, end time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(start)) && !d.After(DateOf(end))
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
