package awards

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/store"
)

const (
	celtics = "Boston Celtics — Eastern Conference"
	knicks  = "New York Knicks — Eastern Conference"
	nuggets = "Denver Nuggets — Western Conference"
)

// memStore keeps awards keyed like the database unique constraints.
type memStore struct {
	rows      []store.StatRow
	awards    map[string]store.Award
	findErr   error
	createErr error
	calls     int
}

func (m *memStore) FindStatsInRange(_ context.Context, _, _ time.Time) ([]store.StatRow, error) {
	return m.rows, m.findErr
}

func (m *memStore) CreateAward(_ context.Context, a store.Award) error {
	m.calls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.awards == nil {
		m.awards = make(map[string]store.Award)
	}
	key := fmt.Sprintf("%s|%s|%s|%s", a.Kind, a.Period.Start.Format("2006-01-02"), a.Period.End.Format("2006-01-02"), a.Conference)
	if _, exists := m.awards[key]; exists {
		return fmt.Errorf("%s %s award: %w", a.Kind, a.Conference, store.ErrAlreadyAwarded)
	}
	m.awards[key] = a
	return nil
}

func row(id, playerID int64, team string, eff float64) store.StatRow {
	r := store.StatRow{ID: id, PlayerID: playerID, Team: team, PlayerName: fmt.Sprintf("player-%d", playerID)}
	r.Efficiency = eff
	return r
}

var week = store.Period{Start: day(2024, 3, 4), End: day(2024, 3, 10)}

func TestClassify(t *testing.T) {
	assert.Equal(t, store.ConferenceEastern, Classify(celtics))
	assert.Equal(t, store.ConferenceWestern, Classify(nuggets))
	assert.Equal(t, Unclassified, Classify("Boston Celtics"))
	assert.Equal(t, Unclassified, Classify(""))
	assert.Equal(t, Unclassified, Classify("East meets West"))
}

func TestTopPerformerDistinct(t *testing.T) {
	rows := []store.StatRow{row(1, 10, celtics, 12), row(2, 11, celtics, 40.5), row(3, 12, celtics, 33)}
	best, ok := TopPerformer(rows)
	require.True(t, ok)
	assert.Equal(t, int64(11), best.PlayerID)

	_, ok = TopPerformer(nil)
	assert.False(t, ok)
}

func TestTopPerformerTieFirstWins(t *testing.T) {
	rows := []store.StatRow{row(1, 10, celtics, 5), row(2, 11, celtics, 40), row(3, 12, celtics, 40)}
	best, _ := TopPerformer(rows)
	assert.Equal(t, int64(11), best.PlayerID)

	// Negative efficiencies still pick a winner.
	best, _ = TopPerformer([]store.StatRow{row(1, 20, celtics, -3), row(2, 21, celtics, -1)})
	assert.Equal(t, int64(21), best.PlayerID)
}

func TestPartitionKeepsOrder(t *testing.T) {
	groups := Partition([]store.StatRow{
		row(1, 1, celtics, 1), row(2, 2, nuggets, 2), row(3, 3, knicks, 3), row(4, 4, "Free Agent", 4),
	})
	require.Len(t, groups[store.ConferenceEastern], 2)
	assert.Equal(t, int64(1), groups[store.ConferenceEastern][0].PlayerID)
	assert.Equal(t, int64(3), groups[store.ConferenceEastern][1].PlayerID)
	assert.Len(t, groups[store.ConferenceWestern], 1)
	assert.Len(t, groups[Unclassified], 1)
}

func TestDeriveMaxPerConference(t *testing.T) {
	st := &memStore{rows: []store.StatRow{
		row(1, 10, celtics, 25),
		row(2, 20, nuggets, 44),
		row(3, 11, knicks, 31),
		row(4, 21, nuggets, 12),
	}}

	res, err := NewDeriver(st, nil, nil).Derive(context.Background(), store.AwardWeekly, week)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 4, res.Rows)
	require.Len(t, res.Awards, 2)

	east, west := res.Awards[0], res.Awards[1]
	assert.Equal(t, store.ConferenceEastern, east.Conference)
	assert.Equal(t, int64(11), east.PlayerID)
	assert.Equal(t, 31.0, east.Efficiency)
	assert.Equal(t, store.ConferenceWestern, west.Conference)
	assert.Equal(t, int64(20), west.PlayerID)
	assert.Equal(t, week, west.Period)
}

func TestDeriveTieCreatesExactlyOne(t *testing.T) {
	st := &memStore{rows: []store.StatRow{row(1, 10, celtics, 40), row(2, 11, celtics, 40)}}

	res, err := NewDeriver(st, nil, nil).Derive(context.Background(), store.AwardWeekly, week)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, st.awards, 1)
	for _, a := range st.awards {
		assert.Equal(t, int64(10), a.PlayerID)
	}
}

func TestDeriveExcludesUnclassified(t *testing.T) {
	var buf bytes.Buffer
	st := &memStore{rows: []store.StatRow{row(1, 10, "Boston Celtics", 99), row(2, 11, "Team Europe", 50)}}

	res, err := NewDeriver(st, logger.NewWithWriter(&buf), nil).Derive(context.Background(), store.AwardMonthly, week)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Unclassified)
	assert.Zero(t, st.calls)
	assert.Contains(t, buf.String(), "unclassified team")
	assert.Contains(t, buf.String(), "Team Europe")
}

func TestDeriveEmptyPeriod(t *testing.T) {
	st := &memStore{}
	res, err := NewDeriver(st, nil, nil).Derive(context.Background(), store.AwardWeekly, week)
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: store.AwardWeekly, Period: week}, res)
	assert.Zero(t, st.calls)
}

func TestDeriveTwiceIsIdempotent(t *testing.T) {
	st := &memStore{rows: []store.StatRow{row(1, 10, celtics, 30), row(2, 20, nuggets, 20)}}
	d := NewDeriver(st, nil, nil)

	first, err := d.Derive(context.Background(), store.AwardWeekly, week)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := d.Derive(context.Background(), store.AwardWeekly, week)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, st.awards, 2)
}

func TestDeriveErrors(t *testing.T) {
	boom := errors.New("connection reset")

	_, err := NewDeriver(&memStore{findErr: boom}, nil, nil).Derive(context.Background(), store.AwardWeekly, week)
	assert.ErrorIs(t, err, boom)

	st := &memStore{rows: []store.StatRow{row(1, 10, celtics, 30), row(2, 20, nuggets, 20)}, createErr: boom}
	_, err = NewDeriver(st, nil, nil).Derive(context.Background(), store.AwardWeekly, week)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, st.calls, "first failure aborts the derivation")
}
