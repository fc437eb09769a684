package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/accolade/internal/store"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlayerUpsertReturnsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlayerRepository(db)

	mock.ExpectQuery(`INSERT INTO players`).
		WithArgs("237", "LeBron", "James", "LeBron James", "Los Angeles Lakers — Western Conference", "F").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.Upsert(context.Background(), store.PlayerIdentity{
		ExternalID: "237",
		FirstName:  "LeBron",
		LastName:   "James",
		Team:       "Los Angeles Lakers — Western Conference",
		Position:   "F",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayerUpsertRequiresExternalID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlayerRepository(db)

	_, err := repo.Upsert(context.Background(), store.PlayerIdentity{FirstName: "No", LastName: "Id"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDailyReportsInsertAndSkip(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStatsRepository(db)

	args := []driver.Value{int64(7), "2024-03-10"}
	for i := 0; i < 19; i++ {
		args = append(args, sqlmock.AnyArg())
	}

	mock.ExpectExec(`INSERT INTO player_stats`).WithArgs(args...).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO player_stats`).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 0))

	fields := store.StatFields{Points: 30, Rebounds: 10, Assists: 8, GamesPlayed: 1, Efficiency: 41}

	inserted, err := repo.RecordDaily(context.Background(), 7, day(2024, time.March, 10), fields)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.RecordDaily(context.Background(), 7, day(2024, time.March, 10), fields)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert for the same day is skipped")

	assert.NoError(t, mock.ExpectationsWereMet())
}

var statRowColumns = []string{
	"id", "player_id", "external_id", "display_name", "team", "position",
	"stat_date", "points", "rebounds", "assists", "steals", "blocks", "turnovers",
	"fgm", "fga", "fg3m", "fg3a", "ftm", "fta", "fg_pct", "fg3_pct", "ft_pct",
	"minutes", "games_played", "plus_minus", "efficiency",
}

func TestFindInRangeScansJoinedRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStatsRepository(db)

	rows := sqlmock.NewRows(statRowColumns).
		AddRow(1, 7, "237", "LeBron James", "Los Angeles Lakers — Western Conference", "F",
			day(2024, time.March, 4), 30, 10, 8, 1, 1, 3, 11, 20, 2, 6, 6, 8, 0.55, 0.333, 0.75,
			"36", 1, 12, 35.0).
		AddRow(2, 9, "115", "Stephen Curry", "Golden State Warriors — Western Conference", "G",
			day(2024, time.March, 5), 40, 5, 6, 2, 0, 2, 14, 25, 8, 15, 4, 4, 0.56, 0.533, 1.0,
			"38", 1, nil, 40.0)

	mock.ExpectQuery(`FROM player_stats ps`).
		WithArgs("2024-03-04", "2024-03-10").
		WillReturnRows(rows)

	got, err := repo.FindInRange(context.Background(), day(2024, time.March, 4), day(2024, time.March, 10))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "LeBron James", got[0].PlayerName)
	assert.Equal(t, 35.0, got[0].Efficiency)
	assert.True(t, got[0].PlusMinus.Valid)
	assert.Equal(t, int32(12), got[0].PlusMinus.Int32)
	assert.Equal(t, int64(9), got[1].PlayerID)
	assert.False(t, got[1].PlusMinus.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAwardWeekly(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAwardRepository(db)

	mock.ExpectExec(`INSERT INTO weekly_awards`).
		WithArgs(int64(7), "2024-03-04", "2024-03-10", "Eastern", 42.5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), store.Award{
		Kind:       store.AwardWeekly,
		Period:     store.Period{Start: day(2024, time.March, 4), End: day(2024, time.March, 10)},
		Conference: store.ConferenceEastern,
		PlayerID:   7,
		Efficiency: 42.5,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAwardMonthlyUsesPeriodEnd(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAwardRepository(db)

	mock.ExpectExec(`INSERT INTO monthly_awards`).
		WithArgs(int64(3), 2, 2024, "Western", 30.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), store.Award{
		Kind:       store.AwardMonthly,
		Period:     store.Period{Start: day(2024, time.February, 1), End: day(2024, time.February, 29)},
		Conference: store.ConferenceWestern,
		PlayerID:   3,
		Efficiency: 30,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAwardDuplicateMapsToSentinel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAwardRepository(db)

	mock.ExpectExec(`INSERT INTO weekly_awards`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), store.Award{
		Kind:       store.AwardWeekly,
		Period:     store.Period{Start: day(2024, time.March, 4), End: day(2024, time.March, 10)},
		Conference: store.ConferenceEastern,
		PlayerID:   7,
	})
	assert.ErrorIs(t, err, store.ErrAlreadyAwarded)
}

func TestCreateAwardOtherErrorsPropagate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAwardRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO monthly_awards`).WillReturnError(boom)

	err := repo.Create(context.Background(), store.Award{
		Kind:       store.AwardMonthly,
		Period:     store.Period{Start: day(2024, time.March, 1), End: day(2024, time.March, 31)},
		Conference: store.ConferenceEastern,
		PlayerID:   7,
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, store.ErrAlreadyAwarded)
}

func TestCreateAwardUnknownKind(t *testing.T) {
	db, _ := newMock(t)
	err := NewAwardRepository(db).Create(context.Background(), store.Award{Kind: "yearly"})
	assert.Error(t, err)
}

func TestListMonthlyRebuildsPeriod(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAwardRepository(db)

	created := time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM monthly_awards`).WithArgs(50).WillReturnRows(
		sqlmock.NewRows([]string{"id", "player_id", "display_name", "team", "month", "year", "conference", "efficiency", "created_at"}).
			AddRow(1, 7, "Jayson Tatum", "Boston Celtics — Eastern Conference", 2, 2024, "Eastern", 44.0, created))

	got, err := repo.ListMonthly(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.February, 1), got[0].Period.Start)
	assert.Equal(t, day(2024, time.February, 29), got[0].Period.End)
	assert.Equal(t, store.ConferenceEastern, got[0].Conference)
}

func TestRunStartAndFinish(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRunRepository(db)

	mock.ExpectExec(`INSERT INTO ingestion_runs`).
		WithArgs("run-1", "2024-03-10", "running", "balldontlie").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE ingestion_runs`).
		WithArgs("run-1", "failed", 12, 0, 0, sql.NullString{String: "source unavailable", Valid: true}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, repo.Start(ctx, "run-1", day(2024, time.March, 10), "balldontlie"))
	require.NoError(t, repo.Finish(ctx, store.IngestionRun{
		ID:             "run-1",
		Status:         store.RunFailed,
		RecordsFetched: 12,
	}, errors.New("source unavailable")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunFinishUnknownID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRunRepository(db)

	mock.ExpectExec(`UPDATE ingestion_runs`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finish(context.Background(), store.IngestionRun{ID: "missing", Status: store.RunCompleted}, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailInterruptedSparesRecentRuns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRunRepository(db)

	mock.ExpectExec(`WHERE status = 'running'\s+AND started_at < NOW\(\) - `).
		WithArgs(float64(1200)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.FailInterrupted(context.Background(), 20*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayWithinTxCommits(t *testing.T) {
	db, mock := newMock(t)
	gw := NewGateway(store.NewFromDB(db, nil))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO players`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`INSERT INTO player_stats`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := gw.WithinTx(context.Background(), func(tx *Gateway) error {
		id, err := tx.UpsertPlayer(context.Background(), store.PlayerIdentity{ExternalID: "237", FirstName: "LeBron", LastName: "James"})
		if err != nil {
			return err
		}
		_, err = tx.RecordDailyStat(context.Background(), id, day(2024, time.March, 10), store.StatFields{GamesPlayed: 1})
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayWithinTxRollsBack(t *testing.T) {
	db, mock := newMock(t)
	gw := NewGateway(store.NewFromDB(db, nil))

	boom := errors.New("insert failed")
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO players`).WillReturnError(boom)
	mock.ExpectRollback()

	err := gw.WithinTx(context.Background(), func(tx *Gateway) error {
		_, err := tx.UpsertPlayer(context.Background(), store.PlayerIdentity{ExternalID: "237"})
		return err
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
