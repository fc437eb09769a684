package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/accolade/internal/store"
)

// StatsRepository handles daily player stat rows
type StatsRepository struct {
	q store.Querier
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(q store.Querier) *StatsRepository {
	return &StatsRepository{q: q}
}

const statColumns = `
	ps.id, ps.player_id, p.external_id, p.display_name, COALESCE(p.team, ''), COALESCE(p.position, ''),
	ps.stat_date, ps.points, ps.rebounds, ps.assists, ps.steals, ps.blocks, ps.turnovers,
	ps.fgm, ps.fga, ps.fg3m, ps.fg3a, ps.ftm, ps.fta, ps.fg_pct, ps.fg3_pct, ps.ft_pct,
	ps.minutes, ps.games_played, ps.plus_minus, ps.efficiency`

// RecordDaily inserts one stat row for (player, date). A row that already
// exists for that pair is left untouched and inserted reports false.
func (r *StatsRepository) RecordDaily(ctx context.Context, playerID int64, date time.Time, f store.StatFields) (bool, error) {
	query := `
		INSERT INTO player_stats (
			player_id, stat_date, points, rebounds, assists, steals, blocks, turnovers,
			fgm, fga, fg3m, fg3a, ftm, fta, fg_pct, fg3_pct, ft_pct,
			minutes, games_played, plus_minus, efficiency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (player_id, stat_date) DO NOTHING
	`

	res, err := r.q.ExecContext(ctx, query,
		playerID, date.Format("2006-01-02"),
		f.Points, f.Rebounds, f.Assists, f.Steals, f.Blocks, f.Turnovers,
		f.FGM, f.FGA, f.FG3M, f.FG3A, f.FTM, f.FTA,
		f.FGPct, f.FG3Pct, f.FTPct,
		f.Minutes, f.GamesPlayed, f.PlusMinus, f.Efficiency,
	)
	if err != nil {
		return false, fmt.Errorf("inserting player stat: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting player stat: %w", err)
	}
	return n > 0, nil
}

// FindInRange returns every stat row with stat_date in [start, end], joined
// with its player, in insertion order.
func (r *StatsRepository) FindInRange(ctx context.Context, start, end time.Time) ([]store.StatRow, error) {
	query := `SELECT ` + statColumns + `
		FROM player_stats ps
		JOIN players p ON p.id = ps.player_id
		WHERE ps.stat_date BETWEEN $1 AND $2
		ORDER BY ps.id
	`

	rows, err := r.q.QueryContext(ctx, query, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying stats in range: %w", err)
	}
	defer rows.Close()

	return scanStatRows(rows)
}

// TopOnLatestDate returns the highest efficiency rows from the most recent
// ingested day.
func (r *StatsRepository) TopOnLatestDate(ctx context.Context, limit int) ([]store.StatRow, error) {
	query := `SELECT ` + statColumns + `
		FROM player_stats ps
		JOIN players p ON p.id = ps.player_id
		WHERE ps.stat_date = (SELECT MAX(stat_date) FROM player_stats)
		ORDER BY ps.efficiency DESC, ps.id
		LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stat leaders: %w", err)
	}
	defer rows.Close()

	return scanStatRows(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanStatRows(rows rowScanner) ([]store.StatRow, error) {
	var out []store.StatRow
	for rows.Next() {
		var s store.StatRow
		err := rows.Scan(
			&s.ID, &s.PlayerID, &s.ExternalID, &s.PlayerName, &s.Team, &s.Position,
			&s.StatDate, &s.Points, &s.Rebounds, &s.Assists, &s.Steals, &s.Blocks, &s.Turnovers,
			&s.FGM, &s.FGA, &s.FG3M, &s.FG3A, &s.FTM, &s.FTA, &s.FGPct, &s.FG3Pct, &s.FTPct,
			&s.Minutes, &s.GamesPlayed, &s.PlusMinus, &s.Efficiency,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stat row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stat rows: %w", err)
	}
	return out, nil
}
