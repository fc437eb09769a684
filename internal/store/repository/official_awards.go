package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/accolade/internal/store"
)

// OfficialAwardRepository stores league awards imported from basketball-reference
type OfficialAwardRepository struct {
	q store.Querier
}

// NewOfficialAwardRepository creates a new official award repository
func NewOfficialAwardRepository(q store.Querier) *OfficialAwardRepository {
	return &OfficialAwardRepository{q: q}
}

// Insert stores an award unless an identical one exists; inserted reports
// whether a row was written.
func (r *OfficialAwardRepository) Insert(ctx context.Context, a store.OfficialAward) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO official_awards (kind, player_name, team_abbr, conference, week_start, week_end, month, year, league, source_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`, string(a.Kind), a.PlayerName, a.TeamAbbr, a.Conference,
		a.WeekStart, a.WeekEnd, a.Month, a.Year, a.League, a.SourceURL)
	if err != nil {
		return false, fmt.Errorf("inserting official award: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting official award: %w", err)
	}
	return n > 0, nil
}

// List returns the latest imported awards of one kind.
func (r *OfficialAwardRepository) List(ctx context.Context, kind store.OfficialKind, limit int) ([]store.OfficialAward, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, kind, player_name, team_abbr, conference, week_start, week_end, month, year, league, source_url, created_at
		FROM official_awards
		WHERE kind = $1
		ORDER BY COALESCE(week_end, make_date(year, month, 1)) DESC, conference
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("querying official awards: %w", err)
	}
	defer rows.Close()

	var out []store.OfficialAward
	for rows.Next() {
		var a store.OfficialAward
		var k string
		if err := rows.Scan(&a.ID, &k, &a.PlayerName, &a.TeamAbbr, &a.Conference,
			&a.WeekStart, &a.WeekEnd, &a.Month, &a.Year, &a.League, &a.SourceURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning official award: %w", err)
		}
		a.Kind = store.OfficialKind(k)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating official awards: %w", err)
	}
	return out, nil
}
