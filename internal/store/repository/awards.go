package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/accolade/internal/store"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// AwardRepository persists weekly and monthly awards
type AwardRepository struct {
	q store.Querier
}

// NewAwardRepository creates a new award repository
func NewAwardRepository(q store.Querier) *AwardRepository {
	return &AwardRepository{q: q}
}

// Create inserts an award row. A row that already exists for the same period
// and conference yields store.ErrAlreadyAwarded.
func (r *AwardRepository) Create(ctx context.Context, a store.Award) error {
	var err error
	switch a.Kind {
	case store.AwardWeekly:
		_, err = r.q.ExecContext(ctx, `
			INSERT INTO weekly_awards (player_id, week_start, week_end, conference, efficiency)
			VALUES ($1, $2, $3, $4, $5)
		`, a.PlayerID, a.Period.Start.Format("2006-01-02"), a.Period.End.Format("2006-01-02"), string(a.Conference), a.Efficiency)
	case store.AwardMonthly:
		_, err = r.q.ExecContext(ctx, `
			INSERT INTO monthly_awards (player_id, month, year, conference, efficiency)
			VALUES ($1, $2, $3, $4, $5)
		`, a.PlayerID, a.Month(), a.Year(), string(a.Conference), a.Efficiency)
	default:
		return fmt.Errorf("creating award: unknown kind %q", a.Kind)
	}

	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s award: %w", a.Kind, a.Conference, store.ErrAlreadyAwarded)
	}
	if err != nil {
		return fmt.Errorf("creating %s award: %w", a.Kind, err)
	}
	return nil
}

// ListWeekly returns the most recent weekly awards, newest first.
func (r *AwardRepository) ListWeekly(ctx context.Context, limit int) ([]store.Award, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT wa.id, wa.player_id, p.display_name, COALESCE(p.team, ''),
			wa.week_start, wa.week_end, wa.conference, wa.efficiency, wa.created_at
		FROM weekly_awards wa
		JOIN players p ON p.id = wa.player_id
		ORDER BY wa.week_end DESC, wa.conference
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying weekly awards: %w", err)
	}
	defer rows.Close()

	var out []store.Award
	for rows.Next() {
		a := store.Award{Kind: store.AwardWeekly}
		var conf string
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.PlayerName, &a.Team,
			&a.Period.Start, &a.Period.End, &conf, &a.Efficiency, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning weekly award: %w", err)
		}
		a.Conference = store.Conference(conf)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weekly awards: %w", err)
	}
	return out, nil
}

// ListMonthly returns the most recent monthly awards, newest first.
func (r *AwardRepository) ListMonthly(ctx context.Context, limit int) ([]store.Award, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ma.id, ma.player_id, p.display_name, COALESCE(p.team, ''),
			ma.month, ma.year, ma.conference, ma.efficiency, ma.created_at
		FROM monthly_awards ma
		JOIN players p ON p.id = ma.player_id
		ORDER BY ma.year DESC, ma.month DESC, ma.conference
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying monthly awards: %w", err)
	}
	defer rows.Close()

	var out []store.Award
	for rows.Next() {
		a := store.Award{Kind: store.AwardMonthly}
		var conf string
		var month, year int
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.PlayerName, &a.Team,
			&month, &year, &conf, &a.Efficiency, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning monthly award: %w", err)
		}
		a.Conference = store.Conference(conf)
		a.Period = monthPeriod(year, time.Month(month))
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monthly awards: %w", err)
	}
	return out, nil
}

func monthPeriod(year int, month time.Month) store.Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return store.Period{Start: start, End: start.AddDate(0, 1, -1)}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
