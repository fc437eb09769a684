package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/accolade/internal/store"
)

// RunRepository tracks ingestion runs.
type RunRepository struct {
	q store.Querier
}

// NewRunRepository constructs a RunRepository.
func NewRunRepository(q store.Querier) *RunRepository {
	return &RunRepository{q: q}
}

// Start inserts a running row for the given run id.
func (r *RunRepository) Start(ctx context.Context, id string, statDate time.Time, source string) error {
	query := `
		INSERT INTO ingestion_runs (id, stat_date, status, source)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.q.ExecContext(ctx, query, id, statDate.Format("2006-01-02"), string(store.RunRunning), source); err != nil {
		return fmt.Errorf("insert ingestion run: %w", err)
	}
	return nil
}

// Finish records the terminal status, counters and optional error.
func (r *RunRepository) Finish(ctx context.Context, run store.IngestionRun, runErr error) error {
	query := `
		UPDATE ingestion_runs
		SET status = $2::varchar,
			records_fetched = $3,
			stats_inserted = $4,
			awards_created = $5,
			error_message = $6,
			completed_at = CASE WHEN $2::varchar IN ('completed','failed') THEN NOW() ELSE completed_at END
		WHERE id = $1
	`

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := r.q.ExecContext(ctx, query, run.ID, string(run.Status),
		run.RecordsFetched, run.StatsInserted, run.AwardsCreated, errText)
	if err != nil {
		return fmt.Errorf("update ingestion run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ingestion run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ingestion run %s: %w", run.ID, store.ErrNotFound)
	}
	return nil
}

// FailInterrupted marks runs left in running state (process restarted
// mid-run) as failed. Only runs started more than olderThan ago are touched,
// so a live run on another replica keeps its status.
func (r *RunRepository) FailInterrupted(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = 'failed',
			error_message = 'interrupted by service restart',
			completed_at = NOW()
		WHERE status = 'running'
			AND started_at < NOW() - ($1::double precision * INTERVAL '1 second')
	`, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("fail interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Recent lists the latest runs, newest first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]store.IngestionRun, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, stat_date, status, source, records_fetched, stats_inserted, awards_created,
			error_message, started_at, completed_at
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingestion runs: %w", err)
	}
	defer rows.Close()

	var out []store.IngestionRun
	for rows.Next() {
		var run store.IngestionRun
		var status string
		if err := rows.Scan(&run.ID, &run.StatDate, &status, &run.Source, &run.RecordsFetched,
			&run.StatsInserted, &run.AwardsCreated, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning ingestion run: %w", err)
		}
		run.Status = store.RunStatus(status)
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingestion runs: %w", err)
	}
	return out, nil
}
