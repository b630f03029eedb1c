package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/model"
	"github.com/sakif/contribgraph/internal/repository"
)

// compile-time check that *DB implements repository.SyncRunRepository
var _ repository.SyncRunRepository = (*DB)(nil)

// CreateRun persists a new run row. The orchestrator sets Status and
// StartedAt before the remote fetch, so a crash mid-fetch leaves an
// auditable running row.
func (db *DB) CreateRun(ctx context.Context, run *model.SyncRun) error {
	run.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sync_runs (id, profile_id, status, fetched_count, saved_count, error_message, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ProfileID,
		run.Status,
		run.FetchedCount,
		run.SavedCount,
		run.ErrorMessage,
		run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting sync run for profile %s: %w", run.ProfileID, err)
	}

	return nil
}

// FinalizeRun records the terminal state of a run. The finish timestamp is
// set here, exactly once — a run that already has one is never rewritten.
func (db *DB) FinalizeRun(ctx context.Context, run *model.SyncRun) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE sync_runs
		 SET status = ?, fetched_count = ?, saved_count = ?, error_message = ?, finished_at = ?
		 WHERE id = ? AND finished_at IS NULL`,
		run.Status,
		run.FetchedCount,
		run.SavedCount,
		run.ErrorMessage,
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: finalizing sync run %s: %w", run.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("sync run", run.ID)
	}

	return nil
}

// LastRunStartedAt returns the most recent start time for a profile, any
// status, or nil if it has never synced.
func (db *DB) LastRunStartedAt(ctx context.Context, profileID string) (*time.Time, error) {
	var startedAt time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT started_at FROM sync_runs
		 WHERE profile_id = ?
		 ORDER BY started_at DESC LIMIT 1`,
		profileID,
	).Scan(&startedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting last run for profile %s: %w", profileID, err)
	}

	startedAt = startedAt.UTC()
	return &startedAt, nil
}

// RunsStartedSince returns start times at or after since, oldest first.
func (db *DB) RunsStartedSince(ctx context.Context, profileID string, since time.Time) ([]time.Time, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT started_at FROM sync_runs
		 WHERE profile_id = ? AND started_at >= ?
		 ORDER BY started_at ASC`,
		profileID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying run window for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning run row: %w", err)
		}
		starts = append(starts, t.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating runs: %w", err)
	}

	return starts, nil
}

// ListRuns returns the profile's most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, profileID string, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, profile_id, status, fetched_count, saved_count, error_message, started_at, finished_at
		 FROM sync_runs
		 WHERE profile_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing runs for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	runs := make([]model.SyncRun, 0, limit)
	for rows.Next() {
		var (
			r        model.SyncRun
			finished sql.NullTime
		)
		if err := rows.Scan(
			&r.ID, &r.ProfileID, &r.Status,
			&r.FetchedCount, &r.SavedCount, &r.ErrorMessage,
			&r.StartedAt, &finished,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning run row: %w", err)
		}
		r.StartedAt = r.StartedAt.UTC()
		if finished.Valid {
			t := finished.Time.UTC()
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating runs: %w", err)
	}

	return runs, nil
}
