package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/contribgraph/internal/model"
	"github.com/sakif/contribgraph/internal/repository"
)

// compile-time check that *DB implements repository.DayRepository
var _ repository.DayRepository = (*DB)(nil)

// UpsertDay writes one (day, count) sample for a profile.
//
// ON CONFLICT ... DO UPDATE (SQLite "upsert") targets the UNIQUE
// (profile_id, day) constraint, so re-posting a day replaces its count
// in place without touching the row's id.
func (db *DB) UpsertDay(ctx context.Context, profileID, day string, count int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contribution_days (id, profile_id, day, count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(profile_id, day) DO UPDATE SET count = excluded.count`,
		xid.New().String(), profileID, day, count,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting day %s for profile %s: %w", day, profileID, err)
	}
	return nil
}

// ReplaceDays swaps the profile's entire stored day set for the given
// samples inside one transaction.
//
// Delete-all + insert-fresh (never an incremental patch) guarantees the
// stored set reflects exactly the latest fetch. Because it all happens in
// one transaction, a concurrent reader sees the old set or the new set —
// never a mix — and if two syncs race, the final state is one fetch in its
// entirety. Non-positive counts are dropped: absence already means zero.
func (db *DB) ReplaceDays(ctx context.Context, profileID string, days []model.ContributionDay) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning replace transaction: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contribution_days WHERE profile_id = ?`, profileID,
	); err != nil {
		return 0, fmt.Errorf("sqlite: clearing days for profile %s: %w", profileID, err)
	}

	written := 0
	for _, d := range days {
		if d.Count <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO contribution_days (id, profile_id, day, count)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(profile_id, day) DO UPDATE SET count = excluded.count`,
			xid.New().String(), profileID, d.Day, d.Count,
		); err != nil {
			return 0, fmt.Errorf("sqlite: inserting day %s for profile %s: %w", d.Day, profileID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing replace for profile %s: %w", profileID, err)
	}

	return written, nil
}

// DaysInRange returns stored counts keyed by ISO day for [from, to]
// inclusive. ISO date strings compare lexicographically in calendar order,
// so BETWEEN works directly on the TEXT column.
func (db *DB) DaysInRange(ctx context.Context, profileID, from, to string) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT day, count FROM contribution_days
		 WHERE profile_id = ? AND day BETWEEN ? AND ?`,
		profileID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying days for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			day   string
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning day row: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating days: %w", err)
	}

	return counts, nil
}
