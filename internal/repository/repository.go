// Package repository defines the storage contracts consumed by the service
// layer. Services depend on these interfaces, never on the sqlite package —
// swapping the backend (or injecting a mock in tests) touches only the
// composition root.
package repository

import (
	"context"
	"time"

	"github.com/sakif/contribgraph/internal/model"
)

// ProfileRepository owns persisted profile identity.
type ProfileRepository interface {
	// CreateProfile inserts a new profile. The username must already be
	// lower-cased. Returns a conflict error if the username is taken.
	CreateProfile(ctx context.Context, profile *model.Profile) error

	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)

	// GetProfileByPublicID resolves the opaque shareable identifier.
	GetProfileByPublicID(ctx context.Context, publicID string) (*model.Profile, error)

	// ListProfiles returns all profiles ordered by username.
	ListProfiles(ctx context.Context) ([]model.Profile, error)

	// LinkGitHub attaches a GitHub identity to a profile, creating the
	// profile if needed. Resolution order:
	//   1. a profile already linked to githubID → correct its username to login
	//   2. an unlinked profile whose username matches login → attach the id
	//   3. otherwise → create a fresh profile
	// The public id is assigned exactly once, at link time, and the GitHub
	// id of an already-linked profile is never changed.
	LinkGitHub(ctx context.Context, githubID int64, login string) (*model.Profile, error)
}

// DayRepository owns per-profile daily contribution counts.
type DayRepository interface {
	// UpsertDay writes one (day, count) sample, replacing any existing row
	// for that calendar day.
	UpsertDay(ctx context.Context, profileID, day string, count int) error

	// ReplaceDays atomically swaps the profile's entire stored set for the
	// given samples, dropping non-positive counts. Delete and insert happen
	// in one transaction: readers see either the old set or the new set,
	// never a mix. Returns the number of rows written.
	ReplaceDays(ctx context.Context, profileID string, days []model.ContributionDay) (int, error)

	// DaysInRange returns stored counts keyed by ISO day for days within
	// [from, to] inclusive. Absent days mean zero.
	DaysInRange(ctx context.Context, profileID, from, to string) (map[string]int, error)
}

// SyncRunRepository owns the synchronization audit trail.
type SyncRunRepository interface {
	// CreateRun persists a new run in running state, filling ID.
	CreateRun(ctx context.Context, run *model.SyncRun) error

	// FinalizeRun records the run's terminal status, counts, error message
	// and finish timestamp. Called exactly once per run.
	FinalizeRun(ctx context.Context, run *model.SyncRun) error

	// LastRunStartedAt returns the start time of the profile's most recent
	// run of any status, or nil if the profile has never synced.
	LastRunStartedAt(ctx context.Context, profileID string) (*time.Time, error)

	// RunsStartedSince returns start times of runs with started_at >= since,
	// oldest first. The gatekeeper uses the count and the oldest entry.
	RunsStartedSince(ctx context.Context, profileID string, since time.Time) ([]time.Time, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, profileID string, limit int) ([]model.SyncRun, error)
}
