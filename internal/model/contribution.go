package model

import "time"

// Day values are stored and exchanged as ISO dates ("2006-01-02"). Using a
// plain string instead of time.Time for the day key avoids timezone ambiguity:
// a contribution day is a calendar date, not an instant.
const DateLayout = "2006-01-02"

// ContributionDay is one (profile, calendar day) → contribution count sample.
//
// At most one row exists per (profile, day) — enforced by a UNIQUE constraint.
// Zero-count days are not required to be stored; readers treat absence as zero.
type ContributionDay struct {
	ID        string `json:"-"     db:"id"`
	ProfileID string `json:"-"     db:"profile_id"`
	Day       string `json:"date"  db:"day"`
	Count     int    `json:"count" db:"count"`
}

// Sync run statuses. A run starts as running and is finalized exactly once,
// to either success or failed.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncRun is the audit record of one synchronization attempt against GitHub.
//
// A run row is created before the remote fetch, so a crash mid-fetch leaves a
// visible running row rather than silently losing the attempt. Attempts denied
// by the gatekeeper never create a run — gating is a pure precondition check.
type SyncRun struct {
	ID           string     `json:"id"           db:"id"`
	ProfileID    string     `json:"profileId"    db:"profile_id"`
	Status       string     `json:"status"       db:"status"`
	FetchedCount int        `json:"fetchedCount" db:"fetched_count"`
	SavedCount   int        `json:"savedCount"   db:"saved_count"`
	ErrorMessage string     `json:"errorMessage,omitempty" db:"error_message"`
	StartedAt    time.Time  `json:"startedAt"    db:"started_at"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
}
