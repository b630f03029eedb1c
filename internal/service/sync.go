// Package service contains the business logic layer: range validation,
// sync admission, and the orchestration between the GitHub client, the
// aggregator, and the repositories. Handlers stay HTTP-only, repositories
// stay SQL-only; everything with a rule in it lives here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/github"
	"github.com/sakif/contribgraph/internal/heatmap"
	"github.com/sakif/contribgraph/internal/model"
	"github.com/sakif/contribgraph/internal/repository"
)

// Ingestor is the upstream contribution source. *github.Client implements
// it; tests substitute a mock.
type Ingestor interface {
	FetchAuthenticatedUser(ctx context.Context, token string) (*github.User, error)
	FetchContributionDays(ctx context.Context, username, token string, from, to time.Time) ([]heatmap.Sample, error)
}

// windowDays is the rolling fetch/read window: today plus the 364 days
// before it, one GitHub contribution year.
const windowDays = 365

// rollingWindow returns the default [from, to] range ending today.
func rollingWindow(now time.Time) (from, to time.Time) {
	y, m, d := now.UTC().Date()
	to = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -(windowDays - 1)), to
}

// SyncSummary is the caller-facing result of one successful run.
type SyncSummary struct {
	Status      string `json:"status"`
	Fetched     int    `json:"fetched"`
	Saved       int    `json:"saved"`
	DaysUpdated int    `json:"days_updated"`
}

// SyncService orchestrates one synchronization: gate check, audit row,
// upstream fetch, atomic replace, finalization.
type SyncService struct {
	profiles repository.ProfileRepository
	days     repository.DayRepository
	runs     repository.SyncRunRepository
	ingestor Ingestor
	gate     *Gatekeeper
	logger   *slog.Logger

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

// NewSyncService wires the orchestrator. All dependencies are injected.
func NewSyncService(
	profiles repository.ProfileRepository,
	days repository.DayRepository,
	runs repository.SyncRunRepository,
	ingestor Ingestor,
	gate GateConfig,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		profiles: profiles,
		days:     days,
		runs:     runs,
		ingestor: ingestor,
		gate:     NewGatekeeper(gate),
		logger:   logger,
		now:      time.Now,
	}
}

// Sync refreshes the named profile's stored contribution days from GitHub,
// using the caller's token for the upstream fetch.
//
// Order of operations matters and is part of the contract:
//
//  1. Gate check — a denial returns a rate-limit error and creates NO run
//     row; gating is a pure precondition, not a failed attempt.
//  2. A running SyncRun row is persisted BEFORE the fetch, so a crash
//     mid-fetch stays auditable.
//  3. Fetch failures finalize the run as failed (with a generic message,
//     never the raw upstream error text) and surface the typed error.
//  4. On success the profile's whole day set is replaced atomically, only
//     positive counts persisted, and the run finalized as success.
//
// There are no automatic retries on any path.
func (s *SyncService) Sync(ctx context.Context, username, token string) (*SyncSummary, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	profile, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	lastRun, err := s.runs.LastRunStartedAt(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("loading last run: %w", err)
	}
	window, err := s.runs.RunsStartedSince(ctx, profile.ID, now.Add(-time.Hour))
	if err != nil {
		return nil, fmt.Errorf("loading run window: %w", err)
	}

	var oldest *time.Time
	if len(window) > 0 {
		oldest = &window[0]
	}
	if decision := s.gate.Check(now, lastRun, len(window), oldest); !decision.Allowed {
		s.logger.Info("sync denied by gate",
			slog.String("username", username),
			slog.Int("retry_after", decision.RetryAfter),
		)
		return nil, apperror.RateLimited(decision.RetryAfter)
	}

	run := &model.SyncRun{
		ProfileID: profile.ID,
		Status:    model.SyncStatusRunning,
		StartedAt: now,
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recording sync run: %w", err)
	}

	// An unlinked profile picks up its GitHub identity from the token's
	// owner, once, when the logins match. Linking is best-effort: a
	// conflict here must not abort the sync itself.
	if !profile.Linked() {
		user, err := s.ingestor.FetchAuthenticatedUser(ctx, token)
		if err != nil {
			s.finalize(ctx, run, model.SyncStatusFailed, 0, 0, "GitHub fetch failed")
			return nil, err
		}
		if strings.EqualFold(user.Login, profile.Username) {
			if linked, err := s.profiles.LinkGitHub(ctx, user.ID, profile.Username); err == nil {
				profile = linked
			} else {
				s.logger.Warn("linking GitHub identity failed",
					slog.String("username", username),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	from, to := rollingWindow(now)
	samples, err := s.ingestor.FetchContributionDays(ctx, profile.Username, token, from, to)
	if err != nil {
		s.finalize(ctx, run, model.SyncStatusFailed, 0, 0, "GitHub fetch failed")
		s.logger.Error("sync fetch failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	days := make([]model.ContributionDay, 0, len(samples))
	for _, sample := range samples {
		days = append(days, model.ContributionDay{
			ProfileID: profile.ID,
			Day:       sample.Date,
			Count:     sample.Count,
		})
	}

	saved, err := s.days.ReplaceDays(ctx, profile.ID, days)
	if err != nil {
		s.finalize(ctx, run, model.SyncStatusFailed, len(samples), 0, "saving contribution days failed")
		return nil, fmt.Errorf("replacing days for %s: %w", username, err)
	}

	s.finalize(ctx, run, model.SyncStatusSuccess, len(samples), saved, "")

	s.logger.Info("sync completed",
		slog.String("username", username),
		slog.Int("fetched", len(samples)),
		slog.Int("saved", saved),
	)

	return &SyncSummary{
		Status:      "ok",
		Fetched:     len(samples),
		Saved:       saved,
		DaysUpdated: saved,
	}, nil
}

// History returns the profile's most recent sync runs, newest first.
func (s *SyncService) History(ctx context.Context, username string, limit int) ([]model.SyncRun, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	profile, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.runs.ListRuns(ctx, profile.ID, limit)
}

// finalize stamps the run's terminal state. It runs on every exit path
// after run creation; a failure to finalize is logged, not propagated —
// the caller's error (if any) is the one that matters.
func (s *SyncService) finalize(ctx context.Context, run *model.SyncRun, status string, fetched, saved int, errMsg string) {
	finished := s.now().UTC()
	run.Status = status
	run.FetchedCount = fetched
	run.SavedCount = saved
	run.ErrorMessage = errMsg
	run.FinishedAt = &finished

	if err := s.runs.FinalizeRun(ctx, run); err != nil {
		s.logger.Error("failed to finalize sync run",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()),
		)
	}
}
