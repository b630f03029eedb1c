package service

import (
	"context"
	"strings"
	"time"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/heatmap"
	"github.com/sakif/contribgraph/internal/model"
	"github.com/sakif/contribgraph/internal/repository"
)

// SeriesResult is the flat weeks payload plus its summed total.
type SeriesResult struct {
	Username string         `json:"username"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	Weeks    []heatmap.Week `json:"weeks"`
	Total    int            `json:"total"`
}

// GridResult is the calendar grid keyed to the profile it renders. The
// field set is a stable contract for presentation layers: weekday
// labels ride along so clients never hard-code the Sunday-first order.
type GridResult struct {
	Username      string               `json:"username"`
	From          string               `json:"from"`
	To            string               `json:"to"`
	Total         int                  `json:"total"`
	WeekdayLabels []string             `json:"weekday_labels"`
	MonthLabels   []heatmap.MonthLabel `json:"month_labels"`
	Weeks         []heatmap.Week       `json:"weeks"`
}

// HeatmapService shapes contribution data for rendering. Profile reads
// come from local storage; only the live Me view talks to GitHub.
type HeatmapService struct {
	profiles repository.ProfileRepository
	days     repository.DayRepository
	ingestor Ingestor

	now func() time.Time
}

func NewHeatmapService(profiles repository.ProfileRepository, days repository.DayRepository, ingestor Ingestor) *HeatmapService {
	return &HeatmapService{profiles: profiles, days: days, ingestor: ingestor, now: time.Now}
}

// resolveRange validates the optional from/to query pair. Both empty
// means the rolling year ending today; exactly one set, a malformed
// date, or from after to is a range error.
func (s *HeatmapService) resolveRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr == "" && toStr == "" {
		from, to = rollingWindow(s.now())
		return from, to, nil
	}
	if fromStr == "" || toStr == "" {
		return from, to, apperror.InvalidRange("from and to must be provided together")
	}
	from, err = time.Parse(model.DateLayout, fromStr)
	if err != nil {
		return from, to, apperror.InvalidRange("from must be a YYYY-MM-DD date")
	}
	to, err = time.Parse(model.DateLayout, toStr)
	if err != nil {
		return from, to, apperror.InvalidRange("to must be a YYYY-MM-DD date")
	}
	if from.After(to) {
		return from, to, apperror.InvalidRange("from must not be after to")
	}
	return from, to, nil
}

func (s *HeatmapService) countsFor(ctx context.Context, profileID string, from, to time.Time) (map[string]int, error) {
	return s.days.DaysInRange(ctx, profileID,
		from.Format(model.DateLayout), to.Format(model.DateLayout))
}

// Series returns the zero-filled weeks payload for a profile.
func (s *HeatmapService) Series(ctx context.Context, username, fromStr, toStr string) (*SeriesResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	from, to, err := s.resolveRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	counts, err := s.countsFor(ctx, profile.ID, from, to)
	if err != nil {
		return nil, err
	}

	samples, _ := heatmap.BuildZeroFilledRange(counts, from, to)
	weeks, total := heatmap.BuildWeeksPayload(samples)

	return &SeriesResult{
		Username: profile.Username,
		From:     from.Format(model.DateLayout),
		To:       to.Format(model.DateLayout),
		Weeks:    weeks,
		Total:    total,
	}, nil
}

// Me is the live view: it resolves the token's owner, fetches their
// contribution days straight from GitHub, and returns the weeks payload
// without persisting anything. Nothing here touches the profile store —
// the caller does not need a registered profile.
func (s *HeatmapService) Me(ctx context.Context, token, fromStr, toStr string) (*SeriesResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.Unauthorized("a GitHub token is required")
	}

	from, to, err := s.resolveRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	user, err := s.ingestor.FetchAuthenticatedUser(ctx, token)
	if err != nil {
		return nil, err
	}

	samples, err := s.ingestor.FetchContributionDays(ctx, user.Login, token, from, to)
	if err != nil {
		return nil, err
	}

	weeks, total := heatmap.BuildWeeksPayload(samples)

	return &SeriesResult{
		Username: user.Login,
		From:     from.Format(model.DateLayout),
		To:       to.Format(model.DateLayout),
		Weeks:    weeks,
		Total:    total,
	}, nil
}

// Grid returns the week-aligned calendar grid for a profile.
func (s *HeatmapService) Grid(ctx context.Context, username, fromStr, toStr string) (*GridResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	from, to, err := s.resolveRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.gridFor(ctx, profile, from, to)
}

// PublicGrid resolves a profile by its opaque shareable id. An unknown
// id is a plain not-found; the error reveals nothing about usernames.
func (s *HeatmapService) PublicGrid(ctx context.Context, publicID, fromStr, toStr string) (*GridResult, error) {
	from, to, err := s.resolveRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfileByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	return s.gridFor(ctx, profile, from, to)
}

func (s *HeatmapService) gridFor(ctx context.Context, profile *model.Profile, from, to time.Time) (*GridResult, error) {
	// The grid widens the query to whole weeks so padding cells carry
	// their true stored counts instead of zeros.
	gridFrom := from.AddDate(0, 0, -int(from.Weekday()))
	gridTo := to.AddDate(0, 0, int(time.Saturday-to.Weekday()))

	counts, err := s.countsFor(ctx, profile.ID, gridFrom, gridTo)
	if err != nil {
		return nil, err
	}

	grid := heatmap.BuildCalendarGrid(counts, from, to)
	return &GridResult{
		Username:      profile.Username,
		From:          from.Format(model.DateLayout),
		To:            to.Format(model.DateLayout),
		Total:         grid.Total,
		WeekdayLabels: heatmap.WeekdayLabels,
		MonthLabels:   grid.MonthLabels,
		Weeks:         grid.Weeks,
	}, nil
}
