package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/heatmap"
	"github.com/sakif/contribgraph/internal/model"
)

func newHeatmapFixture(t *testing.T) (*HeatmapService, *mockIngestor, *mockDayRepo) {
	t.Helper()

	profiles := newMockProfileRepo()
	profiles.profiles["octocat"] = &model.Profile{
		ID: "p1", Username: "octocat", GitHubID: 583231, PublicID: "pub-octocat",
	}
	days := newMockDayRepo()
	ingestor := &mockIngestor{}

	svc := NewHeatmapService(profiles, days, ingestor)
	svc.now = func() time.Time {
		return time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	}
	return svc, ingestor, days
}

func TestHeatmapSeries(t *testing.T) {
	svc, _, days := newHeatmapFixture(t)
	days.days["p1"] = map[string]int{
		"2026-02-16": 2,
		"2026-02-17": 10,
	}

	result, err := svc.Series(context.Background(), "octocat", "2026-02-15", "2026-02-17")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Username)
	assert.Equal(t, 12, result.Total)
	require.Len(t, result.Weeks, 1)
	assert.Equal(t, "2026-02-15", result.Weeks[0].WeekStart)
	require.Len(t, result.Weeks[0].Days, 3)
	assert.Equal(t, 0, result.Weeks[0].Days[0].Count)
	assert.Equal(t, 2, result.Weeks[0].Days[1].Count)
	assert.Equal(t, 10, result.Weeks[0].Days[2].Count)
}

func TestHeatmapSeries_DefaultRangeIsRollingYear(t *testing.T) {
	svc, _, _ := newHeatmapFixture(t)

	result, err := svc.Series(context.Background(), "octocat", "", "")
	require.NoError(t, err)

	assert.Equal(t, "2025-02-21", result.From)
	assert.Equal(t, "2026-02-20", result.To)
	assert.Zero(t, result.Total)
}

func TestHeatmapSeries_NormalizesUsername(t *testing.T) {
	svc, _, _ := newHeatmapFixture(t)

	result, err := svc.Series(context.Background(), " OctoCat ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "octocat", result.Username)
}

func TestHeatmapSeries_UnknownProfile(t *testing.T) {
	svc, _, _ := newHeatmapFixture(t)

	_, err := svc.Series(context.Background(), "ghost", "", "")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResolveRange_Rejections(t *testing.T) {
	svc, _, _ := newHeatmapFixture(t)

	tests := []struct {
		name string
		from string
		to   string
	}{
		{"only from", "2026-02-01", ""},
		{"only to", "", "2026-02-28"},
		{"inverted", "2026-03-01", "2026-02-01"},
		{"malformed from", "02/01/2026", "2026-02-28"},
		{"malformed to", "2026-02-01", "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Series(context.Background(), "octocat", tt.from, tt.to)
			assert.ErrorIs(t, err, apperror.ErrInvalidRange)
		})
	}
}

func TestResolveRange_SingleDayIsValid(t *testing.T) {
	svc, _, _ := newHeatmapFixture(t)

	result, err := svc.Series(context.Background(), "octocat", "2026-02-20", "2026-02-20")
	require.NoError(t, err)
	require.Len(t, result.Weeks, 1)
	require.Len(t, result.Weeks[0].Days, 1)
}

func TestHeatmapGrid(t *testing.T) {
	svc, _, days := newHeatmapFixture(t)
	days.days["p1"] = map[string]int{
		"2026-02-18": 3,
		"2026-02-19": 6,
	}

	// Wed..Sat slice of a week, forcing leading padding.
	result, err := svc.Grid(context.Background(), "octocat", "2026-02-18", "2026-02-21")
	require.NoError(t, err)

	assert.Equal(t, 9, result.Total)
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, result.WeekdayLabels)
	require.Len(t, result.Weeks, 1)
	assert.Equal(t, "2026-02-15", result.Weeks[0].WeekStart)
	require.Len(t, result.Weeks[0].Days, 7)
}

func TestHeatmapGrid_PaddingShowsStoredCounts(t *testing.T) {
	svc, _, days := newHeatmapFixture(t)
	days.days["p1"] = map[string]int{
		"2026-02-16": 5, // Monday, before the requested range
		"2026-02-18": 3,
	}

	result, err := svc.Grid(context.Background(), "octocat", "2026-02-18", "2026-02-21")
	require.NoError(t, err)

	week := result.Weeks[0]
	assert.Equal(t, "2026-02-16", week.Days[1].Date)
	assert.Equal(t, 5, week.Days[1].Count)
	// Padding counts stay out of the total.
	assert.Equal(t, 3, result.Total)
}

func TestPublicGrid(t *testing.T) {
	svc, _, days := newHeatmapFixture(t)
	days.days["p1"] = map[string]int{"2026-02-18": 3}

	result, err := svc.PublicGrid(context.Background(), "pub-octocat", "2026-02-15", "2026-02-21")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Username)
	assert.Equal(t, 3, result.Total)
}

func TestPublicGrid_UnknownID(t *testing.T) {
	svc, _, _ := newHeatmapFixture(t)

	_, err := svc.PublicGrid(context.Background(), "nope", "", "")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMe_LiveView(t *testing.T) {
	svc, ingestor, _ := newHeatmapFixture(t)
	ingestor.samples = []heatmap.Sample{
		{Date: "2026-02-15", Count: 0},
		{Date: "2026-02-16", Count: 2},
		{Date: "2026-02-17", Count: 10},
	}

	result, err := svc.Me(context.Background(), "ghp_token", "2026-02-15", "2026-02-17")
	require.NoError(t, err)

	assert.Equal(t, "octocat", result.Username)
	assert.Equal(t, 12, result.Total)
	require.Len(t, result.Weeks, 1)
	assert.Equal(t, "2026-02-15", result.Weeks[0].WeekStart)
	// Raw upstream data: no zero-filling beyond what GitHub sent.
	assert.Len(t, result.Weeks[0].Days, 3)
	assert.Equal(t, 4, result.Weeks[0].Days[2].Level)
}

func TestMe_EmptyToken(t *testing.T) {
	svc, ingestor, _ := newHeatmapFixture(t)

	_, err := svc.Me(context.Background(), "  ", "", "")

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Zero(t, ingestor.calls)
}

func TestMe_InvalidUpstreamToken(t *testing.T) {
	svc, ingestor, _ := newHeatmapFixture(t)
	ingestor.userErr = apperror.InvalidToken()

	_, err := svc.Me(context.Background(), "ghp_bad", "", "")

	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}
