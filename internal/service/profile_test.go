package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/model"
)

func newProfileFixture(t *testing.T) (*ProfileService, *mockProfileRepo, *mockDayRepo) {
	t.Helper()
	profiles := newMockProfileRepo()
	days := newMockDayRepo()
	return NewProfileService(profiles, days), profiles, days
}

func TestRegister(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	profile, err := svc.Register(context.Background(), "  OctoCat  ")
	require.NoError(t, err)

	assert.Equal(t, "octocat", profile.Username)
	assert.False(t, profile.Linked())
	assert.Empty(t, profile.PublicID)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	_, err := svc.Register(context.Background(), "octocat")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "OCTOCAT")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	tests := []struct {
		name     string
		username string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", "a-very-long-username-that-exceeds-the-thirty-nine-limit"},
		{"illegal characters", "octo cat"},
		{"underscore", "octo_cat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	_, err := svc.Register(context.Background(), "octocat")
	require.NoError(t, err)

	profile, err := svc.Get(context.Background(), "OctoCat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", profile.Username)
}

func TestLink(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	_, err := svc.Register(context.Background(), "octocat")
	require.NoError(t, err)

	profile, err := svc.Link(context.Background(), 583231, "OctoCat")
	require.NoError(t, err)

	assert.True(t, profile.Linked())
	assert.NotEmpty(t, profile.PublicID)
}

func TestLink_RejectsNonPositiveID(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	_, err := svc.Link(context.Background(), 0, "octocat")

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRecordDay(t *testing.T) {
	svc, profiles, days := newProfileFixture(t)
	profiles.profiles["octocat"] = &model.Profile{ID: "p1", Username: "octocat"}

	err := svc.RecordDay(context.Background(), "octocat", "2026-02-20", 4)
	require.NoError(t, err)

	assert.Equal(t, 4, days.days["p1"]["2026-02-20"])
}

func TestRecordDay_ReplacesExisting(t *testing.T) {
	svc, profiles, days := newProfileFixture(t)
	profiles.profiles["octocat"] = &model.Profile{ID: "p1", Username: "octocat"}

	require.NoError(t, svc.RecordDay(context.Background(), "octocat", "2026-02-20", 4))
	require.NoError(t, svc.RecordDay(context.Background(), "octocat", "2026-02-20", 9))

	assert.Equal(t, 9, days.days["p1"]["2026-02-20"])
}

func TestRecordDay_Validation(t *testing.T) {
	svc, profiles, _ := newProfileFixture(t)
	profiles.profiles["octocat"] = &model.Profile{ID: "p1", Username: "octocat"}

	assert.ErrorIs(t,
		svc.RecordDay(context.Background(), "octocat", "20-02-2026", 1),
		apperror.ErrValidation)
	assert.ErrorIs(t,
		svc.RecordDay(context.Background(), "octocat", "2026-02-20", -1),
		apperror.ErrValidation)
}

func TestRecordDay_UnknownProfile(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	err := svc.RecordDay(context.Background(), "ghost", "2026-02-20", 1)

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
