package service

import (
	"context"
	"strings"
	"time"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/model"
	"github.com/sakif/contribgraph/internal/repository"
)

const (
	minUsernameLen = 1
	maxUsernameLen = 39 // GitHub's own login limit
)

// ProfileService manages profile registration, identity linking and
// manual day recording.
type ProfileService struct {
	profiles repository.ProfileRepository
	days     repository.DayRepository
}

func NewProfileService(profiles repository.ProfileRepository, days repository.DayRepository) *ProfileService {
	return &ProfileService{profiles: profiles, days: days}
}

// normalizeUsername lower-cases and validates a username. Usernames are
// case-insensitive everywhere: one canonical form in storage.
func normalizeUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if len(username) < minUsernameLen {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > maxUsernameLen {
		return "", apperror.ValidationFailed("username", "username must be at most 39 characters")
	}
	for _, r := range username {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", apperror.ValidationFailed("username", "username may only contain letters, digits and hyphens")
		}
	}
	return username, nil
}

// Register creates a profile for the given username.
func (s *ProfileService) Register(ctx context.Context, rawUsername string) (*model.Profile, error) {
	username, err := normalizeUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{Username: username}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Get looks a profile up by its (case-insensitive) username.
func (s *ProfileService) Get(ctx context.Context, rawUsername string) (*model.Profile, error) {
	username, err := normalizeUsername(rawUsername)
	if err != nil {
		return nil, err
	}
	return s.profiles.GetProfileByUsername(ctx, username)
}

// List returns every profile, ordered by username.
func (s *ProfileService) List(ctx context.Context) ([]model.Profile, error) {
	return s.profiles.ListProfiles(ctx)
}

// Link attaches a GitHub identity to its profile, creating one when the
// login is new. Called from the OAuth callback.
func (s *ProfileService) Link(ctx context.Context, githubID int64, login string) (*model.Profile, error) {
	username, err := normalizeUsername(login)
	if err != nil {
		return nil, err
	}
	if githubID <= 0 {
		return nil, apperror.ValidationFailed("github_id", "github id must be positive")
	}
	return s.profiles.LinkGitHub(ctx, githubID, username)
}

// RecordDay writes one manual (day, count) sample, replacing any stored
// value for that calendar day.
func (s *ProfileService) RecordDay(ctx context.Context, rawUsername, day string, count int) error {
	username, err := normalizeUsername(rawUsername)
	if err != nil {
		return err
	}
	if _, err := time.Parse(model.DateLayout, day); err != nil {
		return apperror.ValidationFailed("day", "day must be a YYYY-MM-DD date")
	}
	if count < 0 {
		return apperror.ValidationFailed("count", "count must not be negative")
	}

	profile, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.days.UpsertDay(ctx, profile.ID, day, count)
}
