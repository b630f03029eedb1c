// Package github is the upstream boundary: it talks to the GitHub GraphQL
// and REST APIs and converts their loosely-shaped payloads into the strict
// types the rest of the service uses.
//
// ERROR TAXONOMY AT THE BOUNDARY:
// Transport-specific detail (status codes, GraphQL error arrays) never leaks
// past this package. Callers see exactly two kinds of failure:
//
//   - apperror.ErrInvalidToken — GitHub answered 401 or 403
//   - apperror.ErrUpstream     — anything else (network, non-2xx, malformed payload)
//
// No retries happen here. Every failure is surfaced once, immediately.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/heatmap"
)

// Config holds the client's endpoints and timeout. Explicit config values
// are injected at construction — nothing here reads the environment.
type Config struct {
	GraphQLURL string        // GitHub GraphQL endpoint
	APIBaseURL string        // GitHub REST base (for /user)
	Timeout    time.Duration // per-request timeout, bounds worst-case latency
}

// DefaultConfig returns production GitHub endpoints with a 20s timeout.
func DefaultConfig() Config {
	return Config{
		GraphQLURL: "https://api.github.com/graphql",
		APIBaseURL: "https://api.github.com",
		Timeout:    20 * time.Second,
	}
}

// User is the slice of GitHub's /user response we care about. GitHub returns
// a much larger object — we only unmarshal the fields we need.
type User struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID — stable, never changes
	Login string `json:"login"` // GitHub username, e.g. "octocat"
}

// Client fetches contribution data on behalf of a caller-supplied token.
// It holds no credentials of its own.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client. An empty Config falls back to defaults
// field-by-field, so tests can override just the URL they stub.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = def.GraphQLURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchAuthenticatedUser resolves a token to the GitHub identity it belongs
// to, via GET /user.
func (c *Client) FetchAuthenticatedUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, apperror.Unauthorized("a GitHub token is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("github: building /user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "contribgraph")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: calling /user: %w", apperror.Upstream(err.Error()))
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, "/user"); err != nil {
		return nil, err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("github: decoding /user response: %w", apperror.Upstream("invalid /user payload"))
	}
	if user.ID == 0 || user.Login == "" {
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub user response is invalid"))
	}

	return &user, nil
}

// contributionsQuery asks the GraphQL contribution calendar for every day in
// the requested window. GitHub caps the window at one year, which matches
// the service's rolling-year view exactly.
const contributionsQuery = `
query($login: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

// graphQLResponse mirrors only the nesting we walk. Every level is a pointer
// so a missing field is detectable (nil) rather than silently zero.
type graphQLResponse struct {
	Data *struct {
		User *struct {
			ContributionsCollection *struct {
				ContributionCalendar *struct {
					Weeks []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount *int   `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchContributionDays returns the raw (date, count) samples for username
// between from and to inclusive, flattened out of GitHub's week-shaped
// GraphQL response. Items missing a date or count are dropped; structural
// problems (missing collection, GraphQL errors) fail the whole call.
func (c *Client) FetchContributionDays(ctx context.Context, username, token string, from, to time.Time) ([]heatmap.Sample, error) {
	if token == "" {
		return nil, apperror.Unauthorized("a GitHub token is required")
	}

	body, err := json.Marshal(map[string]any{
		"query": contributionsQuery,
		"variables": map[string]string{
			"login": username,
			"from":  from.UTC().Format("2006-01-02") + "T00:00:00Z",
			"to":    to.UTC().Format("2006-01-02") + "T23:59:59Z",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("github: encoding GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("github: building GraphQL request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "contribgraph")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: calling GraphQL: %w", apperror.Upstream(err.Error()))
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, "graphql"); err != nil {
		return nil, err
	}

	var payload graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub GraphQL response is invalid"))
	}

	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub GraphQL returned errors"))
	}

	// Walk the nesting strictly — a nil at any level means GitHub changed
	// shape on us or the user doesn't exist, and either way the fetch failed.
	switch {
	case payload.Data == nil:
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub GraphQL data is missing"))
	case payload.Data.User == nil:
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub user not found"))
	case payload.Data.User.ContributionsCollection == nil:
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub contributionsCollection is missing"))
	case payload.Data.User.ContributionsCollection.ContributionCalendar == nil:
		return nil, fmt.Errorf("github: %w", apperror.Upstream("GitHub contributionCalendar is missing"))
	}

	weeks := payload.Data.User.ContributionsCollection.ContributionCalendar.Weeks
	var days []heatmap.Sample
	for _, week := range weeks {
		for _, item := range week.ContributionDays {
			if item.Date == "" || item.ContributionCount == nil {
				continue
			}
			days = append(days, heatmap.Sample{Date: item.Date, Count: *item.ContributionCount})
		}
	}

	return days, nil
}

// statusError maps an upstream HTTP status to the service error taxonomy.
func statusError(code int, endpoint string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("github: %s returned %d: %w", endpoint, code, apperror.InvalidToken())
	default:
		return fmt.Errorf("github: %w", apperror.Upstream(fmt.Sprintf("GitHub %s returned status %d", endpoint, code)))
	}
}
