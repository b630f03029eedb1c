package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/model"
	"github.com/sakif/contribgraph/internal/repository"
)

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

// CreateProfile inserts a new, unlinked profile.
// The caller (service layer) has already trimmed and lower-cased the username.
func (db *DB) CreateProfile(ctx context.Context, profile *model.Profile) error {
	var existing string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM profiles WHERE username = ?`, profile.Username,
	).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: checking username %q: %w", profile.Username, err)
	}
	if existing != "" {
		return apperror.Conflict("profile", profile.Username)
	}

	profile.ID = xid.New().String()
	profile.CreatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, username, github_id, public_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		profile.ID,
		profile.Username,
		nullInt64(profile.GitHubID),
		nullString(profile.PublicID),
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting profile %q: %w", profile.Username, err)
	}

	return nil
}

// GetProfileByUsername retrieves a profile by its (lower-cased) username.
func (db *DB) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return db.getProfile(ctx, `username = ?`, username)
}

// GetProfileByPublicID resolves the opaque shareable identifier.
func (db *DB) GetProfileByPublicID(ctx context.Context, publicID string) (*model.Profile, error) {
	return db.getProfile(ctx, `public_id = ?`, publicID)
}

func (db *DB) getProfile(ctx context.Context, where string, arg any) (*model.Profile, error) {
	var (
		p        model.Profile
		githubID sql.NullInt64
		publicID sql.NullString
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, github_id, public_id, created_at
		 FROM profiles WHERE `+where,
		arg,
	).Scan(&p.ID, &p.Username, &githubID, &publicID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting profile (%v): %w", arg, err)
	}

	p.GitHubID = githubID.Int64
	p.PublicID = publicID.String
	return &p, nil
}

// ListProfiles returns all profiles ordered by username.
func (db *DB) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, github_id, public_id, created_at
		 FROM profiles ORDER BY username ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		var (
			p        model.Profile
			githubID sql.NullInt64
			publicID sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Username, &githubID, &publicID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		p.GitHubID = githubID.Int64
		p.PublicID = publicID.String
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profiles: %w", err)
	}

	return profiles, nil
}

// LinkGitHub attaches a GitHub identity to a profile, creating it if needed.
//
// The lookup order implements the linking invariants:
//  1. Already linked to this GitHub id → keep the row, correct the username
//     (GitHub logins can be renamed; the numeric id is the stable key).
//  2. An unlinked profile registered under this login → attach the id and
//     assign its public id. A profile that is linked to a DIFFERENT GitHub
//     id keeps it — external ids never change once set.
//  3. No match → create a fresh, fully linked profile.
func (db *DB) LinkGitHub(ctx context.Context, githubID int64, login string) (*model.Profile, error) {
	// Case 1: profile already linked to this GitHub account.
	p, err := db.getProfile(ctx, `github_id = ?`, githubID)
	if err == nil {
		if p.Username != login {
			if _, err := db.conn.ExecContext(ctx,
				`UPDATE profiles SET username = ? WHERE id = ?`, login, p.ID,
			); err != nil {
				return nil, fmt.Errorf("sqlite: correcting username for profile %s: %w", p.ID, err)
			}
			p.Username = login
		}
		return p, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	// Case 2: a pre-registered, unlinked profile with this username.
	p, err = db.GetProfileByUsername(ctx, login)
	if err == nil {
		if p.Linked() {
			// Same username, different GitHub account. The username
			// belongs to whoever authenticated — but we never rewrite an
			// existing link, so refuse rather than corrupt identity.
			return nil, apperror.Conflict("profile", login)
		}
		p.GitHubID = githubID
		p.PublicID = xid.New().String()
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE profiles SET github_id = ?, public_id = ? WHERE id = ?`,
			p.GitHubID, p.PublicID, p.ID,
		); err != nil {
			return nil, fmt.Errorf("sqlite: linking profile %s: %w", p.ID, err)
		}
		return p, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	// Case 3: first login, no registration — create the profile linked.
	p = &model.Profile{
		Username: login,
		GitHubID: githubID,
		PublicID: xid.New().String(),
	}
	if err := db.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

// nullInt64 maps the model's zero value ("not linked") to SQL NULL so the
// partial unique index on github_id only sees real ids.
func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
