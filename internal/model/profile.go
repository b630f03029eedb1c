// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Profile represents one tracked GitHub account.
//
// We keep two identifiers next to our own internal one:
//
//   - GitHubID: GitHub's numeric user ID (int64 — account numbers are large).
//     It is zero until the profile has been linked via OAuth, and once set it
//     never changes. The UNIQUE constraint in the DB means one GitHub account
//     maps to exactly one profile.
//   - PublicID: an opaque xid string used for the token-free shareable view.
//     It is assigned exactly once, when the profile is linked, and is immutable
//     afterwards. Handing out xids instead of usernames means a share link
//     doesn't leak which account it belongs to.
//
// Username is always lower-cased before storage or comparison — GitHub logins
// are case-insensitive, and a single canonical form keeps lookups simple.
type Profile struct {
	ID        string    `json:"id"        db:"id"`
	Username  string    `json:"username"  db:"username"`
	GitHubID  int64     `json:"githubId,omitempty" db:"github_id"` // 0 = not linked yet
	PublicID  string    `json:"publicId,omitempty" db:"public_id"` // "" = not linked yet
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Linked reports whether the profile has been attached to a GitHub account.
func (p *Profile) Linked() bool {
	return p.GitHubID != 0
}
