package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/model"
)

// newTestDB opens an in-memory database that lives only for this test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestProfile(t *testing.T, db *DB, username string) *model.Profile {
	t.Helper()
	p := &model.Profile{Username: username}
	if err := db.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

func TestCreateProfile(t *testing.T) {
	db := newTestDB(t)

	p := &model.Profile{Username: "octocat"}
	if err := db.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	if p.ID == "" {
		t.Error("CreateProfile() did not set profile.ID")
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreateProfile() did not set profile.CreatedAt")
	}
}

func TestCreateProfile_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestProfile(t, db, "octocat")

	err := db.CreateProfile(context.Background(), &model.Profile{Username: "octocat"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateProfile() error = %v, want ErrConflict", err)
	}
}

func TestGetProfileByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestProfile(t, db, "octocat")

	got, err := db.GetProfileByUsername(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GetProfileByUsername() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.Linked() {
		t.Error("fresh profile should not be linked")
	}

	_, err = db.GetProfileByUsername(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing profile error = %v, want ErrNotFound", err)
	}
}

func TestListProfiles_OrderedByUsername(t *testing.T) {
	db := newTestDB(t)
	createTestProfile(t, db, "zed")
	createTestProfile(t, db, "alice")
	createTestProfile(t, db, "mona")

	profiles, err := db.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}

	want := []string{"alice", "mona", "zed"}
	if len(profiles) != len(want) {
		t.Fatalf("got %d profiles, want %d", len(profiles), len(want))
	}
	for i, username := range want {
		if profiles[i].Username != username {
			t.Errorf("profiles[%d].Username = %q, want %q", i, profiles[i].Username, username)
		}
	}
}

// =========================================================================
// LINKING TESTS
// =========================================================================

func TestLinkGitHub_CreatesProfile(t *testing.T) {
	db := newTestDB(t)

	p, err := db.LinkGitHub(context.Background(), 583231, "octocat")
	if err != nil {
		t.Fatalf("LinkGitHub() error = %v", err)
	}

	if p.GitHubID != 583231 {
		t.Errorf("GitHubID = %d, want 583231", p.GitHubID)
	}
	if p.PublicID == "" {
		t.Error("LinkGitHub() did not assign a public id")
	}

	// And it resolves via the public id.
	got, err := db.GetProfileByPublicID(context.Background(), p.PublicID)
	if err != nil {
		t.Fatalf("GetProfileByPublicID() error = %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("public lookup returned %q, want %q", got.ID, p.ID)
	}
}

func TestLinkGitHub_AttachesToRegisteredProfile(t *testing.T) {
	db := newTestDB(t)
	registered := createTestProfile(t, db, "octocat")

	p, err := db.LinkGitHub(context.Background(), 583231, "octocat")
	if err != nil {
		t.Fatalf("LinkGitHub() error = %v", err)
	}

	if p.ID != registered.ID {
		t.Errorf("linked to profile %q, want pre-registered %q", p.ID, registered.ID)
	}
	if p.GitHubID != 583231 || p.PublicID == "" {
		t.Errorf("profile not fully linked: %+v", p)
	}
}

func TestLinkGitHub_Idempotent(t *testing.T) {
	db := newTestDB(t)

	first, err := db.LinkGitHub(context.Background(), 583231, "octocat")
	if err != nil {
		t.Fatalf("first LinkGitHub() error = %v", err)
	}
	second, err := db.LinkGitHub(context.Background(), 583231, "octocat")
	if err != nil {
		t.Fatalf("second LinkGitHub() error = %v", err)
	}

	// Same profile, same public id — identity is assigned exactly once.
	if second.ID != first.ID {
		t.Errorf("second link returned %q, want %q", second.ID, first.ID)
	}
	if second.PublicID != first.PublicID {
		t.Errorf("public id changed on relink: %q → %q", first.PublicID, second.PublicID)
	}
}

func TestLinkGitHub_CorrectsUsernameOnRename(t *testing.T) {
	db := newTestDB(t)

	first, err := db.LinkGitHub(context.Background(), 583231, "oldname")
	if err != nil {
		t.Fatalf("LinkGitHub() error = %v", err)
	}

	renamed, err := db.LinkGitHub(context.Background(), 583231, "newname")
	if err != nil {
		t.Fatalf("LinkGitHub() after rename error = %v", err)
	}

	if renamed.ID != first.ID {
		t.Errorf("rename created a new profile")
	}
	if renamed.Username != "newname" {
		t.Errorf("Username = %q, want %q", renamed.Username, "newname")
	}
}

func TestLinkGitHub_RefusesToStealLinkedUsername(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.LinkGitHub(context.Background(), 111, "octocat"); err != nil {
		t.Fatalf("LinkGitHub() error = %v", err)
	}

	// A different GitHub account claiming the same login must not
	// overwrite the existing link.
	_, err := db.LinkGitHub(context.Background(), 222, "octocat")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("LinkGitHub() error = %v, want ErrConflict", err)
	}

	p, err := db.GetProfileByUsername(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GetProfileByUsername() error = %v", err)
	}
	if p.GitHubID != 111 {
		t.Errorf("GitHubID = %d, want original 111", p.GitHubID)
	}
}

func TestTwoUnlinkedProfilesAllowed(t *testing.T) {
	// The github_id/public_id uniqueness is partial: multiple unlinked
	// profiles (NULL identity columns) must coexist.
	db := newTestDB(t)
	createTestProfile(t, db, "alice")
	createTestProfile(t, db, "bob")

	profiles, err := db.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("got %d profiles, want 2", len(profiles))
	}
}
