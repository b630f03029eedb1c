package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/contribgraph/internal/model"
)

func TestUpsertDay(t *testing.T) {
	db := newTestDB(t)
	p := createTestProfile(t, db, "octocat")
	ctx := context.Background()

	if err := db.UpsertDay(ctx, p.ID, "2026-02-16", 2); err != nil {
		t.Fatalf("UpsertDay() error = %v", err)
	}

	// Re-posting the same day replaces the count, not adds a row.
	if err := db.UpsertDay(ctx, p.ID, "2026-02-16", 5); err != nil {
		t.Fatalf("UpsertDay() update error = %v", err)
	}

	counts, err := db.DaysInRange(ctx, p.ID, "2026-02-01", "2026-02-28")
	if err != nil {
		t.Fatalf("DaysInRange() error = %v", err)
	}
	if len(counts) != 1 || counts["2026-02-16"] != 5 {
		t.Errorf("counts = %v, want one row with count 5", counts)
	}
}

func TestReplaceDays(t *testing.T) {
	db := newTestDB(t)
	p := createTestProfile(t, db, "octocat")
	ctx := context.Background()

	// Seed an old set that the replace must fully remove.
	if err := db.UpsertDay(ctx, p.ID, "2025-06-01", 9); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	written, err := db.ReplaceDays(ctx, p.ID, []model.ContributionDay{
		{Day: "2026-02-16", Count: 2},
		{Day: "2026-02-17", Count: 0},  // non-positive: dropped
		{Day: "2026-02-18", Count: -1}, // non-positive: dropped
		{Day: "2026-02-19", Count: 7},
	})
	if err != nil {
		t.Fatalf("ReplaceDays() error = %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	counts, err := db.DaysInRange(ctx, p.ID, "2025-01-01", "2026-12-31")
	if err != nil {
		t.Fatalf("DaysInRange() error = %v", err)
	}
	want := map[string]int{"2026-02-16": 2, "2026-02-19": 7}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for day, count := range want {
		if counts[day] != count {
			t.Errorf("counts[%s] = %d, want %d", day, counts[day], count)
		}
	}
}

func TestReplaceDays_RoundTrip(t *testing.T) {
	// Persisting a fetched sample set then reading it back reproduces the
	// same per-day counts.
	db := newTestDB(t)
	p := createTestProfile(t, db, "octocat")
	ctx := context.Background()

	fetched := []model.ContributionDay{
		{Day: "2026-02-16", Count: 2},
		{Day: "2026-02-17", Count: 10},
		{Day: "2026-02-20", Count: 1},
	}
	if _, err := db.ReplaceDays(ctx, p.ID, fetched); err != nil {
		t.Fatalf("ReplaceDays() error = %v", err)
	}

	counts, err := db.DaysInRange(ctx, p.ID, "2026-02-16", "2026-02-20")
	if err != nil {
		t.Fatalf("DaysInRange() error = %v", err)
	}
	for _, d := range fetched {
		if counts[d.Day] != d.Count {
			t.Errorf("counts[%s] = %d, want %d", d.Day, counts[d.Day], d.Count)
		}
	}
	if len(counts) != len(fetched) {
		t.Errorf("got %d rows, want %d", len(counts), len(fetched))
	}
}

func TestReplaceDays_EmptySetClears(t *testing.T) {
	db := newTestDB(t)
	p := createTestProfile(t, db, "octocat")
	ctx := context.Background()

	if err := db.UpsertDay(ctx, p.ID, "2026-02-16", 2); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	written, err := db.ReplaceDays(ctx, p.ID, nil)
	if err != nil {
		t.Fatalf("ReplaceDays() error = %v", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}

	counts, err := db.DaysInRange(ctx, p.ID, "2026-01-01", "2026-12-31")
	if err != nil {
		t.Fatalf("DaysInRange() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty", counts)
	}
}

func TestDaysInRange_IsolatedPerProfile(t *testing.T) {
	db := newTestDB(t)
	a := createTestProfile(t, db, "alice")
	b := createTestProfile(t, db, "bob")
	ctx := context.Background()

	if err := db.UpsertDay(ctx, a.ID, "2026-02-16", 3); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if err := db.UpsertDay(ctx, b.ID, "2026-02-16", 8); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	counts, err := db.DaysInRange(ctx, a.ID, "2026-02-01", "2026-02-28")
	if err != nil {
		t.Fatalf("DaysInRange() error = %v", err)
	}
	if len(counts) != 1 || counts["2026-02-16"] != 3 {
		t.Errorf("alice counts = %v, want only her own row", counts)
	}
}

func TestDaysInRange_BoundsInclusive(t *testing.T) {
	db := newTestDB(t)
	p := createTestProfile(t, db, "octocat")
	ctx := context.Background()

	for day, count := range map[string]int{
		"2026-02-15": 1, // before range
		"2026-02-16": 2, // from bound
		"2026-02-18": 3, // to bound
		"2026-02-19": 4, // after range
	} {
		if err := db.UpsertDay(ctx, p.ID, day, count); err != nil {
			t.Fatalf("seeding %s: %v", day, err)
		}
	}

	counts, err := db.DaysInRange(ctx, p.ID, "2026-02-16", "2026-02-18")
	if err != nil {
		t.Fatalf("DaysInRange() error = %v", err)
	}
	if len(counts) != 2 || counts["2026-02-16"] != 2 || counts["2026-02-18"] != 3 {
		t.Errorf("counts = %v, want both bounds included and nothing else", counts)
	}
}
