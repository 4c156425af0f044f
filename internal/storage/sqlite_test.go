package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/campuslens/campuslens/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInstitutionRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	applied := 1000
	rec := &models.InstitutionRecord{
		Key:  "yale",
		Name: "Yale University",
		Admissions: &models.Admissions{
			TotalApplied: &applied,
		},
	}
	if err := store.UpsertInstitution(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetInstitution(ctx, "yale")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Yale University" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Admissions == nil || got.Admissions.TotalApplied == nil || *got.Admissions.TotalApplied != 1000 {
		t.Errorf("admissions = %+v", got.Admissions)
	}
	if got.Costs != nil {
		t.Errorf("absent section must stay nil, got %+v", got.Costs)
	}
}

func TestUpsertInstitutionReplaces(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.UpsertInstitution(ctx, &models.InstitutionRecord{Key: "yale", Name: "Yale"}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertInstitution(ctx, &models.InstitutionRecord{Key: "yale", Name: "Yale University"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetInstitution(ctx, "yale")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Yale University" {
		t.Errorf("name = %q, want updated value", got.Name)
	}
	count, err := store.CountInstitutions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestUpsertInstitutionMissingKey(t *testing.T) {
	store := newTestStorage(t)
	if err := store.UpsertInstitution(context.Background(), &models.InstitutionRecord{Name: "X"}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestGetInstitutionNotFound(t *testing.T) {
	store := newTestStorage(t)
	if _, err := store.GetInstitution(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestListInstitutions(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	for _, key := range []string{"brown", "yale", "harvard"} {
		if err := store.UpsertInstitution(ctx, &models.InstitutionRecord{Key: key, Name: key}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := store.ListInstitutions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records", len(got))
	}
	// Ordered by key.
	if got[0].Key != "brown" || got[2].Key != "yale" {
		t.Errorf("order = %s, %s, %s", got[0].Key, got[1].Key, got[2].Key)
	}
}

func TestScholarshipsByInstitutionKey(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	records := []*models.ScholarshipRecord{
		{ID: "s1", InstitutionKey: "yale", Name: "Merit Award", Eligibility: []string{"3.8 GPA"}},
		{ID: "s2", InstitutionKey: "yale", Name: "Need Grant"},
		{ID: "s3", InstitutionKey: "brown", Name: "Transfer Grant"},
	}
	for _, rec := range records {
		if err := store.UpsertScholarship(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ScholarshipsByInstitutionKey(ctx, "yale")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Name != "Merit Award" {
		t.Errorf("order = %q, want name order", got[0].Name)
	}
	if len(got[0].Eligibility) != 1 || got[0].Eligibility[0] != "3.8 GPA" {
		t.Errorf("eligibility = %v", got[0].Eligibility)
	}

	none, err := store.ScholarshipsByInstitutionKey(ctx, "hogwarts")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("unknown key: got %v, want empty", none)
	}

	count, err := store.CountScholarships(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count = %d", count)
	}
}

func TestDeleteInstitution(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if err := store.UpsertInstitution(ctx, &models.InstitutionRecord{Key: "yale", Name: "Yale"}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteInstitution(ctx, "yale"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetInstitution(ctx, "yale"); err == nil {
		t.Error("expected not-found after delete")
	}
}
