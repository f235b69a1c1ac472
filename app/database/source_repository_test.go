package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestCreateAndGetSource(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepo(db)

	created, err := repo.CreateSource("https://example.com/feed", SourceKindRSS, "Example")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if created.ID == "" {
		t.Error("Expected generated source ID")
	}
	if created.URL != "https://example.com/feed" || created.Kind != SourceKindRSS {
		t.Errorf("Unexpected source: %+v", created)
	}
	if !created.Enabled {
		t.Error("Expected new source to be enabled")
	}

	byURL, err := repo.GetSourceByURL("https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if byURL == nil || byURL.ID != created.ID {
		t.Errorf("Expected lookup by URL to return the created source, got %+v", byURL)
	}

	missing, err := repo.GetSource("no-such-id")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing source, got %+v", missing)
	}
}

func TestGetEnabledSources(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepo(db)

	if _, err := repo.CreateSource("https://a.example.com/feed", SourceKindRSS, "A"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	disabled, err := repo.CreateSource("https://b.example.com/feed", SourceKindWeb, "B")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	off := false
	if _, err := repo.UpdateSource(disabled.ID, SourcePatch{Enabled: &off}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	enabled, err := repo.GetEnabledSources()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(enabled) != 1 || enabled[0].Name != "A" {
		t.Errorf("Expected only the enabled source, got %+v", enabled)
	}

	all, err := repo.GetAllSources()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 sources total, got %d", len(all))
	}
}

func TestUpdateSourcePatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepo(db)

	source, err := repo.CreateSource("https://example.com/feed", SourceKindRSS, "Old Name")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	name := "New Name"
	updated, err := repo.UpdateSource(source.ID, SourcePatch{Name: &name})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.Name != "New Name" {
		t.Errorf("Expected patched name, got %q", updated.Name)
	}
	// Fields not present in the patch are left alone.
	if updated.URL != source.URL || updated.Kind != source.Kind || !updated.Enabled {
		t.Errorf("Expected unpatched fields to be preserved, got %+v", updated)
	}

	missing, err := repo.UpdateSource("no-such-id", SourcePatch{Name: &name})
	if err != nil {
		t.Fatalf("Expected no error for missing source, got %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing source, got %+v", missing)
	}
}

func TestDeleteSource(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepo(db)

	source, err := repo.CreateSource("https://example.com/feed", SourceKindRSS, "Example")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := repo.DeleteSource(source.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := repo.DeleteSource(source.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for missing source, got %v", err)
	}
}

func TestUpsertSourceKeepsID(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepo(db)

	if err := repo.UpsertSource("https://example.com/feed", SourceKindRSS, "First", true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first, err := repo.GetSourceByURL("https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := repo.UpsertSource("https://example.com/feed", SourceKindRSS, "Renamed", false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := repo.GetSourceByURL("https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Expected upsert to keep the source ID, got %s and %s", first.ID, second.ID)
	}
	if second.Name != "Renamed" || second.Enabled {
		t.Errorf("Expected name and enabled flag to be refreshed, got %+v", second)
	}

	count, err := repo.GetSourceCount()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 source after upserts, got %d", count)
	}
}

func TestUpdateLastFetched(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepo(db)

	source, err := repo.CreateSource("https://example.com/feed", SourceKindRSS, "Example")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if source.LastFetchedAt != nil {
		t.Errorf("Expected no fetch time on a new source, got %v", source.LastFetchedAt)
	}

	fetchedAt := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateLastFetched(source.ID, fetchedAt); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	updated, err := repo.GetSource(source.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.LastFetchedAt == nil || !updated.LastFetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected last fetched %v, got %v", fetchedAt, updated.LastFetchedAt)
	}
}
