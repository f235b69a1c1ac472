package database

import (
	"testing"
)

func TestGetProfileColdStart(t *testing.T) {
	db := newTestDB(t)

	profile, err := NewProfileRepo(db).GetProfile()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile != nil {
		t.Errorf("Expected nil profile before initialization, got %+v", profile)
	}
}

func TestSaveProfileRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepo(db)

	if err := repo.SaveProfile([]float32{0.25, -1, 2}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	profile, err := repo.GetProfile()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if profile == nil {
		t.Fatal("Expected a profile, got nil")
	}
	if len(profile.Embedding) != 3 || profile.Embedding[0] != 0.25 {
		t.Errorf("Expected embedding roundtrip, got %v", profile.Embedding)
	}
	if profile.UpdateCount != 0 {
		t.Errorf("Expected update count 0 for a seeded profile, got %d", profile.UpdateCount)
	}

	// Saving again replaces the vector, there is only one profile row.
	if err := repo.SaveProfile([]float32{1}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	profile, err = repo.GetProfile()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(profile.Embedding) != 1 || profile.Embedding[0] != 1 {
		t.Errorf("Expected replaced embedding, got %v", profile.Embedding)
	}
}
