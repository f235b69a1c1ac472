package database

import (
	"testing"
)

func TestSettingsGetUnset(t *testing.T) {
	db := newTestDB(t)

	value, err := NewSettingsRepo(db).Get(SettingScoringPrompt)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value for unset key, got %q", value)
	}
}

func TestSettingsSetAndOverwrite(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepo(db)

	if err := repo.Set(SettingScoringPrompt, "first prompt"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.Set(SettingScoringPrompt, "second prompt"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	value, err := repo.Get(SettingScoringPrompt)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if value != "second prompt" {
		t.Errorf("Expected overwritten value, got %q", value)
	}
}
