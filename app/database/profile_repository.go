package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ProfileRepo handles the single interest profile row.
type ProfileRepo struct {
	db *DB
}

var _ ProfileRepository = (*ProfileRepo)(nil)

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetProfile returns the interest profile, or nil when none has been
// initialized yet (cold start).
func (r *ProfileRepo) GetProfile() (*InterestProfile, error) {
	var embedding []byte
	var profile InterestProfile

	err := r.db.QueryRow(`
		SELECT embedding, update_count, updated_at
		FROM interest_profile
		WHERE id = 1
	`).Scan(&embedding, &profile.UpdateCount, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interest profile: %w", err)
	}

	profile.Embedding, err = decodeVector(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode interest profile: %w", err)
	}

	return &profile, nil
}

func (r *ProfileRepo) SaveProfile(embedding []float32) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO interest_profile (id, embedding, update_count, created_at, updated_at)
		VALUES (1, ?, 0, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`, encodeVector(embedding), now, now)
	if err != nil {
		return fmt.Errorf("failed to save interest profile: %w", err)
	}

	return nil
}
