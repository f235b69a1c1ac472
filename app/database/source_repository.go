package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceRepo handles database operations for content sources.
type SourceRepo struct {
	db *DB
}

var _ SourceRepository = (*SourceRepo)(nil)

func NewSourceRepo(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, url, kind, name, enabled, last_fetched_at, created_at, updated_at`

func (r *SourceRepo) scanSource(row interface{ Scan(...any) error }) (*Source, error) {
	var s Source
	err := row.Scan(&s.ID, &s.URL, &s.Kind, &s.Name, &s.Enabled,
		&s.LastFetchedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SourceRepo) GetEnabledSources() ([]Source, error) {
	return r.querySources(`
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE enabled = 1
		ORDER BY created_at
	`)
}

func (r *SourceRepo) GetAllSources() ([]Source, error) {
	return r.querySources(`
		SELECT ` + sourceColumns + `
		FROM sources
		ORDER BY created_at
	`)
}

func (r *SourceRepo) querySources(query string, args ...any) ([]Source, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := r.scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *SourceRepo) GetSource(id string) (*Source, error) {
	s, err := r.scanSource(r.db.QueryRow(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return s, nil
}

func (r *SourceRepo) GetSourceByURL(url string) (*Source, error) {
	s, err := r.scanSource(r.db.QueryRow(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE url = ?
	`, url))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by URL: %w", err)
	}

	return s, nil
}

func (r *SourceRepo) CreateSource(url, kind, name string) (*Source, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO sources (id, url, kind, name, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
	`, id, url, kind, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	return r.GetSource(id)
}

func (r *SourceRepo) UpdateSource(id string, patch SourcePatch) (*Source, error) {
	existing, err := r.GetSource(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if patch.Name != nil {
		existing.Name = *patch.Name
	}
	if patch.Kind != nil {
		existing.Kind = *patch.Kind
	}
	if patch.URL != nil {
		existing.URL = *patch.URL
	}
	if patch.Enabled != nil {
		existing.Enabled = *patch.Enabled
	}

	_, err = r.db.Exec(`
		UPDATE sources
		SET url = ?, kind = ?, name = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`, existing.URL, existing.Kind, existing.Name, existing.Enabled, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	}

	return r.GetSource(id)
}

func (r *SourceRepo) DeleteSource(id string) error {
	result, err := r.db.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// UpsertSource registers a source by canonical URL, used by the startup
// bootstrap. Existing rows keep their id; name, kind and enabled flag are
// refreshed.
func (r *SourceRepo) UpsertSource(url, kind, name string, enabled bool) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO sources (id, url, kind, name, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, uuid.NewString(), url, kind, name, enabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

// UpdateLastFetched records a successful list operation against the source.
func (r *SourceRepo) UpdateLastFetched(id string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_fetched_at = ?, updated_at = ?
		WHERE id = ?
	`, fetchedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}

	return nil
}

func (r *SourceRepo) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}
