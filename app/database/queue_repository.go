package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrEntryNotFound is returned by ApplyFeedback when no queue entry
// exists for the article.
var ErrEntryNotFound = errors.New("queue entry not found")

// QueueRepo handles database operations for the reading queue.
type QueueRepo struct {
	db *DB
}

var _ QueueRepository = (*QueueRepo)(nil)

func NewQueueRepo(db *DB) *QueueRepo {
	return &QueueRepo{db: db}
}

// RecordDecision marks the article as ranked and, when admitted, creates
// the unread queue entry. Both writes commit in one transaction so a
// crash cannot admit an article without recording the decision.
func (r *QueueRepo) RecordDecision(articleID string, finalScore float64, admitted bool) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	result, err := tx.Exec(`
		UPDATE articles
		SET final_score = ?, ranked_at = ?, updated_at = ?
		WHERE id = ? AND ranked_at IS NULL
	`, finalScore, now, now, articleID)
	if err != nil {
		return fmt.Errorf("failed to record ranking decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check decided rows: %w", err)
	}
	if affected == 0 {
		// Already decided in a concurrent or earlier run; the decision
		// is permanent, so do not admit again.
		return nil
	}

	if admitted {
		_, err = tx.Exec(`
			INSERT INTO queue_entries (id, article_id, final_score, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.NewString(), articleID, finalScore, QueueStatusUnread, now)
		if err != nil {
			return fmt.Errorf("failed to create queue entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}

	return nil
}

func (r *QueueRepo) GetUnreadFeed(limit int) ([]FeedEntry, error) {
	rows, err := r.db.Query(`
		SELECT q.id, q.article_id, a.source_id, s.name, a.url, a.title, a.body,
		       a.ai_summary, a.quality_score, a.quality_rationale, a.published_at,
		       q.final_score, q.status, q.created_at
		FROM queue_entries q
		JOIN articles a ON a.id = q.article_id
		JOIN sources s ON s.id = a.source_id
		WHERE q.status = ?
		ORDER BY q.final_score DESC, q.created_at DESC
		LIMIT ?
	`, QueueStatusUnread, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread feed: %w", err)
	}
	defer rows.Close()

	var entries []FeedEntry
	for rows.Next() {
		var e FeedEntry
		err := rows.Scan(&e.EntryID, &e.ArticleID, &e.SourceID, &e.SourceName,
			&e.URL, &e.Title, &e.Body, &e.AISummary, &e.QualityScore,
			&e.QualityRationale, &e.PublishedAt, &e.FinalScore, &e.Status,
			&e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return entries, nil
}

func (r *QueueRepo) GetStats() (QueueStats, error) {
	var stats QueueStats

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'unread' THEN 1 END),
		       COUNT(CASE WHEN status = 'liked' THEN 1 END),
		       COUNT(CASE WHEN status = 'skipped' THEN 1 END)
		FROM queue_entries
	`).Scan(&stats.Total, &stats.Unread, &stats.Liked, &stats.Skipped)
	if err != nil {
		return stats, fmt.Errorf("failed to get queue stats: %w", err)
	}

	return stats, nil
}

// ApplyFeedback processes a reader action against the queue entry for an
// article. The status transition, the article interaction status and the
// interest profile update commit as one atomic unit, and the update only
// applies on the unread -> liked transition, which makes repeated likes
// harmless.
func (r *QueueRepo) ApplyFeedback(articleID, action string, updateProfile func(old, article []float32) []float32) (*FeedbackResult, error) {
	var newStatus, interaction string
	switch action {
	case "like":
		newStatus, interaction = QueueStatusLiked, InteractionLiked
	case "skip":
		newStatus, interaction = QueueStatusSkipped, InteractionSkipped
	default:
		return nil, fmt.Errorf("unknown feedback action: %q", action)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var entryID, status string
	err = tx.QueryRow(`
		SELECT id, status FROM queue_entries WHERE article_id = ?
	`, articleID).Scan(&entryID, &status)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load queue entry: %w", err)
	}

	if status != QueueStatusUnread {
		// The entry already left the unread state; report the current
		// status without re-applying any side effect.
		return &FeedbackResult{EntryID: entryID, NewStatus: status, Applied: false}, nil
	}

	now := time.Now().UTC()

	if _, err := tx.Exec(`
		UPDATE queue_entries SET status = ? WHERE id = ?
	`, newStatus, entryID); err != nil {
		return nil, fmt.Errorf("failed to update queue entry status: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE articles SET interaction_status = ?, updated_at = ? WHERE id = ?
	`, interaction, now, articleID); err != nil {
		return nil, fmt.Errorf("failed to update article interaction status: %w", err)
	}

	result := &FeedbackResult{EntryID: entryID, NewStatus: newStatus, Applied: true}

	if action == "like" && updateProfile != nil {
		var embedding []byte
		if err := tx.QueryRow(`
			SELECT embedding FROM articles WHERE id = ?
		`, articleID).Scan(&embedding); err != nil {
			return nil, fmt.Errorf("failed to load article embedding: %w", err)
		}

		articleVec, err := decodeVector(embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to decode article embedding: %w", err)
		}

		if len(articleVec) > 0 {
			var current []byte
			err := tx.QueryRow(`
				SELECT embedding FROM interest_profile WHERE id = 1
			`).Scan(&current)
			if err != nil && err != sql.ErrNoRows {
				return nil, fmt.Errorf("failed to load interest profile: %w", err)
			}

			currentVec, err := decodeVector(current)
			if err != nil {
				return nil, fmt.Errorf("failed to decode interest profile: %w", err)
			}

			newVec := updateProfile(currentVec, articleVec)

			if _, err := tx.Exec(`
				INSERT INTO interest_profile (id, embedding, update_count, created_at, updated_at)
				VALUES (1, ?, 1, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					embedding = excluded.embedding,
					update_count = update_count + 1,
					updated_at = excluded.updated_at
			`, encodeVector(newVec), now, now); err != nil {
				return nil, fmt.Errorf("failed to save interest profile: %w", err)
			}

			result.ProfileUpdated = true
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit feedback: %w", err)
	}

	return result, nil
}
