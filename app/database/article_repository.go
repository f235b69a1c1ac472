package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArticleRepo handles database operations for articles.
type ArticleRepo struct {
	db *DB
}

var _ ArticleRepository = (*ArticleRepo)(nil)

func NewArticleRepo(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = `id, source_id, url, title, summary, body, ai_summary,
	quality_score, quality_rationale, embedding, published_at,
	interaction_status, extraction_status, extraction_error,
	final_score, ranked_at, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var a Article
	var embedding []byte

	err := row.Scan(&a.ID, &a.SourceID, &a.URL, &a.Title, &a.Summary, &a.Body,
		&a.AISummary, &a.QualityScore, &a.QualityRationale, &embedding,
		&a.PublishedAt, &a.InteractionStatus, &a.ExtractionStatus,
		&a.ExtractionError, &a.FinalScore, &a.RankedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Embedding, err = decodeVector(embedding)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// InsertFetched persists a newly discovered article in pending state.
// The URL unique constraint is the dedup gate: a conflict means the URL
// was processed in an earlier run and the row is left untouched.
func (r *ArticleRepo) InsertFetched(article FetchedArticle) (bool, error) {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		INSERT INTO articles (id, source_id, url, title, summary, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
	`, uuid.NewString(), article.SourceID, article.URL, article.Title,
		article.Summary, article.PublishedAt, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check inserted rows: %w", err)
	}

	return affected > 0, nil
}

// KnownURLs reports which of the given URLs already have article rows.
func (r *ArticleRepo) KnownURLs(urls []string) (map[string]bool, error) {
	known := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return known, nil
	}

	placeholders := strings.Repeat("?,", len(urls)-1) + "?"
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	rows, err := r.db.Query(`SELECT url FROM articles WHERE url IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query known URLs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan URL row: %w", err)
		}
		known[url] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating URL rows: %w", err)
	}

	return known, nil
}

func (r *ArticleRepo) GetArticlesForExtraction(limit int) ([]Article, error) {
	return r.queryArticles(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE extraction_status = ?
		ORDER BY created_at
		LIMIT ?
	`, ExtractionPending, limit)
}

func (r *ArticleRepo) UpdateExtractedBody(id, title, body string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET title = ?, body = ?, extraction_status = ?, extraction_error = '', updated_at = ?
		WHERE id = ?
	`, title, body, ExtractionSuccess, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update extracted body: %w", err)
	}

	return nil
}

// MarkExtractionFailed records a terminal extraction failure. The article
// stays inspectable but is permanently excluded from later stages.
func (r *ArticleRepo) MarkExtractionFailed(id, reason string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET extraction_status = ?, extraction_error = ?, updated_at = ?
		WHERE id = ?
	`, ExtractionFailed, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark extraction failed: %w", err)
	}

	return nil
}

func (r *ArticleRepo) GetArticlesForEmbedding(limit int) ([]Article, error) {
	return r.queryArticles(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE extraction_status = ?
		  AND embedding IS NULL
		  AND ranked_at IS NULL
		ORDER BY created_at
		LIMIT ?
	`, ExtractionSuccess, limit)
}

func (r *ArticleRepo) UpdateEmbedding(id string, embedding []float32) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET embedding = ?, updated_at = ?
		WHERE id = ?
	`, encodeVector(embedding), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}

	return nil
}

func (r *ArticleRepo) GetArticlesForScoring(limit int) ([]Article, error) {
	return r.queryArticles(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE extraction_status = ?
		  AND quality_score IS NULL
		  AND ranked_at IS NULL
		ORDER BY created_at
		LIMIT ?
	`, ExtractionSuccess, limit)
}

func (r *ArticleRepo) UpdateQualityScore(id string, score float64, rationale, summary string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET quality_score = ?, quality_rationale = ?, ai_summary = ?, updated_at = ?
		WHERE id = ?
	`, score, rationale, summary, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update quality score: %w", err)
	}

	return nil
}

// GetArticlesForRanking returns articles with both an embedding and a
// quality score that have no admission decision yet.
func (r *ArticleRepo) GetArticlesForRanking(limit int) ([]Article, error) {
	return r.queryArticles(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE embedding IS NOT NULL
		  AND quality_score IS NOT NULL
		  AND ranked_at IS NULL
		ORDER BY created_at
		LIMIT ?
	`, limit)
}

func (r *ArticleRepo) GetArticle(id string) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return a, nil
}

func (r *ArticleRepo) GetStats() (ArticleStats, error) {
	var stats ArticleStats

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN extraction_status = 'pending' THEN 1 END),
		       COUNT(CASE WHEN extraction_status = 'success' THEN 1 END),
		       COUNT(CASE WHEN extraction_status = 'failed' THEN 1 END),
		       COUNT(embedding),
		       COUNT(quality_score),
		       COUNT(ranked_at)
		FROM articles
	`).Scan(&stats.Total, &stats.Pending, &stats.Extracted, &stats.ExtractionFailed,
		&stats.Embedded, &stats.Scored, &stats.Ranked)
	if err != nil {
		return stats, fmt.Errorf("failed to get article stats: %w", err)
	}

	return stats, nil
}

func (r *ArticleRepo) queryArticles(query string, args ...any) ([]Article, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}
