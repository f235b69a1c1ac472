package database

import (
	"testing"
	"time"
)

func TestInsertFetchedDedup(t *testing.T) {
	db := newTestDB(t)
	source := createTestSource(t, db)
	repo := NewArticleRepo(db)

	publishedAt := time.Now().UTC()
	article := FetchedArticle{
		SourceID:    source.ID,
		URL:         "https://example.com/post",
		Title:       "A Post",
		PublishedAt: &publishedAt,
	}

	created, err := repo.InsertFetched(article)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !created {
		t.Error("Expected first insert to create the article")
	}

	created, err = repo.InsertFetched(article)
	if err != nil {
		t.Fatalf("Expected no error on duplicate insert, got %v", err)
	}
	if created {
		t.Error("Expected duplicate URL to be skipped")
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Expected 1 article after duplicate insert, got %d", stats.Total)
	}
}

func TestKnownURLs(t *testing.T) {
	db := newTestDB(t)
	source := createTestSource(t, db)
	repo := NewArticleRepo(db)

	createTestArticle(t, db, source.ID, "https://example.com/known")

	known, err := repo.KnownURLs([]string{"https://example.com/known", "https://example.com/unknown"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !known["https://example.com/known"] {
		t.Error("Expected known URL to be reported")
	}
	if known["https://example.com/unknown"] {
		t.Error("Expected unknown URL to be absent")
	}
}

func TestExtractionLifecycle(t *testing.T) {
	db := newTestDB(t)
	source := createTestSource(t, db)
	repo := NewArticleRepo(db)

	goodID := createTestArticle(t, db, source.ID, "https://example.com/good")
	badID := createTestArticle(t, db, source.ID, "https://example.com/bad")

	pending, err := repo.GetArticlesForExtraction(100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending articles, got %d", len(pending))
	}

	if err := repo.UpdateExtractedBody(goodID, "Good Title", "A long enough body."); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.MarkExtractionFailed(badID, "body below minimum length"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	pending, err = repo.GetArticlesForExtraction(100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending articles, got %d", len(pending))
	}

	// Only the extracted article moves on, the failed one is terminal.
	forEmbedding, err := repo.GetArticlesForEmbedding(100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(forEmbedding) != 1 || forEmbedding[0].ID != goodID {
		t.Errorf("Expected only the extracted article for embedding, got %+v", forEmbedding)
	}

	failed, err := repo.GetArticle(badID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if failed.ExtractionStatus != ExtractionFailed {
		t.Errorf("Expected failed status, got %s", failed.ExtractionStatus)
	}
	if failed.ExtractionError == "" {
		t.Error("Expected extraction error to be recorded")
	}
}

func TestAnalysisQueries(t *testing.T) {
	db := newTestDB(t)
	source := createTestSource(t, db)
	repo := NewArticleRepo(db)

	id := createTestArticle(t, db, source.ID, "https://example.com/post")
	if err := repo.UpdateExtractedBody(id, "Title", "Body"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Not ready for ranking until both embedding and score exist.
	forRanking, err := repo.GetArticlesForRanking(100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(forRanking) != 0 {
		t.Fatalf("Expected no articles ready for ranking, got %d", len(forRanking))
	}

	if err := repo.UpdateEmbedding(id, []float32{0.1, 0.2}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	forEmbedding, err := repo.GetArticlesForEmbedding(100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(forEmbedding) != 0 {
		t.Errorf("Expected embedded article to leave the embedding set, got %d", len(forEmbedding))
	}

	if err := repo.UpdateQualityScore(id, 0.8, "well argued", "a summary"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	forRanking, err = repo.GetArticlesForRanking(100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(forRanking) != 1 {
		t.Fatalf("Expected 1 article ready for ranking, got %d", len(forRanking))
	}

	article := forRanking[0]
	if article.QualityScore == nil || *article.QualityScore != 0.8 {
		t.Errorf("Expected quality score 0.8, got %v", article.QualityScore)
	}
	if len(article.Embedding) != 2 || article.Embedding[1] != 0.2 {
		t.Errorf("Expected embedding roundtrip, got %v", article.Embedding)
	}
	if article.AISummary != "a summary" {
		t.Errorf("Expected stored summary, got %q", article.AISummary)
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	source := createTestSource(t, db)
	repo := NewArticleRepo(db)

	extractedID := createTestArticle(t, db, source.ID, "https://example.com/a")
	createTestArticle(t, db, source.ID, "https://example.com/b")

	if err := repo.UpdateExtractedBody(extractedID, "Title", "Body"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.UpdateEmbedding(extractedID, []float32{1}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if stats.Total != 2 || stats.Pending != 1 || stats.Extracted != 1 || stats.Embedded != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
