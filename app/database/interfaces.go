package database

import (
	"time"
)

type SourceRepository interface {
	GetEnabledSources() ([]Source, error)
	GetAllSources() ([]Source, error)
	GetSource(id string) (*Source, error)
	GetSourceByURL(url string) (*Source, error)
	CreateSource(url, kind, name string) (*Source, error)
	UpdateSource(id string, patch SourcePatch) (*Source, error)
	DeleteSource(id string) error
	UpsertSource(url, kind, name string, enabled bool) error
	UpdateLastFetched(id string, fetchedAt time.Time) error
	GetSourceCount() (int, error)
}

type ArticleRepository interface {
	// InsertFetched persists a new article row in pending state. Returns
	// false without error when the URL is already known (dedup gate).
	InsertFetched(article FetchedArticle) (bool, error)
	KnownURLs(urls []string) (map[string]bool, error)

	GetArticlesForExtraction(limit int) ([]Article, error)
	UpdateExtractedBody(id, title, body string) error
	MarkExtractionFailed(id, reason string) error

	GetArticlesForEmbedding(limit int) ([]Article, error)
	UpdateEmbedding(id string, embedding []float32) error

	GetArticlesForScoring(limit int) ([]Article, error)
	UpdateQualityScore(id string, score float64, rationale, summary string) error

	GetArticlesForRanking(limit int) ([]Article, error)
	GetArticle(id string) (*Article, error)
	GetStats() (ArticleStats, error)
}

type QueueRepository interface {
	// RecordDecision marks the article as ranked and, when admitted,
	// creates the unread queue entry in the same transaction.
	RecordDecision(articleID string, finalScore float64, admitted bool) error
	GetUnreadFeed(limit int) ([]FeedEntry, error)
	GetStats() (QueueStats, error)

	// ApplyFeedback transitions the queue entry and article status for a
	// reader action. On a like, updateProfile is invoked with the current
	// interest vector and its result is persisted, all in one transaction.
	// A repeated action on a non-unread entry is a no-op.
	ApplyFeedback(articleID, action string, updateProfile func(old, article []float32) []float32) (*FeedbackResult, error)
}

type ProfileRepository interface {
	GetProfile() (*InterestProfile, error)
	SaveProfile(embedding []float32) error
}

type SettingsRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
