package database

import (
	"time"
)

// FetchedArticle is a deduplicated candidate persisted before any
// downstream stage runs.
type FetchedArticle struct {
	SourceID    string
	URL         string
	Title       string
	Summary     string
	PublishedAt *time.Time
}

// SourcePatch carries optional field updates for a source. Nil fields
// are left unchanged.
type SourcePatch struct {
	Name    *string
	Kind    *string
	URL     *string
	Enabled *bool
}

type ArticleStats struct {
	Total            int
	Pending          int
	Extracted        int
	ExtractionFailed int
	Embedded         int
	Scored           int
	Ranked           int
}

type QueueStats struct {
	Total   int
	Unread  int
	Liked   int
	Skipped int
}

// FeedbackResult reports the outcome of a feedback event.
type FeedbackResult struct {
	EntryID        string
	NewStatus      string
	Applied        bool // false when the entry had already left the unread state
	ProfileUpdated bool
}
