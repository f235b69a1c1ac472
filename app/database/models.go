package database

import (
	"time"
)

const (
	SourceKindRSS = "RSS"
	SourceKindWeb = "WEB"
)

const (
	InteractionNone     = "none"
	InteractionLiked    = "liked"
	InteractionDisliked = "disliked"
	InteractionSkipped  = "skipped"
)

const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
)

const (
	QueueStatusUnread  = "unread"
	QueueStatusLiked   = "liked"
	QueueStatusSkipped = "skipped"
)

// Settings keys.
const (
	SettingScoringPrompt = "scoring_prompt"
)

type Source struct {
	ID            string
	URL           string // Canonical feed or page URL, unique across sources
	Kind          string // RSS or WEB
	Name          string
	Enabled       bool
	LastFetchedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Article struct {
	ID                string
	SourceID          string
	URL               string // Canonical article URL, the sole dedup key
	Title             string
	Summary           string // Raw feed-provided summary or description
	Body              string // Clean extracted text
	AISummary         string
	QualityScore      *float64 // nil until scored
	QualityRationale  string
	Embedding         []float32 // nil until embedded
	PublishedAt       *time.Time
	InteractionStatus string
	ExtractionStatus  string
	ExtractionError   string
	FinalScore        *float64   // nil until an admission decision is made
	RankedAt          *time.Time // set exactly once, the decision is permanent
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type QueueEntry struct {
	ID         string
	ArticleID  string
	FinalScore float64
	Status     string
	CreatedAt  time.Time
}

type InterestProfile struct {
	Embedding   []float32
	UpdateCount int
	UpdatedAt   time.Time
}

// FeedEntry is a queue entry joined to its article and source for display.
type FeedEntry struct {
	EntryID          string
	ArticleID        string
	SourceID         string
	SourceName       string
	URL              string
	Title            string
	Body             string
	AISummary        string
	QualityScore     *float64
	QualityRationale string
	PublishedAt      *time.Time
	FinalScore       float64
	Status           string
	CreatedAt        time.Time
}
