// Package feed discovers article candidates from RSS and web sources
// and extracts readable article bodies.
package feed

import (
	"context"
	"time"
)

// Item is one discovered article candidate. URL is already canonical.
type Item struct {
	URL         string
	Title       string
	Summary     string
	PublishedAt time.Time
}

// Fetcher lists the newest candidates from one source URL.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]Item, error)
}
