package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSFetcher discovers candidates from an RSS or Atom feed.
type RSSFetcher struct {
	httpClient *HTTPClient
	parser     *gofeed.Parser
	limit      int
}

var _ Fetcher = (*RSSFetcher)(nil)

func NewRSSFetcher(httpClient *HTTPClient, limit int) *RSSFetcher {
	return &RSSFetcher{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		limit:      limit,
	}
}

// Fetch returns the newest items from the feed, capped at the
// per-source limit.
func (f *RSSFetcher) Fetch(ctx context.Context, sourceURL string) ([]Item, error) {
	data, err := f.httpClient.Get(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry.Link == "" {
			continue
		}

		canonical, err := CanonicalURL(entry.Link)
		if err != nil {
			slog.Debug("Skipping item with unparseable link", "link", entry.Link, "error", err)
			continue
		}

		item := Item{
			URL:     canonical,
			Title:   entry.Title,
			Summary: firstNonEmpty(entry.Content, entry.Description),
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC()
		} else {
			item.PublishedAt = time.Now().UTC()
		}

		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	if f.limit > 0 && len(items) > f.limit {
		items = items[:f.limit]
	}

	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
