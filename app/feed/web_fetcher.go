package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WebFetcher discovers candidates from a plain web page, such as an
// aggregator front page without a feed. It collects same-host article
// links from the page in document order.
type WebFetcher struct {
	httpClient *HTTPClient
	limit      int
}

var _ Fetcher = (*WebFetcher)(nil)

func NewWebFetcher(httpClient *HTTPClient, limit int) *WebFetcher {
	return &WebFetcher{
		httpClient: httpClient,
		limit:      limit,
	}
}

func (f *WebFetcher) Fetch(ctx context.Context, sourceURL string) ([]Item, error) {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source URL: %w", err)
	}

	data, err := f.httpClient.Get(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]bool)
	var items []Item

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())

		link := resolveArticleLink(base, href)
		if link == "" || title == "" || seen[link] {
			return true
		}
		seen[link] = true

		// A page has no per-item publish time; discovery time keeps
		// newer runs ordered after older ones.
		items = append(items, Item{
			URL:         link,
			Title:       title,
			PublishedAt: now,
		})

		return f.limit <= 0 || len(items) < f.limit
	})

	slog.Debug("Discovered web page links", "source", sourceURL, "count", len(items))

	return items, nil
}

// resolveArticleLink resolves href against the page URL and returns its
// canonical form, or "" when the link does not look like an article on
// the same site.
func resolveArticleLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(resolved.Host, base.Host) {
		return ""
	}
	if resolved.Path == "" || resolved.Path == "/" || resolved.Path == base.Path {
		return ""
	}

	canonical, err := CanonicalURL(resolved.String())
	if err != nil {
		return ""
	}

	return canonical
}
