package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// ErrBodyTooShort marks an article whose extracted body is below the
// minimum length. The failure is terminal for the article.
var ErrBodyTooShort = errors.New("extracted body below minimum length")

// ErrUnreadable marks a page readability could not parse. Like a too
// short body, the failure is terminal for the article; a fetch error is
// not and the article is retried on the next run.
var ErrUnreadable = errors.New("no readable content found")

// Extractor produces a readable plain-text body for an article. The
// feed-provided summary is used when it is substantial enough,
// otherwise the article page is fetched and run through readability.
type Extractor struct {
	httpClient *HTTPClient
	minLength  int
}

func NewExtractor(httpClient *HTTPClient, minLength int) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		minLength:  minLength,
	}
}

// Result is the extracted article content. Title is empty when the
// source title should be kept.
type Result struct {
	Title string
	Body  string
}

func (e *Extractor) Extract(ctx context.Context, articleURL, feedSummary string) (*Result, error) {
	if body := normalizeText(htmlToText(feedSummary)); len(body) >= e.minLength {
		slog.Debug("Using feed summary as body", "url", articleURL, "length", len(body))
		return &Result{Body: body}, nil
	}

	data, err := e.httpClient.Get(ctx, articleURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article page: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	body := normalizeText(article.TextContent)
	if len(body) < e.minLength {
		return nil, fmt.Errorf("%w: %d chars", ErrBodyTooShort, len(body))
	}

	return &Result{
		Title: strings.TrimSpace(article.Title),
		Body:  body,
	}, nil
}

// normalizeText strips markup remnants and collapses whitespace so
// length checks and embeddings see clean prose.
func normalizeText(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}

// htmlToText flattens feed summaries, which are often HTML fragments,
// into plain text.
func htmlToText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	return doc.Text()
}
