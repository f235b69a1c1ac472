package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestExtractor(t *testing.T, handler http.HandlerFunc) (*Extractor, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewExtractor(NewHTTPClient(5*time.Second, "TestAgent/1.0"), 200), server.URL
}

func TestExtractUsesLongFeedSummary(t *testing.T) {
	extractor, serverURL := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Expected no page fetch when the summary is long enough")
	})

	summary := "<p>" + strings.Repeat("A sentence about something interesting. ", 10) + "</p>"

	result, err := extractor.Extract(context.Background(), serverURL+"/post", summary)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Title != "" {
		t.Errorf("Expected no title override from summary path, got %q", result.Title)
	}
	if strings.Contains(result.Body, "<p>") {
		t.Errorf("Expected HTML stripped from body, got %q", result.Body)
	}
	if len(result.Body) < 200 {
		t.Errorf("Expected body of at least 200 chars, got %d", len(result.Body))
	}
}

func TestExtractFetchesPageForShortSummary(t *testing.T) {
	paragraph := strings.Repeat("This essay walks through the design of a small system in detail. ", 5)
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Designing Small Systems</title></head>
<body>
	<article>
		<h1>Designing Small Systems</h1>
		<p>%s</p>
		<p>%s</p>
		<p>%s</p>
	</article>
</body>
</html>`, paragraph, paragraph, paragraph)

	extractor, serverURL := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	})

	result, err := extractor.Extract(context.Background(), serverURL+"/post", "too short")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result.Body) < 200 {
		t.Errorf("Expected extracted body of at least 200 chars, got %d", len(result.Body))
	}
	if !strings.Contains(result.Body, "design of a small system") {
		t.Errorf("Expected article text in body, got %q", result.Body)
	}
	if strings.Contains(result.Body, "\n") {
		t.Errorf("Expected whitespace collapsed, got %q", result.Body)
	}
}

func TestExtractBodyTooShort(t *testing.T) {
	extractor, serverURL := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><p>Barely anything here.</p></article></body></html>`)
	})

	_, err := extractor.Extract(context.Background(), serverURL+"/post", "")
	if !errors.Is(err, ErrBodyTooShort) {
		t.Errorf("Expected ErrBodyTooShort, got %v", err)
	}
}

func TestExtractFetchFailure(t *testing.T) {
	extractor, serverURL := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	_, err := extractor.Extract(context.Background(), serverURL+"/post", "")
	if err == nil {
		t.Fatal("Expected error for failed page fetch, got nil")
	}

	// Fetch problems are not terminal extraction failures.
	if errors.Is(err, ErrBodyTooShort) || errors.Is(err, ErrUnreadable) {
		t.Errorf("Expected fetch failure to stay retryable, got %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	input := "  Multiple   spaces\nand\t\tnewlines  "
	expected := "Multiple spaces and newlines"

	if got := normalizeText(input); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
