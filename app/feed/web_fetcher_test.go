package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<body>
	<nav><a href="/">Home</a></nav>
	<main>
		<a href="/articles/first">First Article</a>
		<a href="/articles/second/">Second Article</a>
		<a href="/articles/first">First Article Again</a>
		<a href="https://other-site.example/post">External Post</a>
		<a href="#top">Back to top</a>
		<a href="mailto:editor@example.com">Contact</a>
		<a href="/articles/third">   </a>
	</main>
</body>
</html>`

func TestWebFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer server.Close()

	fetcher := NewWebFetcher(NewHTTPClient(5*time.Second, "TestAgent/1.0"), 20)

	items, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d: %+v", len(items), items)
	}

	if items[0].Title != "First Article" {
		t.Errorf("Expected first link title, got %q", items[0].Title)
	}
	if !strings.HasSuffix(items[0].URL, "/articles/first") {
		t.Errorf("Expected resolved article URL, got %q", items[0].URL)
	}
	if !strings.HasSuffix(items[1].URL, "/articles/second") {
		t.Errorf("Expected trailing slash trimmed, got %q", items[1].URL)
	}
}

func TestWebFetcherLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer server.Close()

	fetcher := NewWebFetcher(NewHTTPClient(5*time.Second, "TestAgent/1.0"), 1)

	items, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item with limit 1, got %d", len(items))
	}
}

func TestWebFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewWebFetcher(NewHTTPClient(5*time.Second, "TestAgent/1.0"), 20)

	_, err := fetcher.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Error("Expected error for 404 response, got nil")
	}
}
