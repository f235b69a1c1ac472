package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	fetchAttempts   = 3
	maxFetchBackoff = 30 * time.Second
	maxBodySize     = 10 << 20
)

// HTTPClient fetches URLs with a shared User-Agent, a per-host rate
// limit and bounded retries on transient failures.
type HTTPClient struct {
	client    *http.Client
	userAgent string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewHTTPClient(timeout time.Duration, userAgent string) *HTTPClient {
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Get fetches a URL and returns the response body. Server errors and
// network failures are retried with exponential backoff; client errors
// fail immediately.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter(rawURL).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := min(time.Duration(1<<attempt)*time.Second, maxFetchBackoff)
			slog.Debug("Retrying fetch", "url", rawURL, "attempt", attempt+1, "backoff", backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var retryable bool
		var data []byte
		data, retryable, lastErr = c.getOnce(ctx, rawURL)
		if lastErr == nil {
			return data, nil
		}
		if !retryable {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", fetchAttempts, lastErr)
}

func (c *HTTPClient) getOnce(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return nil, retryable, fmt.Errorf("HTTP error %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, false, nil
}

// limiter returns the rate limiter for the URL's host, creating it on
// first use. One request per second with a small burst keeps repeated
// article fetches polite towards a single site.
func (c *HTTPClient) limiter(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(1), 3)
		c.limiters[host] = limiter
	}

	return limiter
}
