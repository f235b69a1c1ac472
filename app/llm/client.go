// Package llm talks to an OpenAI-compatible API for embeddings and
// article quality scoring.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxAttempts    = 3
	maxBackoff     = 30 * time.Second
	maxErrorSample = 1024

	// Embedding input is capped to bound token cost; the head of an
	// article carries the topical signal.
	maxEmbedInputLength = 8000
)

// APIError carries the HTTP status of a failed API call so callers can
// tell transient failures from permanent ones.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the call is worth retrying. Rate limits and
// server errors are transient; other client errors are permanent.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsTransient reports whether an error from the client may succeed on a
// later attempt. Network failures count as transient.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	return err != nil && !errors.Is(err, context.Canceled)
}

// Client is a reusable OpenAI-compatible API client. A shared semaphore
// caps concurrent calls across embedding and scoring.
type Client struct {
	endpoint       string
	apiKey         string
	model          string
	embeddingModel string
	httpClient     *http.Client
	sem            chan struct{}
}

func NewClient(endpoint, apiKey, model, embeddingModel string, timeout time.Duration, concurrency int) *Client {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		apiKey:         apiKey,
		model:          model,
		embeddingModel: embeddingModel,
		httpClient:     &http.Client{Timeout: timeout},
		sem:            make(chan struct{}, concurrency),
	}
}

// post sends one JSON request under the concurrency cap, retrying
// transient failures with exponential backoff.
func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := min(time.Duration(1<<attempt)*time.Second, maxBackoff)
			slog.Debug("Retrying API call", "path", path, "attempt", attempt+1, "backoff", backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.doOnce(ctx, path, body, v)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("api call failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSample))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(sample))}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// truncate cuts text to at most limit bytes without splitting a
// multi-byte rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = truncate(text, maxEmbedInputLength)

	payload := map[string]any{
		"model": c.embeddingModel,
		"input": text,
	}

	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	if err := c.post(ctx, "/embeddings", payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contains no vector")
	}

	return resp.Data[0].Embedding, nil
}

// complete sends a chat completion and returns the assistant message.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := c.post(ctx, "/chat/completions", payload, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response contains no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
