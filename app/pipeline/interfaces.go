package pipeline

import (
	"context"

	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/llm"
)

// Extractor produces a clean text body for an article.
type Extractor interface {
	Extract(ctx context.Context, articleURL, feedSummary string) (*feed.Result, error)
}

// Embedder turns article text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scorer rates an article for the reader persona.
type Scorer interface {
	Score(ctx context.Context, persona, title, body string) (*llm.Assessment, error)
}
