package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Assessment is the scorer's verdict on one article. Score is
// normalized to [0, 1].
type Assessment struct {
	Score     float64
	Rationale string
	Summary   string
}

// Models occasionally wrap the JSON in prose or a code fence; pull out
// the first object instead of failing the whole article.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

const maxScoringBodyLength = 8000

// Score asks the model to rate an article for the persona and returns
// the normalized assessment.
func (c *Client) Score(ctx context.Context, persona, title, body string) (*Assessment, error) {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersonaPrompt
	}

	body = truncate(body, maxScoringBodyLength)

	user := fmt.Sprintf("%s\n\nTitle: %s\n\nArticle:\n%s", scoringInstructions, title, body)

	content, err := c.complete(ctx, persona, user)
	if err != nil {
		return nil, err
	}

	assessment, err := parseAssessment(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	return assessment, nil
}

func parseAssessment(content string) (*Assessment, error) {
	raw := jsonObjectPattern.FindString(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Score     float64 `json:"score"`
		Rationale string  `json:"rationale"`
		Summary   string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}

	score := parsed.Score / 10
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &Assessment{
		Score:     score,
		Rationale: strings.TrimSpace(parsed.Rationale),
		Summary:   strings.TrimSpace(parsed.Summary),
	}, nil
}
