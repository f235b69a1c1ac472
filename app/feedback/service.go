// Package feedback applies reader actions to the queue and the
// interest profile.
package feedback

import (
	"fmt"
	"log/slog"

	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/ranking"
)

// Service processes like and skip actions. A like folds the article's
// embedding into the interest profile; both writes share one
// transaction in the repository so partial feedback can never persist.
type Service struct {
	queueRepo    database.QueueRepository
	learningRate float64
}

func NewService(queueRepo database.QueueRepository, learningRate float64) *Service {
	return &Service{
		queueRepo:    queueRepo,
		learningRate: learningRate,
	}
}

// Apply records the action for the article's queue entry. Repeating an
// action on an already handled entry reports the current status without
// side effects.
func (s *Service) Apply(articleID, action string) (*database.FeedbackResult, error) {
	result, err := s.queueRepo.ApplyFeedback(articleID, action, func(current, article []float32) []float32 {
		return ranking.UpdateVector(current, article, s.learningRate)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply feedback: %w", err)
	}

	slog.Info("Feedback applied",
		"article_id", articleID,
		"action", action,
		"applied", result.Applied,
		"profile_updated", result.ProfileUpdated)

	return result, nil
}
