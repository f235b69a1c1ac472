package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/personaflow/personaflow/app/metrics"
	"github.com/personaflow/personaflow/app/ranking"
)

// runRankStage scores fully analyzed articles against the interest
// profile and records one permanent admission decision per article.
func (o *Orchestrator) runRankStage(ctx context.Context, stats *RunStats) error {
	profile, err := o.interestVector(ctx)
	if err != nil {
		return err
	}
	if len(profile) == 0 {
		// Decisions are permanent, so without a reference vector ranking
		// is deferred to the next run rather than done against zeros.
		slog.Warn("No interest vector available, skipping rank stage")
		return nil
	}

	articles, err := o.articleRepo.GetArticlesForRanking(stageBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to load articles for ranking: %w", err)
	}

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}

		similarity := ranking.Cosine(profile, article.Embedding)
		if similarity == 0 {
			slog.Warn("Zero similarity, treating as no interest match",
				"article_id", article.ID, "embedding_len", len(article.Embedding))
		}

		finalScore, admitted := o.engine.Decide(similarity, *article.QualityScore)

		if err := o.queueRepo.RecordDecision(article.ID, finalScore, admitted); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}

		stats.Ranked++
		if admitted {
			stats.Admitted++
			metrics.ArticlesRanked.WithLabelValues("admitted").Inc()
			slog.Debug("Article admitted", "article_id", article.ID, "score", finalScore)
		} else {
			metrics.ArticlesRanked.WithLabelValues("rejected").Inc()
		}
	}

	slog.Info("Rank stage finished", "ranked", stats.Ranked, "admitted", stats.Admitted)

	return nil
}

// interestVector returns the stored interest profile, seeding it from
// the persona prompt on first use so ranking has a reference vector
// before any like has been recorded. A failed seed returns nil without
// error; the caller defers ranking to the next run.
func (o *Orchestrator) interestVector(ctx context.Context) ([]float32, error) {
	profile, err := o.profileRepo.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("failed to load interest profile: %w", err)
	}
	if profile != nil && len(profile.Embedding) > 0 {
		return profile.Embedding, nil
	}

	slog.Info("No interest profile yet, embedding persona prompt")

	embedding, err := o.embedder.Embed(ctx, o.persona())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Failed to embed persona prompt, will retry next run", "error", err)
		return nil, nil
	}

	if err := o.profileRepo.SaveProfile(embedding); err != nil {
		return nil, fmt.Errorf("failed to save seeded profile: %w", err)
	}

	return embedding, nil
}
