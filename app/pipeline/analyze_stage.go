package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/personaflow/personaflow/app/metrics"
)

// analyzeJob is one embedding or scoring call for an article.
type analyzeJob func(ctx context.Context) error

// runAnalyzeStage embeds and scores extracted articles concurrently.
// Adapter failures leave the column NULL so the next run retries;
// repository failures abort the run. The LLM client enforces the shared
// concurrency cap across both kinds of calls.
func (o *Orchestrator) runAnalyzeStage(ctx context.Context, stats *RunStats) error {
	persona := o.persona()

	forEmbedding, err := o.articleRepo.GetArticlesForEmbedding(stageBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to load articles for embedding: %w", err)
	}

	forScoring, err := o.articleRepo.GetArticlesForScoring(stageBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to load articles for scoring: %w", err)
	}

	var embedded, scored atomic.Int64
	var storeErr atomic.Value

	jobs := make([]analyzeJob, 0, len(forEmbedding)+len(forScoring))

	for _, article := range forEmbedding {
		article := article
		jobs = append(jobs, func(ctx context.Context) error {
			embedding, err := o.embedder.Embed(ctx, article.Title+"\n\n"+article.Body)
			if err != nil {
				metrics.LLMCallsTotal.WithLabelValues("embed", "error").Inc()
				slog.Warn("Embedding failed, will retry next run", "article_id", article.ID, "error", err)
				return nil
			}
			metrics.LLMCallsTotal.WithLabelValues("embed", "success").Inc()

			if err := o.articleRepo.UpdateEmbedding(article.ID, embedding); err != nil {
				return fmt.Errorf("failed to store embedding: %w", err)
			}

			embedded.Add(1)
			return nil
		})
	}

	for _, article := range forScoring {
		article := article
		jobs = append(jobs, func(ctx context.Context) error {
			assessment, err := o.scorer.Score(ctx, persona, article.Title, article.Body)
			if err != nil {
				metrics.LLMCallsTotal.WithLabelValues("score", "error").Inc()
				slog.Warn("Scoring failed, will retry next run", "article_id", article.ID, "error", err)
				return nil
			}
			metrics.LLMCallsTotal.WithLabelValues("score", "success").Inc()

			if err := o.articleRepo.UpdateQualityScore(article.ID, assessment.Score, assessment.Rationale, assessment.Summary); err != nil {
				return fmt.Errorf("failed to store quality score: %w", err)
			}

			scored.Add(1)
			return nil
		})
	}

	if len(jobs) == 0 {
		return nil
	}

	jobCh := make(chan analyzeJob)
	var wg sync.WaitGroup

	for i := 0; i < o.articleWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for job := range jobCh {
				// Drain remaining jobs after a store fault so the
				// producer is never blocked.
				if storeErr.Load() != nil {
					continue
				}

				if err := job(ctx); err != nil {
					storeErr.Store(err)
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobCh)
	wg.Wait()

	stats.Embedded = int(embedded.Load())
	stats.Scored = int(scored.Load())

	if err, ok := storeErr.Load().(error); ok {
		return err
	}

	slog.Info("Analyze stage finished",
		"embedded", stats.Embedded,
		"embed_pending", len(forEmbedding)-stats.Embedded,
		"scored", stats.Scored,
		"score_pending", len(forScoring)-stats.Scored)

	return nil
}
