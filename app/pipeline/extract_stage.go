package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/metrics"
)

// runExtractStage produces clean text bodies for pending articles.
// A too-short or unreadable body is terminal for the article so a dead
// page is never refetched run after run; a failed page fetch leaves the
// article pending for the next run.
func (o *Orchestrator) runExtractStage(ctx context.Context, stats *RunStats) error {
	articles, err := o.articleRepo.GetArticlesForExtraction(stageBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to load pending articles: %w", err)
	}

	if len(articles) == 0 {
		return nil
	}

	var extracted, failed atomic.Int64
	var storeErr atomic.Value

	jobs := make(chan database.Article)
	var wg sync.WaitGroup

	for i := 0; i < o.articleWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for article := range jobs {
				// Drain remaining jobs after a store fault so the
				// producer is never blocked.
				if storeErr.Load() != nil {
					continue
				}

				result, err := o.extractor.Extract(ctx, article.URL, article.Summary)
				if err != nil {
					if !errors.Is(err, feed.ErrBodyTooShort) && !errors.Is(err, feed.ErrUnreadable) {
						// Fetch problems are transient; the article
						// stays pending and the next run tries again.
						metrics.ExtractionsTotal.WithLabelValues("retry").Inc()
						slog.Warn("Extraction fetch failed, will retry next run", "url", article.URL, "error", err)
						continue
					}

					failed.Add(1)
					metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
					slog.Warn("Extraction failed", "url", article.URL, "error", err)

					if dbErr := o.articleRepo.MarkExtractionFailed(article.ID, err.Error()); dbErr != nil {
						storeErr.Store(fmt.Errorf("failed to mark extraction failure: %w", dbErr))
					}
					continue
				}

				title := article.Title
				if title == "" && result.Title != "" {
					title = result.Title
				}

				if dbErr := o.articleRepo.UpdateExtractedBody(article.ID, title, result.Body); dbErr != nil {
					storeErr.Store(fmt.Errorf("failed to store extracted body: %w", dbErr))
					continue
				}

				extracted.Add(1)
				metrics.ExtractionsTotal.WithLabelValues("success").Inc()
			}
		}()
	}

	for _, article := range articles {
		select {
		case jobs <- article:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	stats.Extracted = int(extracted.Load())
	stats.ExtractionFailed = int(failed.Load())

	if err, ok := storeErr.Load().(error); ok {
		return err
	}

	slog.Info("Extract stage finished", "extracted", stats.Extracted, "failed", stats.ExtractionFailed)

	return nil
}
