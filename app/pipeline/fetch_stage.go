package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/metrics"
)

// runFetchStage discovers candidates from every enabled source and
// inserts the unseen ones in pending state. A failing source is logged
// and skipped; a failing insert aborts the run.
func (o *Orchestrator) runFetchStage(ctx context.Context, stats *RunStats) error {
	sources, err := o.sourceRepo.GetEnabledSources()
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No enabled sources to fetch")
		return nil
	}

	var discovered, inserted, fetched, failed atomic.Int64
	var storeErr atomic.Value

	jobs := make(chan database.Source)
	var wg sync.WaitGroup

	for i := 0; i < o.fetchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for source := range jobs {
				// Keep draining after a store fault so the producer is
				// never blocked on the jobs channel; the recorded error
				// fails the run once the pool winds down.
				if storeErr.Load() != nil {
					continue
				}

				items, err := o.fetchSource(ctx, source)
				if err != nil {
					failed.Add(1)
					slog.Warn("Source fetch failed", "source", source.Name, "url", source.URL, "error", err)
					continue
				}

				fetched.Add(1)
				discovered.Add(int64(len(items)))

				urls := make([]string, len(items))
				for i, item := range items {
					urls[i] = item.URL
				}
				known, err := o.articleRepo.KnownURLs(urls)
				if err != nil {
					storeErr.Store(fmt.Errorf("failed to check known URLs: %w", err))
					continue
				}

				for _, item := range items {
					if known[item.URL] {
						metrics.ArticlesFetched.WithLabelValues(source.Kind, "duplicate").Inc()
						continue
					}

					publishedAt := item.PublishedAt
					created, err := o.articleRepo.InsertFetched(database.FetchedArticle{
						SourceID:    source.ID,
						URL:         item.URL,
						Title:       item.Title,
						Summary:     item.Summary,
						PublishedAt: &publishedAt,
					})
					if err != nil {
						storeErr.Store(fmt.Errorf("failed to store candidate %s: %w", item.URL, err))
						break
					}
					if created {
						inserted.Add(1)
						metrics.ArticlesFetched.WithLabelValues(source.Kind, "new").Inc()
					} else {
						// Another worker inserted the URL between the
						// known-URL check and the insert.
						metrics.ArticlesFetched.WithLabelValues(source.Kind, "duplicate").Inc()
					}
				}
				if storeErr.Load() != nil {
					continue
				}

				if err := o.sourceRepo.UpdateLastFetched(source.ID, time.Now().UTC()); err != nil {
					storeErr.Store(fmt.Errorf("failed to update source fetch time: %w", err))
				}
			}
		}()
	}

	for _, source := range sources {
		select {
		case jobs <- source:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	stats.SourcesFetched = int(fetched.Load())
	stats.SourcesFailed = int(failed.Load())
	stats.Discovered = int(discovered.Load())
	stats.NewArticles = int(inserted.Load())

	if err, ok := storeErr.Load().(error); ok {
		return err
	}

	slog.Info("Fetch stage finished",
		"sources", len(sources),
		"failed_sources", stats.SourcesFailed,
		"discovered", stats.Discovered,
		"new", stats.NewArticles)

	return nil
}

func (o *Orchestrator) fetchSource(ctx context.Context, source database.Source) ([]feed.Item, error) {
	fetcher, ok := o.fetchers[source.Kind]
	if !ok {
		return nil, fmt.Errorf("no fetcher for source kind %q", source.Kind)
	}

	return fetcher.Fetch(ctx, source.URL)
}
