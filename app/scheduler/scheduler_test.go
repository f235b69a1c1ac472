package scheduler

import (
	"testing"
	"time"

	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/pipeline"
	"github.com/personaflow/personaflow/app/ranking"
)

type stubSourceRepo struct{ database.SourceRepository }

func (stubSourceRepo) GetEnabledSources() ([]database.Source, error) { return nil, nil }

type stubArticleRepo struct{ database.ArticleRepository }

func (stubArticleRepo) GetArticlesForExtraction(int) ([]database.Article, error) { return nil, nil }
func (stubArticleRepo) GetArticlesForEmbedding(int) ([]database.Article, error)  { return nil, nil }
func (stubArticleRepo) GetArticlesForScoring(int) ([]database.Article, error)    { return nil, nil }
func (stubArticleRepo) GetArticlesForRanking(int) ([]database.Article, error)    { return nil, nil }

type stubQueueRepo struct{ database.QueueRepository }

type stubProfileRepo struct{ database.ProfileRepository }

func (stubProfileRepo) GetProfile() (*database.InterestProfile, error) {
	return &database.InterestProfile{Embedding: []float32{1}}, nil
}

type stubSettingsRepo struct{ database.SettingsRepository }

func (stubSettingsRepo) Get(string) (string, error) { return "", nil }

func newIdleOrchestrator() *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(
		stubSourceRepo{}, stubArticleRepo{}, stubQueueRepo{}, stubProfileRepo{}, stubSettingsRepo{},
		map[string]feed.Fetcher{}, nil, nil, nil,
		ranking.NewEngine(0.5, 0.5, 0.7),
		1, 1,
	)
}

func waitForRun(t *testing.T, orchestrator *pipeline.Orchestrator, after time.Time) *pipeline.RunStats {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if last := orchestrator.LastRun(); last != nil && !last.StartedAt.Before(after) && last.FinishedAt != nil {
			return last
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("Expected a pipeline run to complete in time")
	return nil
}

func TestSchedulerRunsImmediatelyOnStart(t *testing.T) {
	orchestrator := newIdleOrchestrator()
	s := NewScheduler(orchestrator, time.Hour)

	started := time.Now().UTC()
	s.Start()
	defer s.Stop()

	last := waitForRun(t, orchestrator, started)
	if last.State != pipeline.StateDone {
		t.Errorf("Expected startup run to finish done, got %s", last.State)
	}
}

func TestSchedulerTrigger(t *testing.T) {
	orchestrator := newIdleOrchestrator()
	s := NewScheduler(orchestrator, time.Hour)

	s.Start()
	defer s.Stop()

	first := waitForRun(t, orchestrator, time.Time{})

	s.Trigger()

	last := waitForRun(t, orchestrator, first.StartedAt.Add(time.Nanosecond))
	if last.State != pipeline.StateDone {
		t.Errorf("Expected triggered run to finish done, got %s", last.State)
	}
}

func TestSchedulerStopIsIdempotentAndPrompt(t *testing.T) {
	orchestrator := newIdleOrchestrator()
	s := NewScheduler(orchestrator, time.Hour)

	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Stop to return promptly")
	}
}
