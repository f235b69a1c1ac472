// Package pipeline runs the curation pipeline: fetch candidates,
// extract bodies, embed and score them, then rank against the interest
// profile and admit winners to the queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/llm"
	"github.com/personaflow/personaflow/app/metrics"
	"github.com/personaflow/personaflow/app/ranking"
)

type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateExtracting State = "extracting"
	// Embedding and scoring run concurrently under one state.
	StateAnalyzing State = "analyzing"
	StateRanking   State = "ranking"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// ErrRunInProgress is returned when a run is requested while another
// run holds the pipeline.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// How many articles one run processes per stage. Anything beyond the
// batch is picked up by the next run.
const stageBatchLimit = 500

// RunStats describes one pipeline run. Failed runs keep the partial
// progress already committed to the database.
type RunStats struct {
	State      State      `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`

	SourcesFetched   int `json:"sources_fetched"`
	SourcesFailed    int `json:"sources_failed"`
	Discovered       int `json:"discovered"`
	NewArticles      int `json:"new_articles"`
	Extracted        int `json:"extracted"`
	ExtractionFailed int `json:"extraction_failed"`
	Embedded         int `json:"embedded"`
	Scored           int `json:"scored"`
	Ranked           int `json:"ranked"`
	Admitted         int `json:"admitted"`
}

// Orchestrator drives the pipeline stages in order. A single run is
// active at a time; stage handlers fan work out to bounded worker
// pools.
type Orchestrator struct {
	sourceRepo   database.SourceRepository
	articleRepo  database.ArticleRepository
	queueRepo    database.QueueRepository
	profileRepo  database.ProfileRepository
	settingsRepo database.SettingsRepository

	fetchers  map[string]feed.Fetcher
	extractor Extractor
	embedder  Embedder
	scorer    Scorer
	engine    *ranking.Engine

	fetchWorkers   int
	articleWorkers int

	mu      sync.Mutex
	running bool
	state   State
	lastRun *RunStats
}

func NewOrchestrator(
	sourceRepo database.SourceRepository,
	articleRepo database.ArticleRepository,
	queueRepo database.QueueRepository,
	profileRepo database.ProfileRepository,
	settingsRepo database.SettingsRepository,
	fetchers map[string]feed.Fetcher,
	extractor Extractor,
	embedder Embedder,
	scorer Scorer,
	engine *ranking.Engine,
	fetchWorkers, articleWorkers int,
) *Orchestrator {
	return &Orchestrator{
		sourceRepo:     sourceRepo,
		articleRepo:    articleRepo,
		queueRepo:      queueRepo,
		profileRepo:    profileRepo,
		settingsRepo:   settingsRepo,
		fetchers:       fetchers,
		extractor:      extractor,
		embedder:       embedder,
		scorer:         scorer,
		engine:         engine,
		fetchWorkers:   fetchWorkers,
		articleWorkers: articleWorkers,
		state:          StateIdle,
	}
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastRun returns a copy of the most recent run's stats, or nil before
// the first run.
func (o *Orchestrator) LastRun() *RunStats {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.lastRun == nil {
		return nil
	}
	stats := *o.lastRun
	return &stats
}

// Run executes one full pipeline pass. Adapter failures on individual
// articles are recorded and skipped; repository failures abort the run
// with whatever progress earlier stages already committed.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.running = true
	stats := &RunStats{State: StateFetching, StartedAt: time.Now().UTC()}
	o.state = StateFetching
	o.lastRun = stats
	o.mu.Unlock()

	slog.Info("Pipeline run started")

	err := o.runStages(ctx, stats)

	o.mu.Lock()
	now := time.Now().UTC()
	stats.FinishedAt = &now
	if err != nil {
		stats.State = StateFailed
		stats.Error = err.Error()
	} else {
		stats.State = StateDone
	}
	o.state = StateIdle
	o.running = false
	o.mu.Unlock()

	metrics.RunDuration.WithLabelValues(string(stats.State)).Observe(now.Sub(stats.StartedAt).Seconds())

	if err != nil {
		slog.Error("Pipeline run failed", "error", err, "duration", now.Sub(stats.StartedAt).String())
		return stats, err
	}

	slog.Info("Pipeline run finished",
		"duration", now.Sub(stats.StartedAt).String(),
		"discovered", stats.Discovered,
		"new", stats.NewArticles,
		"extracted", stats.Extracted,
		"admitted", stats.Admitted)

	return stats, nil
}

func (o *Orchestrator) runStages(ctx context.Context, stats *RunStats) error {
	o.setState(StateFetching, stats)
	if err := o.runFetchStage(ctx, stats); err != nil {
		return fmt.Errorf("fetch stage: %w", err)
	}

	o.setState(StateExtracting, stats)
	if err := o.runExtractStage(ctx, stats); err != nil {
		return fmt.Errorf("extract stage: %w", err)
	}

	o.setState(StateAnalyzing, stats)
	if err := o.runAnalyzeStage(ctx, stats); err != nil {
		return fmt.Errorf("analyze stage: %w", err)
	}

	o.setState(StateRanking, stats)
	if err := o.runRankStage(ctx, stats); err != nil {
		return fmt.Errorf("rank stage: %w", err)
	}

	return nil
}

func (o *Orchestrator) setState(state State, stats *RunStats) {
	o.mu.Lock()
	o.state = state
	stats.State = state
	o.mu.Unlock()

	slog.Debug("Pipeline state changed", "state", string(state))
}

// persona returns the scoring prompt, falling back to the default when
// none has been saved.
func (o *Orchestrator) persona() string {
	prompt, err := o.settingsRepo.Get(database.SettingScoringPrompt)
	if err != nil {
		slog.Warn("Failed to load scoring prompt, using default", "error", err)
		return llm.DefaultPersonaPrompt
	}
	if prompt == "" {
		return llm.DefaultPersonaPrompt
	}
	return prompt
}
