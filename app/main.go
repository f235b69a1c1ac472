package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/personaflow/personaflow/app/api"
	"github.com/personaflow/personaflow/app/cfg"
	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/feedback"
	"github.com/personaflow/personaflow/app/llm"
	"github.com/personaflow/personaflow/app/metrics"
	"github.com/personaflow/personaflow/app/pipeline"
	"github.com/personaflow/personaflow/app/ranking"
	"github.com/personaflow/personaflow/app/scheduler"
	"github.com/personaflow/personaflow/app/sources"
)

func main() {
	// .env is optional, flags and environment variables win over it
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting PersonaFlow", "version", c.Version)

	db, err := database.NewDB(c.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", c.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", c.DBPath, "schema_version", version, "dirty", dirty)

	sourceRepo := database.NewSourceRepo(db)
	articleRepo := database.NewArticleRepo(db)
	queueRepo := database.NewQueueRepo(db)
	profileRepo := database.NewProfileRepo(db)
	settingsRepo := database.NewSettingsRepo(db)

	if c.SourcesFile != "" {
		configs, err := sources.Load(c.SourcesFile)
		if err != nil {
			slog.Error("Failed to load sources file", "path", c.SourcesFile, "error", err)
			os.Exit(1)
		}
		if err := sources.Sync(sourceRepo, configs); err != nil {
			slog.Error("Failed to register sources", "error", err)
			os.Exit(1)
		}
		slog.Info("Sources registered", "count", len(configs))
	}

	httpClient := feed.NewHTTPClient(time.Duration(c.FetchTimeout)*time.Second, c.UserAgent)
	fetchers := map[string]feed.Fetcher{
		database.SourceKindRSS: feed.NewRSSFetcher(httpClient, c.PerSourceLimit),
		database.SourceKindWeb: feed.NewWebFetcher(httpClient, c.PerSourceLimit),
	}
	extractor := feed.NewExtractor(httpClient, c.MinContentLength)

	llmClient := llm.NewClient(c.LLMEndpoint, c.LLMAPIKey, c.LLMModel, c.EmbeddingModel,
		time.Duration(c.LLMTimeout)*time.Second, c.LLMConcurrency)

	engine := ranking.NewEngine(c.SimilarityWeight, c.QualityWeight, c.ScoreThreshold)

	orchestrator := pipeline.NewOrchestrator(
		sourceRepo, articleRepo, queueRepo, profileRepo, settingsRepo,
		fetchers, extractor, llmClient, llmClient, engine,
		c.FetchWorkerCount, c.ArticleWorkerCount,
	)

	metrics.Init(c.Version)

	sched := scheduler.NewScheduler(orchestrator, time.Duration(c.FetchIntervalHours)*time.Hour)
	sched.Start()
	defer sched.Stop()

	feedbackService := feedback.NewService(queueRepo, c.LearningRate)

	handler := api.NewHandler(sourceRepo, articleRepo, queueRepo, settingsRepo,
		feedbackService, orchestrator, sched)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
