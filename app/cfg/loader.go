package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./personaflow.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SourcesFile  string `long:"sources-file" env:"SOURCES_FILE" description:"Optional YAML file with sources to register at startup"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Pipeline configuration
	FetchIntervalHours int `long:"fetch-interval" env:"FETCH_INTERVAL_HOURS" default:"12" description:"Hours between ingestion runs"`
	FetchWorkerCount   int `long:"fetch-workers" env:"FETCH_WORKER_COUNT" default:"4" description:"Number of concurrent source fetch workers"`
	ArticleWorkerCount int `long:"article-workers" env:"ARTICLE_WORKER_COUNT" default:"4" description:"Number of concurrent article processing workers"`
	PerSourceLimit     int `long:"per-source-limit" env:"PER_SOURCE_LIMIT" default:"20" description:"Maximum candidate articles fetched per source per run"`
	FetchTimeout       int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"HTTP fetch timeout in seconds"`
	MinContentLength   int `long:"min-content-length" env:"MIN_CONTENT_LENGTH" default:"200" description:"Minimum extracted body length in characters"`

	// LLM configuration
	LLMEndpoint    string `long:"llm-endpoint" env:"LLM_ENDPOINT" default:"https://api.openai.com/v1" description:"OpenAI-compatible API base URL"`
	LLMAPIKey      string `long:"llm-api-key" env:"LLM_API_KEY" description:"API key for the LLM provider"`
	LLMModel       string `long:"llm-model" env:"LLM_MODEL" default:"gpt-4o-mini" description:"Chat model used for quality scoring"`
	EmbeddingModel string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"Embedding model"`
	LLMTimeout     int    `long:"llm-timeout" env:"LLM_TIMEOUT" default:"60" description:"LLM call timeout in seconds"`
	LLMConcurrency int    `long:"llm-concurrency" env:"LLM_CONCURRENCY" default:"2" description:"Maximum concurrent LLM calls (shared by embedding and scoring)"`

	// Ranking configuration
	SimilarityWeight float64 `long:"similarity-weight" env:"SIMILARITY_WEIGHT" default:"0.5" description:"Weight of interest similarity in the fused score"`
	QualityWeight    float64 `long:"quality-weight" env:"QUALITY_WEIGHT" default:"0.5" description:"Weight of the quality score in the fused score"`
	ScoreThreshold   float64 `long:"score-threshold" env:"SCORE_THRESHOLD" default:"0.7" description:"Fused score required for queue admission"`
	LearningRate     float64 `long:"learning-rate" env:"USER_VECTOR_LEARNING_RATE" default:"0.1" description:"Interest vector learning rate (EMA alpha)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PersonaFlow/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		SourcesFile:        raw.SourcesFile,
		APIAccessKey:       raw.APIAccessKey,
		FetchIntervalHours: raw.FetchIntervalHours,
		FetchWorkerCount:   raw.FetchWorkerCount,
		ArticleWorkerCount: raw.ArticleWorkerCount,
		PerSourceLimit:     raw.PerSourceLimit,
		FetchTimeout:       raw.FetchTimeout,
		MinContentLength:   raw.MinContentLength,
		LLMEndpoint:        raw.LLMEndpoint,
		LLMAPIKey:          raw.LLMAPIKey,
		LLMModel:           raw.LLMModel,
		EmbeddingModel:     raw.EmbeddingModel,
		LLMTimeout:         raw.LLMTimeout,
		LLMConcurrency:     raw.LLMConcurrency,
		SimilarityWeight:   raw.SimilarityWeight,
		QualityWeight:      raw.QualityWeight,
		ScoreThreshold:     raw.ScoreThreshold,
		LearningRate:       raw.LearningRate,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func validate(cfg *Cfg) error {
	if cfg.SimilarityWeight < 0 || cfg.SimilarityWeight > 1 {
		return fmt.Errorf("similarity weight must be in [0, 1], got %v", cfg.SimilarityWeight)
	}
	if cfg.QualityWeight < 0 || cfg.QualityWeight > 1 {
		return fmt.Errorf("quality weight must be in [0, 1], got %v", cfg.QualityWeight)
	}
	if cfg.ScoreThreshold < -1 || cfg.ScoreThreshold > 1 {
		return fmt.Errorf("score threshold must be in [-1, 1], got %v", cfg.ScoreThreshold)
	}
	if cfg.LearningRate <= 0 || cfg.LearningRate >= 1 {
		return fmt.Errorf("learning rate must be in (0, 1), got %v", cfg.LearningRate)
	}

	nonNegativeFields := map[string]int{
		"fetch interval":     cfg.FetchIntervalHours,
		"fetch workers":      cfg.FetchWorkerCount,
		"article workers":    cfg.ArticleWorkerCount,
		"per-source limit":   cfg.PerSourceLimit,
		"fetch timeout":      cfg.FetchTimeout,
		"min content length": cfg.MinContentLength,
		"llm concurrency":    cfg.LLMConcurrency,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
